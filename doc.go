// Package gpudevice provides a GPU device on top of an explicit graphics API.
//
// # Overview
//
// Explicit APIs (Vulkan, Metal, DX12, and gogpu/wgpu's HAL over them) hand
// the application command buffers, timeline semaphores and raw object
// lifetimes. gpudevice turns that into the device a higher-level renderer
// expects:
//   - frames are paced so the host runs at most MaxFramesInFlight frames
//     ahead of the GPU
//   - resources released by the renderer are destroyed only once no
//     in-flight frame can reference them
//   - pipelines are compiled lazily per render pass and cached
//   - the swapchain survives resize, minimize and vsync changes
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gpudevice"
//	    "github.com/gogpu/gpudevice/backend/native"
//	)
//
//	handle, _ := native.New(halDevice, halQueue)
//	dev, err := gpudevice.New(handle)
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	if err := dev.AttachWindow(win); err != nil {
//	    return err
//	}
//	for running {
//	    // record work against dev
//	    if err := dev.PresentFrame(); err != nil {
//	        return err
//	    }
//	}
//
// # Threading
//
// A Device is driven from one frame goroutine. EndFrame, PresentFrame,
// Close, ClearPipelineCache, PrecompilePipeline and AttachWindow panic with
// ErrConcurrentUse if they overlap. The device runs one background
// goroutine of its own for deferred cleanup.
//
// # Architecture
//
// The package is organized into:
//   - Public API: Device, RenderPipeline, CompiledPipeline, Texture, Buffer, Sampler
//   - Device handle: hg (interfaces), backend/native (gogpu/wgpu HAL), hg/hgtest (fake)
//   - Internal: frame (pacing and destruction ring), workqueue (cleanup goroutine)
//   - Host integration: integration/glfwwindow
package gpudevice

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
