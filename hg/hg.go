// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hg defines the device handle consumed by gpudevice.
//
// A device handle is the thin connection to an explicit graphics API. It
// creates the low-level objects (semaphores, render passes, shader sets,
// pipelines, samplers, buffers, textures, surfaces) and reports the
// capabilities of the adapter it was opened on. It does not pace frames,
// cache pipelines or defer destruction; gpudevice does that on top of it.
//
// Implementations:
//   - backend/native: gogpu/wgpu HAL (Vulkan, Metal, DX12, GLES, noop)
//   - hg/hgtest: an in-memory fake with a test-controlled GPU timeline
package hg

import (
	"errors"
	"time"
)

// Forever is the timeout that makes Semaphore.Wait block until the value is
// reached.
const Forever time.Duration = -1

// ErrDestroyed is returned when an object is used after Destroy.
var ErrDestroyed = errors.New("hg: object destroyed")

// Destroyer is anything whose GPU memory is released explicitly.
type Destroyer interface {
	Destroy()
}

// DestroyFunc adapts a function to the Destroyer interface.
type DestroyFunc func()

// Destroy calls f.
func (f DestroyFunc) Destroy() { f() }

// Device is the connection to the graphics API.
//
// Device methods are called from a single frame goroutine, except for
// Semaphore.Wait and Semaphore.Signal which are also called from the
// background cleanup goroutine.
type Device interface {
	Destroyer

	// Properties reports adapter identity and limits.
	Properties() Properties

	// Queue returns the device's single submission queue.
	Queue() Queue

	CreateSemaphore(initial uint64) (Semaphore, error)
	CreateRenderPass(info RenderPassInfo) (RenderPass, error)
	CreateShaderSet(info ShaderSetInfo) (ShaderSet, error)
	CreateUniformSetLayout(info UniformSetLayoutInfo) (UniformSetLayout, error)
	CreatePipelineLayout(info PipelineLayoutInfo) (PipelineLayout, error)
	CreatePipeline(info PipelineInfo) (Pipeline, error)
	CreateSampler(info SamplerInfo) (Sampler, error)
	CreateBuffer(info BufferInfo) (Buffer, error)
	CreateTexture(info TextureInfo) (Texture, error)
	CreateTextureView(tex Texture, info TextureViewInfo) (TextureView, error)

	// CreateSurface wraps a native window handle.
	CreateSurface(window uintptr) (Surface, error)

	// MarkFrame tells debugging and capture tools that a frame ended.
	MarkFrame()

	// WaitIdle blocks until all submitted GPU work has completed.
	WaitIdle() error
}

// Properties describes the adapter a device was opened on.
type Properties struct {
	APIVersion       string
	Vendor           string
	Renderer         string
	DriverVersion    string
	MaxTexture2DSize uint32
	UBOAlignment     uint32
	MaxAnisotropy    float32
}

// Semaphore is a timeline semaphore: a monotonically increasing 64-bit
// counter that both the host and the GPU can signal and wait on.
type Semaphore interface {
	Destroyer

	// Signal sets the counter to value from the host.
	Signal(value uint64) error

	// Wait blocks until the counter is at least value or the timeout
	// elapses. It reports whether the value was reached. A timeout of
	// Forever never elapses.
	Wait(value uint64, timeout time.Duration) (bool, error)
}
