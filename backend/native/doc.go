// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native implements hg.Device on top of the gogpu/wgpu HAL.
//
// A Device wraps one hal.Device and its single hal.Queue. It can be opened
// standalone (Open, OpenInstance), wrapping a device and queue the caller
// already owns (New), or borrowed from a gogpu window through the
// gpucontext.DeviceProvider interface (FromProvider).
//
// Timeline semaphores are hybrids: a host counter that Signal raises
// directly, plus the HAL submission index of every queue signal. Waits
// consult the host counter first and only poll the queue's completed
// submission index for values that were actually submitted to the GPU.
//
// Shader sets take WGSL. On Vulkan the source is compiled to SPIR-V with
// gogpu/naga before the module is created; other backends receive WGSL.
//
// Presentation needs a platform surface. The HAL surface entry points are
// backend specific, so surfaces are created through a SurfaceFactory
// supplied with WithSurfaceFactory. Without one, CreateSurface returns
// ErrPresentationUnsupported and the device renders offscreen only.
package native
