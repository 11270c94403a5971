// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import "errors"

// Sentinel errors for the gpudevice package.
var (
	// ErrDeviceLost is returned once a frame or shutdown wait failed. The
	// device stays lost; every later call returns it.
	ErrDeviceLost = errors.New("gpudevice: device lost")

	// ErrClosed is returned by calls on a closed device.
	ErrClosed = errors.New("gpudevice: device closed")

	// ErrConcurrentUse is the panic value when two goroutines drive the
	// frame state of one device at the same time.
	ErrConcurrentUse = errors.New("gpudevice: concurrent use of frame goroutine API")

	// ErrInvalidMipLevels is returned when a texture asks for more mip
	// levels than its largest dimension allows.
	ErrInvalidMipLevels = errors.New("gpudevice: mip level count exceeds texture size")

	// ErrInvalidSize is returned for zero-sized textures and buffers, or
	// textures larger than the device maximum.
	ErrInvalidSize = errors.New("gpudevice: invalid resource size")

	// ErrNoWindow is returned by PresentFrame before AttachWindow.
	ErrNoWindow = errors.New("gpudevice: no window attached")

	// ErrWindowAttached is returned when AttachWindow is called twice.
	ErrWindowAttached = errors.New("gpudevice: window already attached")

	// ErrNilDescriptor is returned when a nil pipeline descriptor is used.
	ErrNilDescriptor = errors.New("gpudevice: pipeline descriptor is nil")

	// ErrNoShaderSource is returned when a pipeline's shader source cannot
	// be loaded.
	ErrNoShaderSource = errors.New("gpudevice: shader source not found")
)
