//go:build !nogpu

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoAdapter is returned when the HAL instance enumerates no adapters.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not compiled in.
	ErrBackendUnavailable = errors.New("native: backend not available")

	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("native: HAL device or queue is nil")

	// ErrNoHALAccess is returned by FromProvider when the provider does not
	// expose its HAL device and queue.
	ErrNoHALAccess = errors.New("native: provider does not expose HAL types")

	// ErrUnsupportedShaderLanguage is returned for shader sets that are not
	// WGSL.
	ErrUnsupportedShaderLanguage = errors.New("native: unsupported shader language")

	// ErrUnsupportedPolygonMode is returned for line rasterization, which
	// the HAL pipeline state cannot express.
	ErrUnsupportedPolygonMode = errors.New("native: unsupported polygon mode")

	// ErrPresentationUnsupported is returned by CreateSurface when the device
	// has no SurfaceFactory.
	ErrPresentationUnsupported = errors.New("native: presentation not configured")

	// ErrForeignObject is returned when an object created by another
	// hg.Device is passed in.
	ErrForeignObject = errors.New("native: object belongs to another device")

	// ErrIdleTimeout is returned when WaitIdle gives up on the GPU.
	ErrIdleTimeout = errors.New("native: timed out waiting for the GPU")
)
