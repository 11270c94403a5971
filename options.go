package gpudevice

import (
	"log/slog"

	"github.com/gogpu/gputypes"
)

// Option configures a Device during creation.
// Use functional options to customize Device behavior.
//
// Example:
//
//	// Defaults: built-in queue encoder, package logger, no shader source
//	dev, err := gpudevice.New(handle)
//
//	// Shaders from an embedded directory, debug logging
//	dev, err := gpudevice.New(handle,
//	    gpudevice.WithShaderSource(gpudevice.FSShaderSource(shaders, "wgsl")),
//	    gpudevice.WithLogger(logger))
type Option func(*options)

// options holds optional configuration for Device creation.
type options struct {
	logger        *slog.Logger
	shaders       ShaderSource
	encoder       CommandEncoder
	backendName   string
	vsync         bool
	uploadChunk   uint64
	precompile    [2]gputypes.TextureFormat
	samplerLimits bool
}

// defaultOptions returns the default device options.
func defaultOptions() options {
	return options{
		logger:      nil, // package logger at New
		shaders:     nil, // pipelines must carry inline sources
		encoder:     nil, // queueEncoder
		backendName: "hg",
		vsync:       true,
		uploadChunk: 1 << 20,
		precompile:  [2]gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float},
	}
}

// WithLogger sets the logger for this device only.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithShaderSource sets where pipeline shader sources are loaded from when
// a RenderPipeline does not carry them inline.
func WithShaderSource(s ShaderSource) Option {
	return func(o *options) {
		o.shaders = s
	}
}

// WithCommandEncoder replaces the built-in queue encoder. The device owns
// the encoder and destroys it on Close.
func WithCommandEncoder(enc CommandEncoder) Option {
	return func(o *options) {
		o.encoder = enc
	}
}

// WithBackendName sets the name reported by BackendName and
// ImplementationInformation.
func WithBackendName(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithVsync sets the vsync state of the first swapchain.
func WithVsync(enabled bool) Option {
	return func(o *options) {
		o.vsync = enabled
	}
}

// WithUploadChunkSize sets the initial size of each per-frame upload arena
// of the built-in encoder. Arenas grow on demand.
func WithUploadChunkSize(size uint64) Option {
	return func(o *options) {
		if size > 0 {
			o.uploadChunk = size
		}
	}
}

// WithPrecompileFormats sets the representative render pass that
// PrecompilePipeline compiles against. Pass gputypes.TextureFormatUndefined
// as depthStencil for a color-only pass.
//
// Example:
//
//	// Renderer draws to the swapchain with a packed depth/stencil buffer
//	dev, err := gpudevice.New(handle, gpudevice.WithPrecompileFormats(
//	    gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatDepth24PlusStencil8))
func WithPrecompileFormats(color, depthStencil gputypes.TextureFormat) Option {
	return func(o *options) {
		o.precompile = [2]gputypes.TextureFormat{color, depthStencil}
	}
}

// WithClampedAnisotropy limits sampler anisotropy to the device maximum
// instead of passing the requested value through.
func WithClampedAnisotropy() Option {
	return func(o *options) {
		o.samplerLimits = true
	}
}
