//go:build !nogpu

package native

import (
	"log/slog"
	"time"

	"github.com/gogpu/gpudevice/hg"
)

// SurfaceFactory creates a presentable surface for a native window handle.
type SurfaceFactory func(d *Device, window uintptr) (hg.Surface, error)

// Option configures a Device.
type Option func(*options)

type options struct {
	props       *hg.Properties
	surfaces    SurfaceFactory
	logger      *slog.Logger
	spirv       bool
	idleTimeout time.Duration
}

func defaultOptions() options {
	return options{idleTimeout: 5 * time.Second}
}

// WithProperties overrides the adapter properties the device reports.
func WithProperties(p hg.Properties) Option {
	return func(o *options) { o.props = &p }
}

// WithSurfaceFactory enables CreateSurface.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(o *options) { o.surfaces = f }
}

// WithLogger sets the device logger. The default is gpudevice.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSPIRV makes shader sets compile WGSL to SPIR-V with naga before
// module creation. Open enables it for Vulkan.
func WithSPIRV(enabled bool) Option {
	return func(o *options) { o.spirv = enabled }
}

// WithIdleTimeout bounds WaitIdle. Zero or negative values are ignored.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}
