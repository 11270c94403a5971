// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpudevice"
	"github.com/gogpu/gpudevice/hg"
)

// Device is an hg.Device backed by a HAL device and queue.
type Device struct {
	device hal.Device
	queue  *queue
	props  hg.Properties
	opts   options
	log    *slog.Logger

	// instance is set when the device was opened by this package and is
	// destroyed with it.
	instance  hal.Instance
	owned     bool
	destroyed bool
}

var _ hg.Device = (*Device)(nil)

// New wraps a HAL device and queue. The caller keeps ownership of both;
// Destroy releases only what this package created.
func New(device hal.Device, q hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || q == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{device: device, opts: o, log: o.logger}
	if d.log == nil {
		d.log = gpudevice.Logger()
	}
	d.props = defaultProperties()
	if o.props != nil {
		d.props = *o.props
	}
	var err error
	if d.queue, err = newQueue(device, q); err != nil {
		return nil, err
	}
	return d, nil
}

// halProvider is implemented by gpucontext providers that expose their
// HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider borrows the device of a gpucontext provider, such as a
// gogpu window. The provider keeps ownership of the device.
func FromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrNoHALAccess, hp.HalDevice())
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrNoHALAccess, hp.HalQueue())
	}
	return New(device, q, opts...)
}

// Open creates a standalone device on the named HAL backend. SPIR-V
// compilation is enabled for Vulkan unless an option says otherwise.
func Open(backend gputypes.Backend, opts ...Option) (*Device, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	if backend == gputypes.BackendVulkan {
		opts = append([]Option{WithSPIRV(true)}, opts...)
	}
	return OpenInstance(instance, opts...)
}

// OpenInstance opens the preferred adapter of instance and takes ownership
// of the instance. Discrete and integrated GPUs are preferred over
// software adapters.
func OpenInstance(instance hal.Instance, opts ...Option) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	props := defaultProperties()
	props.Renderer = selected.Info.Name
	props.Vendor = fmt.Sprint(selected.Info.DeviceType)
	d, err := New(openDev.Device, openDev.Queue, append([]Option{WithProperties(props)}, opts...)...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	d.log.Info("native: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// defaultProperties reports the WebGPU default limits, which every HAL
// adapter supports.
func defaultProperties() hg.Properties {
	limits := gputypes.DefaultLimits()
	return hg.Properties{
		APIVersion:       "webgpu",
		Vendor:           "unknown",
		Renderer:         "gogpu hal",
		MaxTexture2DSize: limits.MaxTextureDimension2D,
		UBOAlignment:     limits.MinUniformBufferOffsetAlignment,
		MaxAnisotropy:    16,
	}
}

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.device }

// Properties implements hg.Device.
func (d *Device) Properties() hg.Properties { return d.props }

// Queue implements hg.Device.
func (d *Device) Queue() hg.Queue { return d.queue }

// CreateSemaphore implements hg.Device.
func (d *Device) CreateSemaphore(initial uint64) (hg.Semaphore, error) {
	return newSemaphore(d.queue, initial)
}

// CreateSurface implements hg.Device.
func (d *Device) CreateSurface(window uintptr) (hg.Surface, error) {
	if d.opts.surfaces == nil {
		return nil, ErrPresentationUnsupported
	}
	return d.opts.surfaces(d, window)
}

// MarkFrame implements hg.Device. The HAL has no frame boundary marker.
func (d *Device) MarkFrame() {}

// WaitIdle implements hg.Device.
func (d *Device) WaitIdle() error {
	return d.queue.waitIdle(d.opts.idleTimeout)
}

// Destroy waits for the GPU, releases the queue's synchronization objects
// and, for devices opened by this package, the HAL device and instance.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	if err := d.WaitIdle(); err != nil {
		d.log.Warn("native: destroy without idle GPU", "error", err)
	}
	d.queue.destroy()
	if d.owned {
		d.device.Destroy()
		d.instance.Destroy()
		d.owned = false
		d.log.Info("native: device closed")
	}
}
