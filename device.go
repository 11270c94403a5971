// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/internal/frame"
	"github.com/gogpu/gpudevice/internal/workqueue"
)

// MaxFramesInFlight is how many frames the host may record ahead of the GPU.
const MaxFramesInFlight = frame.MaxFramesInFlight

// Device is a GPU device over an hg.Device handle.
//
// Thread safety: a Device is driven from a single frame goroutine. The
// frame state transitions (EndFrame, PresentFrame, Close,
// ClearPipelineCache, PrecompilePipeline, AttachWindow) panic with
// ErrConcurrentUse when they overlap. DestroyEndOfFrameAsync may be called
// from any goroutine.
type Device struct {
	handle hg.Device
	props  hg.Properties
	opts   options
	log    *slog.Logger
	guard  frameGuard

	queue   *workqueue.Queue
	pacer   *frame.Pacer
	encoder CommandEncoder
	buffers *bufferManager

	cache    pipelineCache
	sources  map[shaderKey]string
	samplers map[hg.SamplerInfo]*Sampler

	sc swapchainState

	// lost is the first fatal wait failure, wrapped in ErrDeviceLost.
	lost    error
	drained atomic.Bool
	closed  bool
}

// New creates a Device over handle. The device takes ownership of handle
// and destroys it on Close.
func New(handle hg.Device, opts ...Option) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	q := workqueue.New(log.With("component", "cleanup"))
	pacer, err := frame.New(handle, q, log)
	if err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("gpudevice: new device: %w", err)
	}

	d := &Device{
		handle:   handle,
		props:    handle.Properties(),
		opts:     o,
		log:      log,
		queue:    q,
		pacer:    pacer,
		sources:  make(map[shaderKey]string),
		samplers: make(map[hg.SamplerInfo]*Sampler),
		sc:       swapchainState{vsync: o.vsync, wantVsync: o.vsync},
	}
	d.cache.init()
	d.encoder = o.encoder
	if d.encoder == nil {
		d.encoder = newQueueEncoder(d, o.uploadChunk)
	}
	d.buffers = newBufferManager(d)

	log.Info("gpudevice: device opened",
		"backend", o.backendName,
		"renderer", d.props.Renderer,
		"api", d.props.APIVersion,
		"framesInFlight", MaxFramesInFlight)
	return d, nil
}

// Handle returns the underlying device handle.
func (d *Device) Handle() hg.Device { return d.handle }

// Encoder returns the command encoder the device flushes at end of frame.
func (d *Device) Encoder() CommandEncoder { return d.encoder }

// CurrentFrame returns the number of the frame being recorded. The first
// frame is MaxFramesInFlight.
func (d *Device) CurrentFrame() uint64 { return d.pacer.Current() }

// Err returns the device-lost error, or nil while the device is healthy.
func (d *Device) Err() error { return d.lost }

// EndFrame flushes the current frame to the GPU and starts the next one.
// It blocks while MaxFramesInFlight earlier frames are still in flight.
func (d *Device) EndFrame() error {
	defer d.guard.enter()()
	return d.endFrame()
}

func (d *Device) endFrame() error {
	if err := d.usable(); err != nil {
		return err
	}
	d.buffers.endOfFrame()
	if err := d.pacer.EndFrame(d.encoder); err != nil {
		return d.fail(err)
	}
	return nil
}

// Close waits for the GPU, destroys every resource the device owns and
// finally the device handle. A failure aborts Close and is returned
// wrapped; later calls return the device-lost error again. Closing a
// healthy device twice is a no-op.
func (d *Device) Close() error {
	defer d.guard.enter()()
	if d.closed {
		return d.lost
	}
	d.closed = true

	if err := d.pacer.Drain(); err != nil {
		_ = d.queue.Close()
		return fmt.Errorf("gpudevice: close: %w", d.fail(err))
	}
	d.drained.Store(true)
	if err := d.queue.Close(); err != nil {
		return fmt.Errorf("gpudevice: close: %w", d.fail(err))
	}
	if err := d.clearPipelineCache(); err != nil {
		return fmt.Errorf("gpudevice: close: %w", d.fail(err))
	}

	d.buffers.destroy()
	d.encoder.Destroy()
	d.sc.destroy()
	for info, s := range d.samplers {
		s.s.Destroy()
		delete(d.samplers, info)
	}
	d.cache.destroyRenderPasses()
	d.handle.Destroy()

	d.log.Info("gpudevice: device closed", "frame", d.pacer.Current())
	return nil
}

// usable returns the error a call on a closed or lost device gets.
func (d *Device) usable() error {
	switch {
	case d.closed:
		return ErrClosed
	case d.lost != nil:
		return d.lost
	}
	return nil
}

// fail marks the device lost with err as the cause and returns the
// device-lost error. Only the first cause is kept.
func (d *Device) fail(err error) error {
	if d.lost == nil {
		d.lost = fmt.Errorf("%w: %w", ErrDeviceLost, err)
		d.log.Warn("gpudevice: device lost", "err", err, "frame", d.pacer.Current())
	}
	return d.lost
}

// frameGuard asserts that frame state transitions never overlap.
type frameGuard struct {
	busy atomic.Bool
}

// enter marks the guard busy and returns the matching release.
func (g *frameGuard) enter() func() {
	if !g.busy.CompareAndSwap(false, true) {
		panic(ErrConcurrentUse)
	}
	return g.leave
}

func (g *frameGuard) leave() { g.busy.Store(false) }
