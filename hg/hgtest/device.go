// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hgtest provides an in-memory hg.Device for tests.
//
// The fake device has no GPU. Work submitted to its queue "executes" either
// immediately (the default) or when the test calls Retire, which lets tests
// hold frames in flight and observe what the host does while it waits.
// Every Destroy is appended to a shared log so tests can assert destruction
// order across object kinds.
package hgtest

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpudevice/hg"
)

// Object kinds, used with Created, Live and FailNext.
const (
	KindSemaphore      = "semaphore"
	KindRenderPass     = "renderpass"
	KindShaderSet      = "shaderset"
	KindUniformLayout  = "uniformlayout"
	KindUniformPool    = "uniformpool"
	KindPipelineLayout = "pipelinelayout"
	KindPipeline       = "pipeline"
	KindSampler        = "sampler"
	KindBuffer         = "buffer"
	KindTexture        = "texture"
	KindTextureView    = "textureview"
	KindSurface        = "surface"
	KindSwapchain      = "swapchain"
	KindResource       = "resource"
	KindDevice         = "device"
)

// Option configures a fake Device.
type Option func(*Device)

// ManualRetire makes queued GPU signals wait for Retire instead of
// completing on submission.
func ManualRetire() Option {
	return func(d *Device) { d.manual = true }
}

// WithProperties overrides the reported adapter properties.
func WithProperties(p hg.Properties) Option {
	return func(d *Device) { d.props = p }
}

// Device is a fake hg.Device.
type Device struct {
	mu      sync.Mutex
	props   hg.Properties
	manual  bool
	pending []pendingSignal
	retired uint64

	maxPending int
	created    map[string]int
	destroyed  map[string]int
	failNext   map[string]error
	log        []string
	frames     int
	idleWaits  int
	windows    map[uintptr]*Window
	writes     int
	prepared   int
	waits      []hg.QueueItem
	doubleFree []string
	semaphores []*Semaphore

	queue *Queue
}

type pendingSignal struct {
	sem   hg.Semaphore
	value uint64
}

// NewDevice returns a fake device.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		props: hg.Properties{
			APIVersion:       "1.3.0",
			Vendor:           "hgtest",
			Renderer:         "fake adapter",
			DriverVersion:    "0.0.1",
			MaxTexture2DSize: 8192,
			UBOAlignment:     256,
			MaxAnisotropy:    16,
		},
		created:   make(map[string]int),
		destroyed: make(map[string]int),
		failNext:  make(map[string]error),
		windows:   make(map[uintptr]*Window),
	}
	d.queue = &Queue{dev: d}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FailNext makes the next creation of kind return err.
func (d *Device) FailNext(kind string, err error) {
	d.mu.Lock()
	d.failNext[kind] = err
	d.mu.Unlock()
}

// create records a creation of kind or returns the injected failure.
func (d *Device) create(kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failNext[kind]; ok {
		delete(d.failNext, kind)
		return err
	}
	d.created[kind]++
	return nil
}

func (d *Device) recordDestroy(kind, label string, already bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := kind + ":" + label
	if already {
		d.doubleFree = append(d.doubleFree, entry)
		return
	}
	d.destroyed[kind]++
	d.log = append(d.log, entry)
}

// Created returns how many objects of kind were created.
func (d *Device) Created(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind]
}

// Live returns how many objects of kind are created and not destroyed.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind] - d.destroyed[kind]
}

// DestroyLog returns "kind:label" for every Destroy, in call order.
func (d *Device) DestroyLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.log...)
}

// DoubleDestroys returns objects destroyed more than once.
func (d *Device) DoubleDestroys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.doubleFree...)
}

// Frames returns the number of MarkFrame calls.
func (d *Device) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// IdleWaits returns the number of WaitIdle calls.
func (d *Device) IdleWaits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idleWaits
}

// Prepared returns the number of texture prepare items submitted.
func (d *Device) Prepared() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prepared
}

// Writes returns the number of WriteBuffer calls.
func (d *Device) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Pending returns the number of GPU signals not yet retired.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// MaxPending returns the largest Pending value observed.
func (d *Device) MaxPending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxPending
}

// Retired returns the highest signal value retired by the GPU.
func (d *Device) Retired() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.retired
}

// Retire completes the oldest pending GPU signal. It reports whether there
// was one.
func (d *Device) Retire() bool {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return false
	}
	p := d.pending[0]
	d.pending = d.pending[1:]
	if p.value > d.retired {
		d.retired = p.value
	}
	d.mu.Unlock()
	_ = p.sem.Signal(p.value)
	return true
}

// RetireAll completes every pending GPU signal.
func (d *Device) RetireAll() {
	for d.Retire() {
	}
}

// Properties implements hg.Device.
func (d *Device) Properties() hg.Properties { return d.props }

// Queue implements hg.Device.
func (d *Device) Queue() hg.Queue { return d.queue }

// MarkFrame implements hg.Device.
func (d *Device) MarkFrame() {
	d.mu.Lock()
	d.frames++
	d.mu.Unlock()
}

// WaitIdle implements hg.Device. All pending work retires.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	d.idleWaits++
	d.mu.Unlock()
	d.RetireAll()
	return nil
}

// Destroy implements hg.Device.
func (d *Device) Destroy() {
	d.recordDestroy(KindDevice, "device", false)
}

// CreateSemaphore implements hg.Device.
func (d *Device) CreateSemaphore(initial uint64) (hg.Semaphore, error) {
	if err := d.create(KindSemaphore); err != nil {
		return nil, err
	}
	s := newSemaphore(d, initial)
	d.mu.Lock()
	d.semaphores = append(d.semaphores, s)
	d.mu.Unlock()
	return s, nil
}

// Semaphores returns every semaphore created, in creation order.
func (d *Device) Semaphores() []*Semaphore {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Semaphore(nil), d.semaphores...)
}

// CreateRenderPass implements hg.Device.
func (d *Device) CreateRenderPass(info hg.RenderPassInfo) (hg.RenderPass, error) {
	if err := d.create(KindRenderPass); err != nil {
		return nil, err
	}
	label := fmt.Sprintf("%v/%v", info.Color, info.DepthStencil)
	return &RenderPass{object: newObject(d, KindRenderPass, label), info: info}, nil
}

// CreateShaderSet implements hg.Device.
func (d *Device) CreateShaderSet(info hg.ShaderSetInfo) (hg.ShaderSet, error) {
	if err := d.create(KindShaderSet); err != nil {
		return nil, err
	}
	return &ShaderSet{object: newObject(d, KindShaderSet, info.Label), info: info}, nil
}

// CreateUniformSetLayout implements hg.Device.
func (d *Device) CreateUniformSetLayout(info hg.UniformSetLayoutInfo) (hg.UniformSetLayout, error) {
	if err := d.create(KindUniformLayout); err != nil {
		return nil, err
	}
	return &UniformSetLayout{object: newObject(d, KindUniformLayout, info.Label), info: info}, nil
}

// CreatePipelineLayout implements hg.Device.
func (d *Device) CreatePipelineLayout(info hg.PipelineLayoutInfo) (hg.PipelineLayout, error) {
	if err := d.create(KindPipelineLayout); err != nil {
		return nil, err
	}
	return newObject(d, KindPipelineLayout, info.Label), nil
}

// CreatePipeline implements hg.Device.
func (d *Device) CreatePipeline(info hg.PipelineInfo) (hg.Pipeline, error) {
	if err := d.create(KindPipeline); err != nil {
		return nil, err
	}
	return &Pipeline{object: newObject(d, KindPipeline, info.Label), Info: info}, nil
}

// CreateSampler implements hg.Device.
func (d *Device) CreateSampler(info hg.SamplerInfo) (hg.Sampler, error) {
	if err := d.create(KindSampler); err != nil {
		return nil, err
	}
	return &Sampler{object: newObject(d, KindSampler, "sampler"), Info: info}, nil
}

// CreateBuffer implements hg.Device.
func (d *Device) CreateBuffer(info hg.BufferInfo) (hg.Buffer, error) {
	if err := d.create(KindBuffer); err != nil {
		return nil, err
	}
	return &Buffer{object: newObject(d, KindBuffer, info.Label), info: info, data: make([]byte, info.Size)}, nil
}

// CreateTexture implements hg.Device.
func (d *Device) CreateTexture(info hg.TextureInfo) (hg.Texture, error) {
	if err := d.create(KindTexture); err != nil {
		return nil, err
	}
	return &Texture{object: newObject(d, KindTexture, info.Label), info: info}, nil
}

// CreateTextureView implements hg.Device.
func (d *Device) CreateTextureView(tex hg.Texture, info hg.TextureViewInfo) (hg.TextureView, error) {
	if tex == nil {
		return nil, fmt.Errorf("hgtest: nil texture")
	}
	if err := d.create(KindTextureView); err != nil {
		return nil, err
	}
	return newObject(d, KindTextureView, info.Label), nil
}

// CreateSurface implements hg.Device. The handle must belong to a Window
// created with NewWindow on this device.
func (d *Device) CreateSurface(window uintptr) (hg.Surface, error) {
	d.mu.Lock()
	win, ok := d.windows[window]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("hgtest: unknown window handle %#x", window)
	}
	if err := d.create(KindSurface); err != nil {
		return nil, err
	}
	return &Surface{object: newObject(d, KindSurface, "surface"), win: win}, nil
}
