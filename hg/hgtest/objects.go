// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hgtest

import (
	"sync/atomic"

	"github.com/gogpu/gpudevice/hg"
)

// object is the common part of every fake GPU object.
type object struct {
	dev       *Device
	kind      string
	label     string
	destroyed atomic.Bool
}

func newObject(d *Device, kind, label string) *object {
	return &object{dev: d, kind: kind, label: label}
}

// Destroy implements hg.Destroyer.
func (o *object) Destroy() {
	already := o.destroyed.Swap(true)
	o.dev.recordDestroy(o.kind, o.label, already)
}

// IsDestroyed reports whether Destroy was called.
func (o *object) IsDestroyed() bool { return o.destroyed.Load() }

// Label returns the object's label.
func (o *object) Label() string { return o.label }

// RenderPass is a fake hg.RenderPass.
type RenderPass struct {
	*object
	info hg.RenderPassInfo
}

// Info implements hg.RenderPass.
func (r *RenderPass) Info() hg.RenderPassInfo { return r.info }

// ShaderSet is a fake hg.ShaderSet that echoes its declared interface.
type ShaderSet struct {
	*object
	info hg.ShaderSetInfo
}

// Info returns the creation info.
func (s *ShaderSet) Info() hg.ShaderSetInfo { return s.info }

// VertexAttribs implements hg.ShaderSet.
func (s *ShaderSet) VertexAttribs() []hg.VertexAttrib { return s.info.VertexAttribs }

// UniformSetLayoutInfo implements hg.ShaderSet.
func (s *ShaderSet) UniformSetLayoutInfo(set int) (hg.UniformSetLayoutInfo, bool) {
	if set < 0 || set >= len(s.info.UniformLayouts) {
		return hg.UniformSetLayoutInfo{}, false
	}
	return s.info.UniformLayouts[set], true
}

// UniformSetLayout is a fake hg.UniformSetLayout.
type UniformSetLayout struct {
	*object
	info hg.UniformSetLayoutInfo
}

// CreatePool implements hg.UniformSetLayout.
func (l *UniformSetLayout) CreatePool(capacity int) (hg.UniformPool, error) {
	if err := l.dev.create(KindUniformPool); err != nil {
		return nil, err
	}
	return newObject(l.dev, KindUniformPool, l.label), nil
}

// Pipeline is a fake hg.Pipeline. Info is what it was created from.
type Pipeline struct {
	*object
	Info hg.PipelineInfo
}

// Sampler is a fake hg.Sampler.
type Sampler struct {
	*object
	Info hg.SamplerInfo
}

// Buffer is a fake hg.Buffer with host-visible contents.
type Buffer struct {
	*object
	info hg.BufferInfo
	data []byte
}

// Size implements hg.Buffer.
func (b *Buffer) Size() uint64 { return b.info.Size }

// Info returns the creation info.
func (b *Buffer) Info() hg.BufferInfo { return b.info }

// Data returns the buffer contents.
func (b *Buffer) Data() []byte { return b.data }

// Texture is a fake hg.Texture.
type Texture struct {
	*object
	info hg.TextureInfo
}

// Info implements hg.Texture.
func (t *Texture) Info() hg.TextureInfo { return t.info }

// Resource is a bare destroyable object for destruction-queue tests.
type Resource struct {
	*object
	count atomic.Int32
}

// NewResource returns a Resource that logs as "resource:name".
func (d *Device) NewResource(name string) *Resource {
	d.mu.Lock()
	d.created[KindResource]++
	d.mu.Unlock()
	return &Resource{object: newObject(d, KindResource, name)}
}

// Destroy implements hg.Destroyer.
func (r *Resource) Destroy() {
	r.count.Add(1)
	r.object.Destroy()
}

// Destroys returns how many times Destroy was called.
func (r *Resource) Destroys() int { return int(r.count.Load()) }
