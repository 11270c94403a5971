// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpudevice/hg"
)

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V length %d is not a whole number of words", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// shaderSet holds the vertex and fragment modules of a program. When both
// stages come from one source they share a module.
type shaderSet struct {
	device   hal.Device
	info     hg.ShaderSetInfo
	vertex   hal.ShaderModule
	fragment hal.ShaderModule
	dead     bool
}

// CreateShaderSet implements hg.Device.
func (d *Device) CreateShaderSet(info hg.ShaderSetInfo) (hg.ShaderSet, error) {
	if info.Language != hg.ShaderWGSL {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedShaderLanguage, info.Language)
	}
	s := &shaderSet{device: d.device, info: info}
	var err error
	if s.vertex, err = d.createModule(info.Label+" vertex", info.Vertex); err != nil {
		return nil, err
	}
	if info.Fragment == info.Vertex {
		s.fragment = s.vertex
		return s, nil
	}
	if s.fragment, err = d.createModule(info.Label+" fragment", info.Fragment); err != nil {
		d.device.DestroyShaderModule(s.vertex)
		return nil, err
	}
	return s, nil
}

func (d *Device) createModule(label, src string) (hal.ShaderModule, error) {
	desc := &hal.ShaderModuleDescriptor{Label: label, Source: hal.ShaderSource{WGSL: src}}
	if d.opts.spirv {
		words, err := compileSPIRV(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		desc.Source = hal.ShaderSource{SPIRV: words}
	}
	m, err := d.device.CreateShaderModule(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: create shader module: %w", label, err)
	}
	return m, nil
}

// VertexAttribs implements hg.ShaderSet.
func (s *shaderSet) VertexAttribs() []hg.VertexAttrib {
	return slices.Clone(s.info.VertexAttribs)
}

// UniformSetLayoutInfo implements hg.ShaderSet.
func (s *shaderSet) UniformSetLayoutInfo(set int) (hg.UniformSetLayoutInfo, bool) {
	if set < 0 || set >= len(s.info.UniformLayouts) {
		return hg.UniformSetLayoutInfo{}, false
	}
	return s.info.UniformLayouts[set], true
}

// Destroy implements hg.Destroyer.
func (s *shaderSet) Destroy() {
	if s.dead {
		return
	}
	s.dead = true
	if s.fragment != s.vertex {
		s.device.DestroyShaderModule(s.fragment)
	}
	s.device.DestroyShaderModule(s.vertex)
}

// uniformSetLayout is a HAL bind group layout.
type uniformSetLayout struct {
	device hal.Device
	info   hg.UniformSetLayoutInfo
	raw    hal.BindGroupLayout
	dead   bool
}

// CreateUniformSetLayout implements hg.Device. Texel buffers bind as
// read-only storage buffers.
func (d *Device) CreateUniformSetLayout(info hg.UniformSetLayoutInfo) (hg.UniformSetLayout, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(info.Uniforms))
	for _, u := range info.Uniforms {
		e := gputypes.BindGroupLayoutEntry{Binding: u.Binding, Visibility: u.Stages}
		switch u.Type {
		case hg.UniformBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case hg.UniformTexelBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
		case hg.UniformTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case hg.UniformSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		default:
			return nil, fmt.Errorf("native: uniform %q has unknown type %v", u.Name, u.Type)
		}
		entries = append(entries, e)
	}
	raw, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: info.Label, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %q: %w", info.Label, err)
	}
	return &uniformSetLayout{device: d.device, info: info, raw: raw}, nil
}

// CreatePool implements hg.UniformSetLayout.
func (l *uniformSetLayout) CreatePool(capacity int) (hg.UniformPool, error) {
	if l.dead {
		return nil, hg.ErrDestroyed
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("native: uniform pool capacity %d", capacity)
	}
	return &uniformPool{layout: l, capacity: capacity}, nil
}

// Destroy implements hg.Destroyer.
func (l *uniformSetLayout) Destroy() {
	if l.dead {
		return
	}
	l.dead = true
	l.device.DestroyBindGroupLayout(l.raw)
}

// uniformPool bounds the bind groups of one layout per frame. The HAL
// allocates bind groups individually, so the pool only keeps the budget.
type uniformPool struct {
	layout   *uniformSetLayout
	capacity int
}

// Capacity reports how many sets the pool allocates per frame.
func (p *uniformPool) Capacity() int { return p.capacity }

// Destroy implements hg.Destroyer.
func (p *uniformPool) Destroy() {}

// pipelineLayout is a HAL pipeline layout.
type pipelineLayout struct {
	device hal.Device
	raw    hal.PipelineLayout
	dead   bool
}

// CreatePipelineLayout implements hg.Device.
func (d *Device) CreatePipelineLayout(info hg.PipelineLayoutInfo) (hg.PipelineLayout, error) {
	sets := make([]hal.BindGroupLayout, 0, len(info.Sets))
	for i, s := range info.Sets {
		l, ok := s.(*uniformSetLayout)
		if !ok {
			return nil, fmt.Errorf("%w: uniform set %d is %T", ErrForeignObject, i, s)
		}
		sets = append(sets, l.raw)
	}
	raw, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: info.Label, BindGroupLayouts: sets})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", info.Label, err)
	}
	return &pipelineLayout{device: d.device, raw: raw}, nil
}

// Destroy implements hg.Destroyer.
func (l *pipelineLayout) Destroy() {
	if l.dead {
		return
	}
	l.dead = true
	l.device.DestroyPipelineLayout(l.raw)
}
