// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
)

// Default shader entry points.
const (
	DefaultVertexEntry   = "vs_main"
	DefaultFragmentEntry = "fs_main"
)

// uniformPoolCapacity is the number of uniform sets a compiled pipeline's
// pool can hand out per frame.
const uniformPoolCapacity = 256

// RenderPipeline is a logical pipeline description supplied by the client.
//
// A RenderPipeline must not be modified after its first use: the device
// caches the compiled form under the descriptor's pointer.
type RenderPipeline struct {
	Label string

	// Location names the shader for the ShaderSource. VertexSource and
	// FragmentSource, when set, are used instead.
	Location       string
	VertexSource   string
	FragmentSource string
	Language       hg.ShaderLanguage
	VertexEntry    string
	FragmentEntry  string

	Vertex   hg.VertexLayout
	Uniforms []Uniform
	State    hg.PipelineState
}

// Uniform declares one binding of the pipeline's uniform set.
type Uniform struct {
	Name   string
	Type   hg.UniformType
	Stages gputypes.ShaderStages

	// TexelFormat is the element format of a UniformTexelBuffer.
	TexelFormat gputypes.TextureFormat
}

func (p *RenderPipeline) label() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Location
}

func (p *RenderPipeline) uniformLayoutInfo() hg.UniformSetLayoutInfo {
	info := hg.UniformSetLayoutInfo{Label: p.label(), Uniforms: make([]hg.UniformInfo, len(p.Uniforms))}
	for i, u := range p.Uniforms {
		stages := u.Stages
		if stages == 0 {
			stages = gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
		}
		info.Uniforms[i] = hg.UniformInfo{Name: u.Name, Type: u.Type, Binding: uint32(i), Stages: stages}
	}
	return info
}

// CompiledPipeline is the device-side form of a RenderPipeline: its shader
// set, uniform layout and pool, pipeline layout, and one hg.Pipeline per
// render pass it has been used with.
type CompiledPipeline struct {
	dev  *Device
	desc *RenderPipeline

	shaders        hg.ShaderSet
	uniformLayout  hg.UniformSetLayout
	uniformPool    hg.UniformPool
	pipelineLayout hg.PipelineLayout
	texelFormats   map[string]gputypes.TextureFormat

	pipelines map[hg.RenderPass]hg.Pipeline
}

func newCompiledPipeline(d *Device, desc *RenderPipeline, src ShaderSource) (_ *CompiledPipeline, err error) {
	label := desc.label()
	info := hg.ShaderSetInfo{
		Label:          label,
		Language:       desc.Language,
		Vertex:         desc.VertexSource,
		Fragment:       desc.FragmentSource,
		VertexEntry:    desc.VertexEntry,
		FragmentEntry:  desc.FragmentEntry,
		VertexAttribs:  desc.Vertex.Attribs,
		UniformLayouts: []hg.UniformSetLayoutInfo{desc.uniformLayoutInfo()},
	}
	if info.VertexEntry == "" {
		info.VertexEntry = DefaultVertexEntry
	}
	if info.FragmentEntry == "" {
		info.FragmentEntry = DefaultFragmentEntry
	}
	if info.Vertex == "" {
		if info.Vertex, err = d.shaderSource(src, desc.Location, StageVertex); err != nil {
			return nil, err
		}
	}
	if info.Fragment == "" {
		if info.Fragment, err = d.shaderSource(src, desc.Location, StageFragment); err != nil {
			return nil, err
		}
	}

	p := &CompiledPipeline{
		dev:          d,
		desc:         desc,
		texelFormats: make(map[string]gputypes.TextureFormat),
		pipelines:    make(map[hg.RenderPass]hg.Pipeline),
	}
	defer func() {
		if err != nil {
			p.destroy()
		}
	}()

	if p.shaders, err = d.handle.CreateShaderSet(info); err != nil {
		return nil, fmt.Errorf("gpudevice: pipeline %q: create shader set: %w", label, err)
	}
	layoutInfo, ok := p.shaders.UniformSetLayoutInfo(0)
	if !ok {
		layoutInfo = desc.uniformLayoutInfo()
	}
	if p.uniformLayout, err = d.handle.CreateUniformSetLayout(layoutInfo); err != nil {
		return nil, fmt.Errorf("gpudevice: pipeline %q: create uniform layout: %w", label, err)
	}
	if p.uniformPool, err = p.uniformLayout.CreatePool(uniformPoolCapacity); err != nil {
		return nil, fmt.Errorf("gpudevice: pipeline %q: create uniform pool: %w", label, err)
	}
	p.pipelineLayout, err = d.handle.CreatePipelineLayout(hg.PipelineLayoutInfo{
		Label: label,
		Sets:  []hg.UniformSetLayout{p.uniformLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("gpudevice: pipeline %q: create pipeline layout: %w", label, err)
	}

	for _, u := range desc.Uniforms {
		if u.Type == hg.UniformTexelBuffer {
			p.texelFormats[u.Name] = u.TexelFormat
		}
	}
	return p, nil
}

// Descriptor returns the RenderPipeline this was compiled from.
func (p *CompiledPipeline) Descriptor() *RenderPipeline { return p.desc }

// ShaderSet returns the linked shaders.
func (p *CompiledPipeline) ShaderSet() hg.ShaderSet { return p.shaders }

// UniformSetLayout returns the layout of the pipeline's uniform set.
func (p *CompiledPipeline) UniformSetLayout() hg.UniformSetLayout { return p.uniformLayout }

// UniformPool returns the pool uniform sets are allocated from.
func (p *CompiledPipeline) UniformPool() hg.UniformPool { return p.uniformPool }

// Layout returns the pipeline layout.
func (p *CompiledPipeline) Layout() hg.PipelineLayout { return p.pipelineLayout }

// TexelBufferFormat returns the element format of the texel buffer uniform
// name.
func (p *CompiledPipeline) TexelBufferFormat(name string) (gputypes.TextureFormat, bool) {
	f, ok := p.texelFormats[name]
	return f, ok
}

// Variants returns the number of render passes this pipeline has been
// compiled for.
func (p *CompiledPipeline) Variants() int { return len(p.pipelines) }

// Pipeline returns the pipeline compiled for rp, compiling it on first use.
func (p *CompiledPipeline) Pipeline(rp hg.RenderPass) (hg.Pipeline, error) {
	if pl, ok := p.pipelines[rp]; ok {
		return pl, nil
	}
	pl, err := p.dev.handle.CreatePipeline(hg.PipelineInfo{
		Label:      p.desc.label(),
		Layout:     p.pipelineLayout,
		Shaders:    p.shaders,
		RenderPass: rp,
		Vertex:     p.desc.Vertex,
		State:      p.desc.State,
	})
	if err != nil {
		return nil, fmt.Errorf("gpudevice: pipeline %q: compile for %v: %w", p.desc.label(), rp.Info(), err)
	}
	p.pipelines[rp] = pl
	p.dev.log.Debug("gpudevice: pipeline compiled",
		"pipeline", p.desc.label(),
		"color", rp.Info().Color,
		"depthStencil", rp.Info().DepthStencil,
		"variants", len(p.pipelines))
	return pl, nil
}

// destroy releases every per-pass pipeline, then the layouts and shaders.
func (p *CompiledPipeline) destroy() {
	for rp, pl := range p.pipelines {
		pl.Destroy()
		delete(p.pipelines, rp)
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Destroy()
		p.pipelineLayout = nil
	}
	if p.uniformPool != nil {
		p.uniformPool.Destroy()
		p.uniformPool = nil
	}
	if p.uniformLayout != nil {
		p.uniformLayout.Destroy()
		p.uniformLayout = nil
	}
	if p.shaders != nil {
		p.shaders.Destroy()
		p.shaders = nil
	}
}
