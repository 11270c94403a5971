// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpudevice/hg"
)

// pipeline is a HAL render pipeline.
type pipeline struct {
	device hal.Device
	raw    hal.RenderPipeline
	dead   bool
}

// CreatePipeline implements hg.Device.
func (d *Device) CreatePipeline(info hg.PipelineInfo) (hg.Pipeline, error) {
	desc, err := pipelineDescriptor(info)
	if err != nil {
		return nil, err
	}
	raw, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", info.Label, err)
	}
	return &pipeline{device: d.device, raw: raw}, nil
}

// Destroy implements hg.Destroyer.
func (p *pipeline) Destroy() {
	if p.dead {
		return
	}
	p.dead = true
	p.device.DestroyRenderPipeline(p.raw)
}

// pipelineDescriptor translates info into a HAL render pipeline descriptor.
func pipelineDescriptor(info hg.PipelineInfo) (*hal.RenderPipelineDescriptor, error) {
	layout, ok := info.Layout.(*pipelineLayout)
	if !ok {
		return nil, fmt.Errorf("%w: pipeline layout %T", ErrForeignObject, info.Layout)
	}
	shaders, ok := info.Shaders.(*shaderSet)
	if !ok {
		return nil, fmt.Errorf("%w: shader set %T", ErrForeignObject, info.Shaders)
	}
	pass, ok := info.RenderPass.(*renderPass)
	if !ok {
		return nil, fmt.Errorf("%w: render pass %T", ErrForeignObject, info.RenderPass)
	}
	st := info.State
	if st.Polygon != hg.PolygonFill {
		return nil, ErrUnsupportedPolygonMode
	}

	var buffers []gputypes.VertexBufferLayout
	if info.Vertex.Stride > 0 {
		attrs := make([]gputypes.VertexAttribute, 0, len(info.Vertex.Attribs))
		for _, a := range info.Vertex.Attribs {
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         a.Format,
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			})
		}
		buffers = []gputypes.VertexBufferLayout{{
			ArrayStride: info.Vertex.Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		}}
	}

	writeMask := st.WriteMask
	if writeMask == 0 {
		writeMask = gputypes.ColorWriteMaskAll
	}
	desc := &hal.RenderPipelineDescriptor{
		Label:  info.Label,
		Layout: layout.raw,
		Vertex: hal.VertexState{
			Module:     shaders.vertex,
			EntryPoint: shaders.info.VertexEntry,
			Buffers:    buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  st.Topology,
			CullMode:  st.Cull,
			FrontFace: st.FrontFace,
		},
		Multisample: gputypes.MultisampleState{
			Count: max(st.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     shaders.fragment,
			EntryPoint: shaders.info.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    pass.info.Color,
				Blend:     st.Blend,
				WriteMask: writeMask,
			}},
		},
	}

	if pass.info.HasDepthStencil() {
		desc.DepthStencil = depthStencilState(pass.info.DepthStencil, st)
	}
	return desc, nil
}

// depthStencilState builds the depth/stencil state for a pass with a
// depth/stencil attachment. A disabled depth test always passes.
func depthStencilState(format gputypes.TextureFormat, st hg.PipelineState) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:       format,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: keepStencilFace(),
		StencilBack:  keepStencilFace(),
		DepthBias:    int32(st.DepthBias),
	}
	if st.DepthTest {
		ds.DepthCompare = st.DepthCompare
		ds.DepthWriteEnabled = st.DepthWrite
	}
	if s := st.Stencil; s != nil {
		face := hal.StencilFaceState{
			Compare:     s.Compare,
			FailOp:      stencilOperation(s.Fail),
			DepthFailOp: stencilOperation(s.DepthFail),
			PassOp:      stencilOperation(s.Pass),
		}
		ds.StencilFront = face
		ds.StencilBack = face
		ds.StencilReadMask = s.ReadMask
		ds.StencilWriteMask = s.WriteMask
	}
	return ds
}

func keepStencilFace() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

func stencilOperation(op hg.StencilOp) hal.StencilOperation {
	switch op {
	case hg.StencilZero:
		return hal.StencilOperationZero
	case hg.StencilReplace:
		return hal.StencilOperationReplace
	case hg.StencilInvert:
		return hal.StencilOperationInvert
	case hg.StencilIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case hg.StencilDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case hg.StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case hg.StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}
