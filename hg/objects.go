// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hg

import "github.com/gogpu/gputypes"

// RenderPassInfo is the attachment format pair a render pass is built for.
// A DepthStencil of gputypes.TextureFormatUndefined means the pass has no
// depth/stencil attachment.
type RenderPassInfo struct {
	Color        gputypes.TextureFormat
	DepthStencil gputypes.TextureFormat
}

// HasDepthStencil reports whether the pass has a depth/stencil attachment.
func (i RenderPassInfo) HasDepthStencil() bool {
	return i.DepthStencil != gputypes.TextureFormatUndefined
}

// RenderPass is an attachment layout that pipelines are compiled against.
type RenderPass interface {
	Destroyer
	Info() RenderPassInfo
}

// ShaderLanguage is the language of the sources in a ShaderSetInfo.
type ShaderLanguage uint8

const (
	ShaderWGSL ShaderLanguage = iota
	ShaderGLSL
)

func (l ShaderLanguage) String() string {
	switch l {
	case ShaderWGSL:
		return "wgsl"
	case ShaderGLSL:
		return "glsl"
	default:
		return "unknown"
	}
}

// ShaderSetInfo describes a vertex and fragment stage pair.
type ShaderSetInfo struct {
	Label          string
	Language       ShaderLanguage
	Vertex         string
	Fragment       string
	VertexEntry    string
	FragmentEntry  string
	VertexAttribs  []VertexAttrib
	UniformLayouts []UniformSetLayoutInfo
}

// ShaderSet is a linked vertex and fragment program.
type ShaderSet interface {
	Destroyer

	// VertexAttribs returns the vertex inputs of the set.
	VertexAttribs() []VertexAttrib

	// UniformSetLayoutInfo returns the layout of uniform set index set.
	UniformSetLayoutInfo(set int) (UniformSetLayoutInfo, bool)
}

// UniformType is the kind of resource a uniform binds.
type UniformType uint8

const (
	UniformBuffer UniformType = iota
	UniformTexelBuffer
	UniformTexture
	UniformSampler
)

func (t UniformType) String() string {
	switch t {
	case UniformBuffer:
		return "buffer"
	case UniformTexelBuffer:
		return "texel-buffer"
	case UniformTexture:
		return "texture"
	case UniformSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// UniformInfo is one binding of a uniform set.
type UniformInfo struct {
	Name    string
	Type    UniformType
	Binding uint32
	Stages  gputypes.ShaderStages
}

// UniformSetLayoutInfo lists the bindings of one uniform set.
type UniformSetLayoutInfo struct {
	Label    string
	Uniforms []UniformInfo
}

// UniformSetLayout is the layout of one uniform set.
type UniformSetLayout interface {
	Destroyer

	// CreatePool creates a pool that allocates up to capacity sets per frame.
	CreatePool(capacity int) (UniformPool, error)
}

// UniformPool allocates uniform sets of one layout.
type UniformPool interface {
	Destroyer
}

// PipelineLayoutInfo lists the uniform set layouts of a pipeline.
type PipelineLayoutInfo struct {
	Label string
	Sets  []UniformSetLayout
}

// PipelineLayout is the binding interface of a pipeline.
type PipelineLayout interface {
	Destroyer
}

// VertexAttrib is one vertex shader input.
type VertexAttrib struct {
	Name     string
	Location uint32
	Format   gputypes.VertexFormat
	Offset   uint64
}

// VertexLayout is an interleaved vertex buffer layout.
type VertexLayout struct {
	Stride  uint64
	Attribs []VertexAttrib
}

// PolygonMode selects how triangles are rasterized.
type PolygonMode uint8

const (
	PolygonFill PolygonMode = iota
	PolygonLine
)

// StencilOp is what the stencil test does to the stored value.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilInvert
	StencilIncrementClamp
	StencilDecrementClamp
	StencilIncrementWrap
	StencilDecrementWrap
)

// StencilState configures the stencil test for both faces.
type StencilState struct {
	Compare   gputypes.CompareFunction
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
	ReadMask  uint32
	WriteMask uint32
}

// PipelineState is the fixed-function state of a pipeline.
type PipelineState struct {
	Topology     gputypes.PrimitiveTopology
	Cull         gputypes.CullMode
	FrontFace    gputypes.FrontFace
	Polygon      PolygonMode
	DepthTest    bool
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction
	DepthBias    float32
	Stencil      *StencilState
	Blend        *gputypes.BlendState
	WriteMask    gputypes.ColorWriteMask
	SampleCount  uint32
}

// PipelineInfo describes a pipeline for one render pass.
type PipelineInfo struct {
	Label      string
	Layout     PipelineLayout
	Shaders    ShaderSet
	RenderPass RenderPass
	Vertex     VertexLayout
	State      PipelineState
}

// Pipeline is a compiled graphics pipeline.
type Pipeline interface {
	Destroyer
}

// SamplerInfo is comparable and used directly as a cache key.
type SamplerInfo struct {
	AddressU   gputypes.AddressMode
	AddressV   gputypes.AddressMode
	AddressW   gputypes.AddressMode
	Mag        gputypes.FilterMode
	Min        gputypes.FilterMode
	Mip        gputypes.FilterMode
	MinLod     float32
	MaxLod     float32
	Anisotropy uint16
	Compare    gputypes.CompareFunction
}

// Sampler is a texture sampler.
type Sampler interface {
	Destroyer
}

// BufferInfo describes a GPU buffer.
type BufferInfo struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// Buffer is GPU memory addressed linearly.
type Buffer interface {
	Destroyer
	Size() uint64
}

// TextureInfo describes a 2D texture.
type TextureInfo struct {
	Label   string
	Width   uint32
	Height  uint32
	Layers  uint32
	Mips    uint32
	Samples uint32
	Format  gputypes.TextureFormat
	Usage   gputypes.TextureUsage
}

// Texture is GPU image memory.
type Texture interface {
	Destroyer
	Info() TextureInfo
}

// TextureViewInfo selects a mip range of a texture.
type TextureViewInfo struct {
	Label   string
	Format  gputypes.TextureFormat
	BaseMip uint32
	Mips    uint32
}

// TextureView is a typed window onto a texture.
type TextureView interface {
	Destroyer
}

// Surface is a presentable window target.
type Surface interface {
	Destroyer

	// CreateSwapchain creates a swapchain sized to the window. The old
	// swapchain, if not nil, is retired and destroyed by the surface.
	CreateSwapchain(vsync bool, old Swapchain) (Swapchain, error)
}

// Swapchain is the ring of presentable images of a surface.
type Swapchain interface {
	Destroyer

	// Acquire takes the next image. It returns false when the swapchain is
	// out of date and must be recreated.
	Acquire() bool

	// Present queues the acquired image. It returns false when the
	// swapchain is out of date or suboptimal.
	Present() bool

	Width() int
	Height() int
	Vsync() bool
}
