// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
)

// minSamplerMaxLod is the smallest max LOD a sampler is created with.
const minSamplerMaxLod = 0.25

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	// Layers defaults to 1.
	Layers uint32
	// Mips defaults to 1. It may not exceed MaxMipLevels(Width, Height).
	Mips    uint32
	Samples uint32
	Format  gputypes.TextureFormat
	// Usage defaults to sampling and copy destination.
	Usage gputypes.TextureUsage
}

// MaxMipLevels returns the length of the full mip chain of a width x height
// texture: floor(log2(max(width, height))) + 1.
func MaxMipLevels(width, height uint32) uint32 {
	return uint32(bits.Len32(max(width, height)))
}

// Texture is a device texture. Destroy defers the release to the end of
// the frames that may still sample it.
type Texture struct {
	dev       *Device
	tex       hg.Texture
	info      hg.TextureInfo
	destroyed bool
}

// CreateTexture creates a texture and prepares it for sampling.
func (d *Device) CreateTexture(desc TextureDesc) (*Texture, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidSize, desc.Label, desc.Width, desc.Height)
	}
	if limit := d.props.MaxTexture2DSize; limit > 0 && (desc.Width > limit || desc.Height > limit) {
		return nil, fmt.Errorf("%w: texture %q is %dx%d, device maximum is %d",
			ErrInvalidSize, desc.Label, desc.Width, desc.Height, limit)
	}

	info := hg.TextureInfo{
		Label:   desc.Label,
		Width:   desc.Width,
		Height:  desc.Height,
		Layers:  max(desc.Layers, 1),
		Mips:    max(desc.Mips, 1),
		Samples: max(desc.Samples, 1),
		Format:  desc.Format,
		Usage:   desc.Usage,
	}
	if limit := MaxMipLevels(desc.Width, desc.Height); info.Mips > limit {
		return nil, fmt.Errorf("%w: texture %q is %dx%d with %d mips, at most %d",
			ErrInvalidMipLevels, desc.Label, desc.Width, desc.Height, info.Mips, limit)
	}
	if info.Usage == 0 {
		info.Usage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	}

	tex, err := d.handle.CreateTexture(info)
	if err != nil {
		return nil, fmt.Errorf("gpudevice: create texture %q: %w", desc.Label, err)
	}
	if err := d.encoder.SetupTexture(tex); err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("gpudevice: set up texture %q: %w", desc.Label, err)
	}
	return &Texture{dev: d, tex: tex, info: info}, nil
}

// Handle returns the underlying texture.
func (t *Texture) Handle() hg.Texture { return t.tex }

// Label returns the texture label.
func (t *Texture) Label() string { return t.info.Label }

// Width returns the width of mip level 0.
func (t *Texture) Width() uint32 { return t.info.Width }

// Height returns the height of mip level 0.
func (t *Texture) Height() uint32 { return t.info.Height }

// Mips returns the mip level count.
func (t *Texture) Mips() uint32 { return t.info.Mips }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.info.Format }

// IsDestroyed reports whether Destroy was called.
func (t *Texture) IsDestroyed() bool { return t.destroyed }

// Destroy releases the texture at the end of the frames that may use it.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.dev.DestroyEndOfFrame(t.tex)
}

// TextureView is a view of a mip range of a Texture.
type TextureView struct {
	dev       *Device
	tex       *Texture
	view      hg.TextureView
	destroyed bool
}

// CreateTextureView creates a view of all mip levels of tex.
func (d *Device) CreateTextureView(tex *Texture) (*TextureView, error) {
	return d.CreateTextureViewRange(tex, 0, tex.Mips())
}

// CreateTextureViewRange creates a view of mips levels of tex starting at
// baseMip.
func (d *Device) CreateTextureViewRange(tex *Texture, baseMip, mips uint32) (*TextureView, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if mips == 0 || baseMip+mips > tex.Mips() {
		return nil, fmt.Errorf("%w: view of %q mips [%d, %d) outside [0, %d)",
			ErrInvalidMipLevels, tex.Label(), baseMip, baseMip+mips, tex.Mips())
	}
	view, err := d.handle.CreateTextureView(tex.tex, hg.TextureViewInfo{
		Label:   tex.Label(),
		Format:  tex.Format(),
		BaseMip: baseMip,
		Mips:    mips,
	})
	if err != nil {
		return nil, fmt.Errorf("gpudevice: create view of %q: %w", tex.Label(), err)
	}
	return &TextureView{dev: d, tex: tex, view: view}, nil
}

// Handle returns the underlying view.
func (v *TextureView) Handle() hg.TextureView { return v.view }

// Texture returns the viewed texture.
func (v *TextureView) Texture() *Texture { return v.tex }

// Destroy releases the view at the end of the frames that may use it.
func (v *TextureView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.dev.DestroyEndOfFrame(v.view)
}

// SamplerDesc describes a sampler. The zero value is a nearest-filtering,
// repeating sampler with no mips.
type SamplerDesc struct {
	AddressU gputypes.AddressMode
	AddressV gputypes.AddressMode
	AddressW gputypes.AddressMode

	Mag gputypes.FilterMode
	Min gputypes.FilterMode
	Mip gputypes.FilterMode

	MinLod float32
	MaxLod float32

	// Anisotropy above 1 enables anisotropic filtering.
	Anisotropy float32

	// Compare enables depth comparison unless it is Undefined or Always.
	Compare gputypes.CompareFunction
}

// Sampler is a device-owned sampler. Samplers are shared between equal
// descriptors and released by Close.
type Sampler struct {
	s    hg.Sampler
	info hg.SamplerInfo
}

// Handle returns the underlying sampler.
func (s *Sampler) Handle() hg.Sampler { return s.s }

// Info returns the translated sampler state.
func (s *Sampler) Info() hg.SamplerInfo { return s.info }

// samplerInfo translates desc into device sampler state.
func (d *Device) samplerInfo(desc SamplerDesc) hg.SamplerInfo {
	info := hg.SamplerInfo{
		AddressU:   desc.AddressU,
		AddressV:   desc.AddressV,
		AddressW:   desc.AddressW,
		Mag:        desc.Mag,
		Min:        desc.Min,
		Mip:        desc.Mip,
		MinLod:     max(desc.MinLod, 0),
		MaxLod:     max(desc.MaxLod, minSamplerMaxLod),
		Anisotropy: 1,
	}
	if desc.Anisotropy > 1 {
		a := desc.Anisotropy
		if d.opts.samplerLimits && d.props.MaxAnisotropy > 0 {
			a = min(a, d.props.MaxAnisotropy)
		}
		info.Anisotropy = uint16(a)
	}
	if desc.Compare != gputypes.CompareFunctionAlways {
		info.Compare = desc.Compare
	}
	return info
}

// CreateSampler returns the sampler for desc, creating it on first use.
func (d *Device) CreateSampler(desc SamplerDesc) (*Sampler, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	info := d.samplerInfo(desc)
	if s, ok := d.samplers[info]; ok {
		return s, nil
	}
	hs, err := d.handle.CreateSampler(info)
	if err != nil {
		return nil, fmt.Errorf("gpudevice: create sampler: %w", err)
	}
	s := &Sampler{s: hs, info: info}
	d.samplers[info] = s
	return s, nil
}
