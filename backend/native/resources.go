// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpudevice/hg"
)

// renderPass is an attachment format pair. HAL render passes are begun
// per command buffer, so there is nothing to create up front.
type renderPass struct {
	info hg.RenderPassInfo
}

// CreateRenderPass implements hg.Device.
func (d *Device) CreateRenderPass(info hg.RenderPassInfo) (hg.RenderPass, error) {
	if info.Color == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("native: render pass without a color format")
	}
	return &renderPass{info: info}, nil
}

func (p *renderPass) Info() hg.RenderPassInfo { return p.info }
func (p *renderPass) Destroy()                {}

// sampler is a HAL sampler.
type sampler struct {
	device hal.Device
	raw    hal.Sampler
	once   sync.Once
}

// CreateSampler implements hg.Device. Anisotropy below 1 is treated as 1.
func (d *Device) CreateSampler(info hg.SamplerInfo) (hg.Sampler, error) {
	raw, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gpudevice sampler",
		AddressModeU: info.AddressU,
		AddressModeV: info.AddressV,
		AddressModeW: info.AddressW,
		MagFilter:    info.Mag,
		MinFilter:    info.Min,
		MipmapFilter: info.Mip,
		LodMinClamp:  info.MinLod,
		LodMaxClamp:  info.MaxLod,
		Compare:      info.Compare,
		Anisotropy:   max(info.Anisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return &sampler{device: d.device, raw: raw}, nil
}

// Destroy implements hg.Destroyer.
func (s *sampler) Destroy() {
	s.once.Do(func() { s.device.DestroySampler(s.raw) })
}

// buffer is a HAL buffer. Its handle is read from the cleanup goroutine's
// destroys and the frame goroutine's writes, so it is guarded.
type buffer struct {
	device hal.Device
	size   uint64

	mu  sync.Mutex
	raw hal.Buffer
}

// CreateBuffer implements hg.Device.
func (d *Device) CreateBuffer(info hg.BufferInfo) (hg.Buffer, error) {
	if info.Size == 0 {
		return nil, fmt.Errorf("native: buffer %q has zero size", info.Label)
	}
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: info.Label,
		Size:  info.Size,
		Usage: info.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", info.Label, err)
	}
	return &buffer{device: d.device, size: info.Size, raw: raw}, nil
}

func (b *buffer) Size() uint64 { return b.size }

func (b *buffer) handle() (hal.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.raw == nil {
		return nil, hg.ErrDestroyed
	}
	return b.raw, nil
}

// Destroy implements hg.Destroyer.
func (b *buffer) Destroy() {
	b.mu.Lock()
	raw := b.raw
	b.raw = nil
	b.mu.Unlock()
	if raw != nil {
		b.device.DestroyBuffer(raw)
	}
}

// texture is a 2D HAL texture.
type texture struct {
	device hal.Device
	info   hg.TextureInfo
	raw    hal.Texture
	once   sync.Once
}

// CreateTexture implements hg.Device.
func (d *Device) CreateTexture(info hg.TextureInfo) (hg.Texture, error) {
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: info.Label,
		Size: hal.Extent3D{
			Width:              info.Width,
			Height:             info.Height,
			DepthOrArrayLayers: max(info.Layers, 1),
		},
		MipLevelCount: max(info.Mips, 1),
		SampleCount:   max(info.Samples, 1),
		Dimension:     gputypes.TextureDimension2D,
		Format:        info.Format,
		Usage:         info.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", info.Label, err)
	}
	return &texture{device: d.device, info: info, raw: raw}, nil
}

func (t *texture) Info() hg.TextureInfo { return t.info }

// Destroy implements hg.Destroyer.
func (t *texture) Destroy() {
	t.once.Do(func() { t.device.DestroyTexture(t.raw) })
}

// textureView is a HAL texture view over a mip range.
type textureView struct {
	device hal.Device
	raw    hal.TextureView
	once   sync.Once
}

// CreateTextureView implements hg.Device.
func (d *Device) CreateTextureView(tex hg.Texture, info hg.TextureViewInfo) (hg.TextureView, error) {
	t, ok := tex.(*texture)
	if !ok {
		return nil, fmt.Errorf("%w: texture %T", ErrForeignObject, tex)
	}
	format := info.Format
	if format == gputypes.TextureFormatUndefined {
		format = t.info.Format
	}
	raw, err := d.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:           info.Label,
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    info.BaseMip,
		MipLevelCount:   info.Mips,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture view %q: %w", info.Label, err)
	}
	return &textureView{device: d.device, raw: raw}, nil
}

// Destroy implements hg.Destroyer.
func (v *textureView) Destroy() {
	v.once.Do(func() { v.device.DestroyTextureView(v.raw) })
}
