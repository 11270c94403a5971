// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
)

// pipelineCache holds compiled pipelines by descriptor identity and render
// passes by attachment format pair.
//
// Two RenderPipeline values with identical contents are distinct keys.
type pipelineCache struct {
	compiled map[*RenderPipeline]*CompiledPipeline
	passes   map[uint32]hg.RenderPass

	hits   uint64
	misses uint64
}

// CacheStats reports pipeline cache usage.
type CacheStats struct {
	// Pipelines is the number of compiled pipelines.
	Pipelines int
	// Variants is the number of per-render-pass pipelines across all of them.
	Variants int
	// RenderPasses is the number of cached render passes.
	RenderPasses int

	Hits   uint64
	Misses uint64
}

// HitRate returns the fraction of pipeline lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *pipelineCache) init() {
	c.compiled = make(map[*RenderPipeline]*CompiledPipeline)
	c.passes = make(map[uint32]hg.RenderPass)
}

// renderPassKey packs a format pair. gputypes.TextureFormatUndefined in
// the low half means no depth/stencil attachment.
func renderPassKey(color, depthStencil gputypes.TextureFormat) uint32 {
	return uint32(color)<<16 | uint32(depthStencil)
}

func (c *pipelineCache) destroyRenderPasses() {
	for key, rp := range c.passes {
		rp.Destroy()
		delete(c.passes, key)
	}
}

// Pipeline returns the compiled form of desc, compiling it on first use.
// Shader sources come from the device ShaderSource.
func (d *Device) Pipeline(desc *RenderPipeline) (*CompiledPipeline, error) {
	return d.pipeline(desc, nil)
}

// pipeline returns the compiled form of desc, loading sources from src, or
// from the device source when src is nil.
func (d *Device) pipeline(desc *RenderPipeline, src ShaderSource) (*CompiledPipeline, error) {
	if desc == nil {
		return nil, ErrNilDescriptor
	}
	if err := d.usable(); err != nil {
		return nil, err
	}
	if p, ok := d.cache.compiled[desc]; ok {
		d.cache.hits++
		return p, nil
	}
	d.cache.misses++
	p, err := newCompiledPipeline(d, desc, src)
	if err != nil {
		return nil, err
	}
	d.cache.compiled[desc] = p
	d.log.Debug("gpudevice: pipeline created", "pipeline", desc.label(), "cached", len(d.cache.compiled))
	return p, nil
}

// RenderPass returns the render pass for a color format and an optional
// depth/stencil format, creating it on first use. Render passes live until
// the device is closed.
func (d *Device) RenderPass(color, depthStencil gputypes.TextureFormat) (hg.RenderPass, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	key := renderPassKey(color, depthStencil)
	if rp, ok := d.cache.passes[key]; ok {
		return rp, nil
	}
	rp, err := d.handle.CreateRenderPass(hg.RenderPassInfo{Color: color, DepthStencil: depthStencil})
	if err != nil {
		return nil, fmt.Errorf("gpudevice: create render pass %v/%v: %w", color, depthStencil, err)
	}
	d.cache.passes[key] = rp
	d.log.Debug("gpudevice: render pass created", "color", color, "depthStencil", depthStencil)
	return rp, nil
}

// PrecompilePipeline compiles desc ahead of first use against the
// representative render pass set by WithPrecompileFormats. It surfaces
// shader and state errors early; the pipeline is still compiled again for
// each other render pass it is used with.
func (d *Device) PrecompilePipeline(desc *RenderPipeline, src ShaderSource) error {
	defer d.guard.enter()()
	p, err := d.pipeline(desc, src)
	if err != nil {
		return err
	}
	rp, err := d.RenderPass(d.opts.precompile[0], d.opts.precompile[1])
	if err != nil {
		return err
	}
	_, err = p.Pipeline(rp)
	return err
}

// ClearPipelineCache waits for the GPU to go idle, then destroys every
// compiled pipeline. Render passes are kept. Clearing an empty cache only
// waits.
func (d *Device) ClearPipelineCache() error {
	defer d.guard.enter()()
	if err := d.usable(); err != nil {
		return err
	}
	return d.clearPipelineCache()
}

func (d *Device) clearPipelineCache() error {
	if err := d.handle.WaitIdle(); err != nil {
		return fmt.Errorf("gpudevice: clear pipeline cache: %w", err)
	}
	n := len(d.cache.compiled)
	for desc, p := range d.cache.compiled {
		p.destroy()
		delete(d.cache.compiled, desc)
	}
	if n > 0 {
		d.log.Debug("gpudevice: pipeline cache cleared", "pipelines", n)
	}
	return nil
}

// CacheStats returns pipeline cache statistics.
func (d *Device) CacheStats() CacheStats {
	s := CacheStats{
		Pipelines:    len(d.cache.compiled),
		RenderPasses: len(d.cache.passes),
		Hits:         d.cache.hits,
		Misses:       d.cache.misses,
	}
	for _, p := range d.cache.compiled {
		s.Variants += p.Variants()
	}
	return s
}
