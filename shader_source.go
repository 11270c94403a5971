// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"
	"io/fs"
)

// ShaderStage is a programmable pipeline stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
)

// String returns the short stage name used in shader file names.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageFragment:
		return "frag"
	default:
		return "unknown"
	}
}

// ShaderSource loads the source of one stage of the shader at location.
type ShaderSource interface {
	ShaderSource(location string, stage ShaderStage) (string, error)
}

// ShaderSourceFunc adapts a function to ShaderSource.
type ShaderSourceFunc func(location string, stage ShaderStage) (string, error)

// ShaderSource calls f.
func (f ShaderSourceFunc) ShaderSource(location string, stage ShaderStage) (string, error) {
	return f(location, stage)
}

// FSShaderSource loads "<location>.<stage>.<ext>" from fsys, e.g.
// "core/rendertype_solid.vert.wgsl".
func FSShaderSource(fsys fs.FS, ext string) ShaderSource {
	return ShaderSourceFunc(func(location string, stage ShaderStage) (string, error) {
		name := fmt.Sprintf("%s.%s.%s", location, stage, ext)
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrNoShaderSource, name, err)
		}
		return string(b), nil
	})
}

type shaderKey struct {
	location string
	stage    ShaderStage
}

// shaderSource returns the source for location and stage from src, or the
// device source when src is nil. Sources loaded through the device source
// are cached for the device lifetime.
func (d *Device) shaderSource(src ShaderSource, location string, stage ShaderStage) (string, error) {
	if src != nil {
		return src.ShaderSource(location, stage)
	}
	key := shaderKey{location: location, stage: stage}
	if s, ok := d.sources[key]; ok {
		return s, nil
	}
	if d.opts.shaders == nil {
		return "", fmt.Errorf("%w: %s (%s): no shader source configured", ErrNoShaderSource, location, stage)
	}
	s, err := d.opts.shaders.ShaderSource(location, stage)
	if err != nil {
		return "", err
	}
	d.sources[key] = s
	return s, nil
}
