// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
)

// ImmediateVertexPrefix marks buffers that hold one frame's vertices.
// CreateBufferWithData places them in the frame's upload space instead of
// allocating a device buffer, and they expire at the end of the frame.
const ImmediateVertexPrefix = "Immediate vertex buffer"

// ErrImmediateBuffer is returned when writing to or reading past the frame
// of an immediate buffer.
var ErrImmediateBuffer = errors.New("gpudevice: immediate buffer is read-only and frame-local")

// Buffer is a device buffer, or a range of the frame upload space for
// immediate buffers.
type Buffer struct {
	dev       *Device
	buf       hg.Buffer
	offset    uint64
	size      uint64
	label     string
	usage     gputypes.BufferUsage
	owned     bool
	immediate bool
	destroyed bool
}

// Handle returns the buffer holding the data. For an immediate buffer this
// is shared upload space and Offset locates the data in it.
func (b *Buffer) Handle() hg.Buffer { return b.buf }

// Offset returns the byte offset of the data in Handle.
func (b *Buffer) Offset() uint64 { return b.offset }

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Label returns the buffer label.
func (b *Buffer) Label() string { return b.label }

// Usage returns the usage the buffer was created with.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Immediate reports whether the buffer expires at the end of its frame.
func (b *Buffer) Immediate() bool { return b.immediate }

// IsDestroyed reports whether the buffer was destroyed or has expired.
func (b *Buffer) IsDestroyed() bool { return b.destroyed }

// Write copies data into the buffer at offset.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.immediate {
		return fmt.Errorf("%w: %q", ErrImmediateBuffer, b.label)
	}
	if b.destroyed {
		return fmt.Errorf("gpudevice: write to %q: %w", b.label, hg.ErrDestroyed)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d into %q of %d bytes",
			ErrInvalidSize, len(data), offset, b.label, b.size)
	}
	if err := b.dev.handle.Queue().WriteBuffer(b.buf, b.offset+offset, data); err != nil {
		return fmt.Errorf("gpudevice: write to %q: %w", b.label, err)
	}
	return nil
}

// Destroy releases the buffer at the end of the frames that may use it.
// Immediate buffers expire on their own; destroying one early is allowed.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.owned {
		delete(b.dev.buffers.live, b)
		b.dev.DestroyEndOfFrame(b.buf)
	}
}

// bufferManager tracks device buffers so Close can release the ones the
// client never destroyed, and expires immediate buffers each frame.
type bufferManager struct {
	dev        *Device
	live       map[*Buffer]struct{}
	immediates []*Buffer
}

func newBufferManager(d *Device) *bufferManager {
	return &bufferManager{dev: d, live: make(map[*Buffer]struct{})}
}

// CreateBuffer creates a device buffer of size bytes. CopyDst is always
// added to usage so the buffer can be written.
func (d *Device) CreateBuffer(label string, usage gputypes.BufferUsage, size uint64) (*Buffer, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	return d.buffers.create(label, usage, size)
}

// CreateBufferWithData creates a buffer holding data. Vertex buffers whose
// label starts with ImmediateVertexPrefix are immediate.
func (d *Device) CreateBufferWithData(label string, usage gputypes.BufferUsage, data []byte) (*Buffer, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(label, ImmediateVertexPrefix) && usage&gputypes.BufferUsageVertex != 0 {
		return d.buffers.createImmediate(label, usage, data)
	}
	b, err := d.buffers.create(label, usage, uint64(len(data)))
	if err != nil {
		return nil, err
	}
	if err := b.Write(0, data); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

func (m *bufferManager) create(label string, usage gputypes.BufferUsage, size uint64) (*Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has size 0", ErrInvalidSize, label)
	}
	usage |= gputypes.BufferUsageCopyDst
	buf, err := m.dev.handle.CreateBuffer(hg.BufferInfo{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("gpudevice: create buffer %q: %w", label, err)
	}
	b := &Buffer{dev: m.dev, buf: buf, size: size, label: label, usage: usage, owned: true}
	m.live[b] = struct{}{}
	return b, nil
}

// createImmediate places data in the encoder's upload space. Encoders
// without upload space get a device buffer that is released with the frame.
func (m *bufferManager) createImmediate(label string, usage gputypes.BufferUsage, data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: buffer %q has size 0", ErrInvalidSize, label)
	}
	var b *Buffer
	if up, ok := m.dev.encoder.(uploader); ok {
		buf, off, err := up.Upload(data, 0)
		if err != nil {
			return nil, fmt.Errorf("gpudevice: create buffer %q: %w", label, err)
		}
		b = &Buffer{dev: m.dev, buf: buf, offset: off, size: uint64(len(data)), label: label, usage: usage}
	} else {
		var err error
		if b, err = m.create(label, usage, uint64(len(data))); err != nil {
			return nil, err
		}
		if err := m.dev.handle.Queue().WriteBuffer(b.buf, 0, data); err != nil {
			b.Destroy()
			return nil, fmt.Errorf("gpudevice: write to %q: %w", label, err)
		}
	}
	b.immediate = true
	m.immediates = append(m.immediates, b)
	return b, nil
}

// endOfFrame expires this frame's immediate buffers.
func (m *bufferManager) endOfFrame() {
	for i, b := range m.immediates {
		b.Destroy()
		m.immediates[i] = nil
	}
	m.immediates = m.immediates[:0]
}

// destroy releases every buffer the client has not destroyed. It runs after
// the device has drained, so the releases are immediate.
func (m *bufferManager) destroy() {
	for b := range m.live {
		b.Destroy()
	}
	m.immediates = nil
}
