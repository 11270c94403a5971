// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/internal/frame"
)

// CommandEncoder accumulates a frame's work and hands it to the queue.
type CommandEncoder interface {
	// InsertQueueItem appends a synchronization item after the work
	// recorded so far.
	InsertQueueItem(item hg.QueueItem) error

	// Flush submits everything recorded since the last Flush.
	Flush() error

	// ResetUploadBuffer starts a new frame's upload space. The space of
	// the frame MaxFramesInFlight ago is reused.
	ResetUploadBuffer()

	// SetupTexture prepares a new texture for use before any work that
	// samples it.
	SetupTexture(tex hg.Texture) error

	// Destroy releases the encoder's GPU resources.
	Destroy()
}

// uploader is implemented by encoders that suballocate per-frame data.
type uploader interface {
	Upload(data []byte, align uint64) (hg.Buffer, uint64, error)
}

const defaultUploadAlignment = 256

// uploadArena is one frame's linear upload buffer.
type uploadArena struct {
	buf  hg.Buffer
	used uint64
}

// queueEncoder is the built-in CommandEncoder. It forwards queue items in
// order and keeps one upload arena per frame slot.
type queueEncoder struct {
	dev   *Device
	queue hg.Queue
	items []hg.QueueItem

	arenas [frame.MaxFramesInFlight]uploadArena
	slot   int
	chunk  uint64
	align  uint64
}

func newQueueEncoder(d *Device, chunk uint64) *queueEncoder {
	align := uint64(d.props.UBOAlignment)
	if align == 0 {
		align = defaultUploadAlignment
	}
	return &queueEncoder{
		dev:   d,
		queue: d.handle.Queue(),
		chunk: chunk,
		align: align,
		slot:  frame.Slot(d.pacer.Current()),
	}
}

func (e *queueEncoder) InsertQueueItem(item hg.QueueItem) error {
	e.items = append(e.items, item)
	return nil
}

func (e *queueEncoder) Flush() error {
	if len(e.items) == 0 {
		return nil
	}
	items := e.items
	e.items = e.items[:0]
	if err := e.queue.Submit(items...); err != nil {
		return fmt.Errorf("gpudevice: submit %d items: %w", len(items), err)
	}
	return nil
}

func (e *queueEncoder) ResetUploadBuffer() {
	e.slot = (e.slot + 1) % frame.MaxFramesInFlight
	e.arenas[e.slot].used = 0
}

func (e *queueEncoder) SetupTexture(tex hg.Texture) error {
	e.items = append(e.items, hg.PrepareTexture(tex))
	return nil
}

// Upload copies data into the current frame's arena and returns the arena
// buffer and the offset of the copy. An arena that is too small is replaced
// by one twice its size; the old one is released with the frame.
func (e *queueEncoder) Upload(data []byte, align uint64) (hg.Buffer, uint64, error) {
	if align == 0 {
		align = e.align
	}
	a := &e.arenas[e.slot]
	off := alignUp(a.used, align)
	end := off + uint64(len(data))
	if a.buf == nil || end > a.buf.Size() {
		size := max(e.chunk, 1)
		if a.buf != nil {
			size = a.buf.Size() * 2
		}
		for size < uint64(len(data)) {
			size *= 2
		}
		buf, err := e.dev.handle.CreateBuffer(hg.BufferInfo{
			Label: fmt.Sprintf("upload arena %d", e.slot),
			Size:  size,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageIndex |
				gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("gpudevice: grow upload arena to %d bytes: %w", size, err)
		}
		if a.buf != nil {
			e.dev.DestroyEndOfFrame(a.buf)
		}
		a.buf, a.used = buf, 0
		off, end = 0, uint64(len(data))
	}
	if err := e.queue.WriteBuffer(a.buf, off, data); err != nil {
		return nil, 0, fmt.Errorf("gpudevice: upload %d bytes: %w", len(data), err)
	}
	a.used = end
	return a.buf, off, nil
}

func (e *queueEncoder) Destroy() {
	for i := range e.arenas {
		if e.arenas[i].buf != nil {
			e.arenas[i].buf.Destroy()
			e.arenas[i].buf = nil
		}
	}
	e.items = nil
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}
