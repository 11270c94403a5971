// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpudevice/hg"
)

// pollInterval bounds one sleep while a GPU value is outstanding so host
// signals and destroys are noticed.
const pollInterval = 5 * time.Millisecond

// submission ties a queue-signaled value to the HAL submission index that
// reaches it.
type submission struct {
	value uint64
	index uint64
}

// semaphore is a timeline semaphore. Host signals raise host directly.
// Queue signals are recorded in pending with their submission index; a
// value is known reached once host covers it or the queue reports the
// matching submission completed.
type semaphore struct {
	q *queue

	mu        sync.Mutex
	host      uint64
	pending   []submission
	changed   chan struct{}
	destroyed bool
}

func newSemaphore(q *queue, initial uint64) (*semaphore, error) {
	return &semaphore{q: q, host: initial, changed: make(chan struct{})}, nil
}

// notify wakes every waiter. Callers hold s.mu.
func (s *semaphore) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Signal implements hg.Semaphore.
func (s *semaphore) Signal(value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return hg.ErrDestroyed
	}
	if value > s.host {
		s.host = value
		s.notify()
	}
	return nil
}

// markSubmitted records that the GPU reaches value once submission index
// completes.
func (s *semaphore) markSubmitted(value, index uint64) {
	s.mu.Lock()
	s.pending = append(s.pending, submission{value: value, index: index})
	s.notify()
	s.mu.Unlock()
}

// advance raises host to every value whose submission has completed and
// reports whether some pending submission still covers value. Callers
// hold s.mu.
func (s *semaphore) advance(completed, value uint64) (onGPU bool) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.index <= completed {
			if p.value > s.host {
				s.host = p.value
				s.notify()
			}
			continue
		}
		if p.value >= value {
			onGPU = true
		}
		kept = append(kept, p)
	}
	clear(s.pending[len(kept):])
	s.pending = kept
	return onGPU
}

// Wait implements hg.Semaphore.
func (s *semaphore) Wait(value uint64, timeout time.Duration) (bool, error) {
	var deadline time.Time
	if timeout != hg.Forever {
		deadline = time.Now().Add(timeout)
	}
	remaining := func() time.Duration {
		if deadline.IsZero() {
			return pollInterval
		}
		return time.Until(deadline)
	}

	for {
		completed := s.q.completed()
		s.mu.Lock()
		if s.destroyed {
			s.mu.Unlock()
			return false, hg.ErrDestroyed
		}
		onGPU := s.advance(completed, value)
		if s.host >= value {
			s.mu.Unlock()
			return true, nil
		}
		changed := s.changed
		s.mu.Unlock()

		left := remaining()
		if left <= 0 {
			return false, nil
		}
		if onGPU {
			left = min(left, pollInterval)
		}
		timer := time.NewTimer(left)
		select {
		case <-changed:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// Destroy implements hg.Destroyer.
func (s *semaphore) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.pending = nil
	s.notify()
}

// inflight is a command buffer the GPU may still be executing.
type inflight struct {
	cmd   hal.CommandBuffer
	index uint64
}

// queue is the hg.Queue of a Device. Every HAL submission is serialized
// by mu, so the single HAL queue executes items in the order they were
// given.
type queue struct {
	device hal.Device
	raw    hal.Queue

	mu       sync.Mutex
	pending  []hal.TextureBarrier
	inflight []inflight
}

func newQueue(device hal.Device, raw hal.Queue) (*queue, error) {
	return &queue{device: device, raw: raw}, nil
}

// completed returns the highest submission index the GPU has finished.
func (q *queue) completed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.raw.PollCompleted()
}

// Submit implements hg.Queue.
//
// Texture preparations are batched into one barrier command buffer that
// is submitted with the next signal. Waits need no HAL work: the queue is
// in-order, so anything submitted later already follows the work that
// signals the awaited value.
func (q *queue) Submit(items ...hg.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaim()

	for _, it := range items {
		switch it.Kind {
		case hg.QueuePrepareTexture:
			tex, ok := it.Texture.(*texture)
			if !ok {
				return fmt.Errorf("%w: texture %T", ErrForeignObject, it.Texture)
			}
			q.pending = append(q.pending, hal.TextureBarrier{
				Texture: tex.raw,
				Usage: hal.TextureUsageTransition{
					OldUsage: 0,
					NewUsage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
				},
			})
		case hg.QueueWait:
			if _, ok := it.Semaphore.(*semaphore); !ok {
				return fmt.Errorf("%w: semaphore %T", ErrForeignObject, it.Semaphore)
			}
		case hg.QueueSignal:
			sem, ok := it.Semaphore.(*semaphore)
			if !ok {
				return fmt.Errorf("%w: semaphore %T", ErrForeignObject, it.Semaphore)
			}
			index, err := q.submit("signal")
			if err != nil {
				return err
			}
			sem.markSubmitted(it.Value, index)
		default:
			return fmt.Errorf("native: unknown queue item %v", it.Kind)
		}
	}

	if len(q.pending) > 0 {
		_, err := q.submit("prepare")
		return err
	}
	return nil
}

// submit encodes the pending barriers into a command buffer, submits it
// and returns its submission index. Callers hold q.mu.
func (q *queue) submit(label string) (uint64, error) {
	encoder, err := q.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return 0, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return 0, fmt.Errorf("begin encoding: %w", err)
	}
	if len(q.pending) > 0 {
		encoder.TransitionTextures(q.pending)
		q.pending = nil
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return 0, fmt.Errorf("end encoding: %w", err)
	}
	index, err := q.raw.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		q.device.FreeCommandBuffer(cmd)
		return 0, fmt.Errorf("submit: %w", err)
	}
	q.inflight = append(q.inflight, inflight{cmd: cmd, index: index})
	return index, nil
}

// reclaim frees command buffers the GPU has finished. Callers hold q.mu.
func (q *queue) reclaim() {
	if len(q.inflight) == 0 {
		return
	}
	done := q.raw.PollCompleted()
	kept := q.inflight[:0]
	for _, f := range q.inflight {
		if f.index <= done {
			q.device.FreeCommandBuffer(f.cmd)
			continue
		}
		kept = append(kept, f)
	}
	clear(q.inflight[len(kept):])
	q.inflight = kept
}

// WriteBuffer implements hg.Queue.
func (q *queue) WriteBuffer(buf hg.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*buffer)
	if !ok {
		return fmt.Errorf("%w: buffer %T", ErrForeignObject, buf)
	}
	raw, err := b.handle()
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("native: write of %d bytes at %d overflows buffer of %d", len(data), offset, b.size)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.raw.WriteBuffer(raw, offset, data); err != nil {
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

// waitIdle submits an empty command buffer and waits for it.
func (q *queue) waitIdle(timeout time.Duration) error {
	q.mu.Lock()
	index, err := q.submit("idle")
	q.mu.Unlock()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for q.completed() < index {
		if !time.Now().Before(deadline) {
			return ErrIdleTimeout
		}
		time.Sleep(min(pollInterval, time.Until(deadline)))
	}
	q.mu.Lock()
	q.reclaim()
	q.mu.Unlock()
	return nil
}

// destroy frees the remaining command buffers.
func (q *queue) destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, f := range q.inflight {
		q.device.FreeCommandBuffer(f.cmd)
	}
	q.inflight = nil
}
