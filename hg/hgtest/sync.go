// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hgtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpudevice/hg"
)

// Semaphore is a fake timeline semaphore backed by a condition variable.
type Semaphore struct {
	dev  *Device
	id   int
	mu   sync.Mutex
	cond *sync.Cond

	value     uint64
	destroyed bool
	err       error
}

var semaphoreIDs struct {
	sync.Mutex
	next int
}

func newSemaphore(d *Device, initial uint64) *Semaphore {
	semaphoreIDs.Lock()
	semaphoreIDs.next++
	id := semaphoreIDs.next
	semaphoreIDs.Unlock()

	s := &Semaphore{dev: d, id: id, value: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Value returns the current counter.
func (s *Semaphore) Value() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Fail makes every current and future Wait return err.
func (s *Semaphore) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Signal implements hg.Semaphore.
func (s *Semaphore) Signal(value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return hg.ErrDestroyed
	}
	if value > s.value {
		s.value = value
	}
	s.cond.Broadcast()
	return nil
}

// Wait implements hg.Semaphore.
func (s *Semaphore) Wait(value uint64, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired bool
	if timeout != hg.Forever {
		timer := time.AfterFunc(timeout, func() {
			s.mu.Lock()
			expired = true
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		defer timer.Stop()
	}
	for s.value < value && !s.destroyed && s.err == nil && !expired {
		s.cond.Wait()
	}
	switch {
	case s.err != nil:
		return false, s.err
	case s.destroyed:
		return false, hg.ErrDestroyed
	}
	return s.value >= value, nil
}

// Destroy implements hg.Destroyer.
func (s *Semaphore) Destroy() {
	s.mu.Lock()
	already := s.destroyed
	s.destroyed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.dev.recordDestroy(KindSemaphore, fmt.Sprintf("semaphore#%d", s.id), already)
}

// Queue is the fake submission queue.
type Queue struct {
	dev *Device
}

// Submit implements hg.Queue.
func (q *Queue) Submit(items ...hg.QueueItem) error {
	d := q.dev
	for _, it := range items {
		switch it.Kind {
		case hg.QueueSignal:
			if it.Semaphore == nil {
				return fmt.Errorf("hgtest: signal without semaphore")
			}
			d.mu.Lock()
			if d.manual {
				d.pending = append(d.pending, pendingSignal{sem: it.Semaphore, value: it.Value})
				if len(d.pending) > d.maxPending {
					d.maxPending = len(d.pending)
				}
				d.mu.Unlock()
				continue
			}
			if it.Value > d.retired {
				d.retired = it.Value
			}
			d.mu.Unlock()
			if err := it.Semaphore.Signal(it.Value); err != nil {
				return err
			}
		case hg.QueueWait:
			d.mu.Lock()
			d.waits = append(d.waits, it)
			d.mu.Unlock()
		case hg.QueuePrepareTexture:
			d.mu.Lock()
			d.prepared++
			d.mu.Unlock()
		default:
			return fmt.Errorf("hgtest: unknown queue item %v", it.Kind)
		}
	}
	return nil
}

// WriteBuffer implements hg.Queue.
func (q *Queue) WriteBuffer(buf hg.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("hgtest: foreign buffer %T", buf)
	}
	if b.IsDestroyed() {
		return hg.ErrDestroyed
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("hgtest: write of %d bytes at %d overflows buffer of %d", len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	q.dev.mu.Lock()
	q.dev.writes++
	q.dev.mu.Unlock()
	return nil
}
