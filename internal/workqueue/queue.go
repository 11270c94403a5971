// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package workqueue runs host-side cleanup "after the end of a GPU frame".
//
// A Queue owns one background goroutine that executes items strictly in the
// order they were enqueued. An item is a semaphore wait, a semaphore signal
// or a destruction. Because waits block the goroutine, a destruction queued
// after Wait(sem, v) runs only once sem has reached v.
//
// The first failed wait or signal stops the goroutine. Items queued after
// that are dropped and Err reports the failure.
package workqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gpudevice/hg"
)

// ErrStalled is returned when a wait finished without reaching its value.
var ErrStalled = errors.New("workqueue: semaphore wait made no progress")

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("workqueue: closed")

type kind uint8

const (
	kindWait kind = iota
	kindSignal
	kindDestroy
)

type item struct {
	kind  kind
	sem   hg.Semaphore
	value uint64
	d     hg.Destroyer
}

// Queue is an ordered single-goroutine work queue.
//
// Thread safety: the enqueue methods are safe for concurrent use. Close must
// be called once, after the last enqueue.
type Queue struct {
	log *slog.Logger

	mu     sync.Mutex
	items  []item
	closed bool
	err    error

	// wake has capacity one; a pending token means items or close are ready.
	wake chan struct{}

	g    *errgroup.Group
	done chan struct{}
}

// New starts a queue. A nil logger discards output.
func New(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	q := &Queue{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	var ctx context.Context
	q.g, ctx = errgroup.WithContext(context.Background())
	q.g.Go(func() error {
		defer close(q.done)
		return q.run(ctx)
	})
	return q
}

// Wait queues a wait for sem to reach value.
func (q *Queue) Wait(sem hg.Semaphore, value uint64) {
	q.push(item{kind: kindWait, sem: sem, value: value})
}

// Signal queues a host signal of sem to value.
func (q *Queue) Signal(sem hg.Semaphore, value uint64) {
	q.push(item{kind: kindSignal, sem: sem, value: value})
}

// Destroy queues d for destruction.
func (q *Queue) Destroy(d hg.Destroyer) {
	if d == nil {
		return
	}
	q.push(item{kind: kindDestroy, d: d})
}

// Err returns the failure that stopped the goroutine, or nil.
func (q *Queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Len returns the number of items not yet started.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close runs the remaining items, stops the goroutine and returns the first
// failure.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	q.mu.Unlock()
	q.notify()
	return q.g.Wait()
}

func (q *Queue) push(it item) {
	q.mu.Lock()
	if q.closed || q.err != nil {
		q.mu.Unlock()
		q.log.Warn("workqueue: item dropped", "kind", it.kind, "err", q.Err())
		return
	}
	q.items = append(q.items, it)
	q.mu.Unlock()
	q.notify()
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest item. ok is false when the queue is closed and empty.
func (q *Queue) next(ctx context.Context) (it item, ok bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			it = q.items[0]
			q.items[0] = item{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return it, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return item{}, false
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return item{}, false
		}
	}
}

func (q *Queue) run(ctx context.Context) error {
	for {
		it, ok := q.next(ctx)
		if !ok {
			return nil
		}
		if err := q.exec(it); err != nil {
			q.mu.Lock()
			q.err = err
			dropped := len(q.items)
			q.items = nil
			q.mu.Unlock()
			q.log.Warn("workqueue: stopped", "err", err, "dropped", dropped)
			return err
		}
	}
}

func (q *Queue) exec(it item) error {
	switch it.kind {
	case kindWait:
		ok, err := it.sem.Wait(it.value, hg.Forever)
		if err != nil {
			return fmt.Errorf("workqueue: wait for %d: %w", it.value, err)
		}
		if !ok {
			return fmt.Errorf("%w (value %d)", ErrStalled, it.value)
		}
	case kindSignal:
		if err := it.sem.Signal(it.value); err != nil {
			return fmt.Errorf("workqueue: signal %d: %w", it.value, err)
		}
	case kindDestroy:
		it.d.Destroy()
	}
	return nil
}

func (k kind) String() string {
	switch k {
	case kindWait:
		return "wait"
	case kindSignal:
		return "signal"
	case kindDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}
