// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame paces the host against the GPU and reclaims resources that
// in-flight frames may still reference.
//
// The Pacer keeps a frame counter and two timeline semaphores. The GPU
// signals interFrame with the frame number when the frame's work completes.
// The cleanup goroutine (a workqueue.Queue) signals cleanupDone with the
// frame number once it has waited for that frame and run the destructions
// queued behind it. The host blocks on cleanupDone so it never runs more
// than MaxFramesInFlight frames ahead.
package frame

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/internal/workqueue"
)

// ErrWaitFailed is returned when a host wait errors or the cleanup goroutine
// stopped while the host was waiting on it.
var ErrWaitFailed = errors.New("frame: semaphore wait failed")

// pollInterval bounds each host wait so a dead cleanup goroutine is noticed.
const pollInterval = 250 * time.Millisecond

// Encoder is the part of the command encoder the pacer drives.
type Encoder interface {
	InsertQueueItem(item hg.QueueItem) error
	Flush() error
	ResetUploadBuffer()
}

// Pacer is the frame counter, its semaphores and the destruction ring.
//
// Thread safety: Pacer is confined to the frame goroutine.
type Pacer struct {
	dev hg.Device
	q   *workqueue.Queue
	log *slog.Logger

	current     uint64
	interFrame  hg.Semaphore
	cleanupDone hg.Semaphore
	ring        Ring
}

// New creates the pacer's semaphores. The frame counter starts at
// MaxFramesInFlight and both semaphores one below it, so no frame counts as
// retired before the GPU signals it and the first MaxFramesInFlight-1
// EndFrames never wait. Work queued on q during the first frame runs only
// after that frame retires.
func New(dev hg.Device, q *workqueue.Queue, log *slog.Logger) (*Pacer, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	interFrame, err := dev.CreateSemaphore(MaxFramesInFlight - 1)
	if err != nil {
		return nil, fmt.Errorf("frame: create inter-frame semaphore: %w", err)
	}
	cleanupDone, err := dev.CreateSemaphore(MaxFramesInFlight - 1)
	if err != nil {
		interFrame.Destroy()
		return nil, fmt.Errorf("frame: create cleanup semaphore: %w", err)
	}
	q.Wait(interFrame, MaxFramesInFlight)
	return &Pacer{
		dev:         dev,
		q:           q,
		log:         log,
		current:     MaxFramesInFlight,
		interFrame:  interFrame,
		cleanupDone: cleanupDone,
	}, nil
}

// Current returns the number of the frame being recorded.
func (p *Pacer) Current() uint64 { return p.current }

// Defer schedules ds for destruction once the current frame has retired.
func (p *Pacer) Defer(ds ...hg.Destroyer) {
	p.ring.Append(p.current, ds...)
}

// Deferred returns the number of destructions waiting in the ring.
func (p *Pacer) Deferred() int { return p.ring.Total() }

// EndFrame submits the current frame and starts the next one. It blocks
// while MaxFramesInFlight frames are still being cleaned up, then destroys
// everything deferred MaxFramesInFlight frames ago.
func (p *Pacer) EndFrame(enc Encoder) error {
	p.q.Signal(p.cleanupDone, p.current)
	if err := enc.InsertQueueItem(hg.Signal(p.interFrame, p.current, hg.StageAllCommands)); err != nil {
		return fmt.Errorf("frame: insert frame signal: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("frame: flush frame %d: %w", p.current, err)
	}
	p.dev.MarkFrame()

	p.current++
	p.q.Wait(p.interFrame, p.current)

	if err := p.waitHost(p.cleanupDone, p.current-MaxFramesInFlight, "cleanup"); err != nil {
		return err
	}

	ds := p.ring.Take(p.current)
	for _, d := range ds {
		d.Destroy()
	}
	if len(ds) > 0 {
		p.log.Debug("frame: reclaimed slot", "frame", p.current, "slot", Slot(p.current), "count", len(ds))
	}

	enc.ResetUploadBuffer()
	return nil
}

// Drain waits for all GPU and cleanup work, destroys both semaphores and
// runs every deferred destruction. The pacer is unusable afterwards.
func (p *Pacer) Drain() error {
	if err := p.waitHost(p.interFrame, p.current-1, "inter-frame"); err != nil {
		return err
	}
	if err := p.fakeRetire(); err != nil {
		return err
	}

	// The last queued item is this signal, so seeing it means the cleanup
	// goroutine has run everything before it.
	p.q.Signal(p.interFrame, p.current+1)
	if err := p.waitHost(p.interFrame, p.current+1, "cleanup drain"); err != nil {
		return err
	}

	p.interFrame.Destroy()
	p.cleanupDone.Destroy()

	n := p.sweep()
	p.log.Debug("frame: drained", "frame", p.current, "destroyed", n)
	return nil
}

// fakeRetire signals inter-frame completion of the current frame from the
// host. The current frame was never submitted, so only shutdown may do this.
func (p *Pacer) fakeRetire() error {
	if err := p.interFrame.Signal(p.current); err != nil {
		return fmt.Errorf("%w: retire frame %d: %w", ErrWaitFailed, p.current, err)
	}
	return nil
}

// sweep destroys the ring contents starting at the current slot and stops
// after MaxFramesInFlight consecutive empty slots. A Destroy may defer more
// work; the sweep picks it up.
func (p *Pacer) sweep() int {
	n := 0
	for f, empty := p.current, 0; empty < MaxFramesInFlight; f++ {
		ds := p.ring.Take(f)
		if len(ds) == 0 {
			empty++
			continue
		}
		empty = 0
		for _, d := range ds {
			d.Destroy()
		}
		n += len(ds)
	}
	return n
}

func (p *Pacer) waitHost(sem hg.Semaphore, value uint64, what string) error {
	for {
		ok, err := sem.Wait(value, pollInterval)
		if err != nil {
			return fmt.Errorf("%w: %s %d: %w", ErrWaitFailed, what, value, err)
		}
		if ok {
			return nil
		}
		if qerr := p.q.Err(); qerr != nil {
			return fmt.Errorf("%w: %s %d: %w", ErrWaitFailed, what, value, qerr)
		}
	}
}
