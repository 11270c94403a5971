// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package workqueue

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/hg/hgtest"
)

func TestQueueRunsInOrder(t *testing.T) {
	dev := hgtest.NewDevice()
	q := New(nil)

	names := []string{"a", "b", "c", "d"}
	for _, n := range names {
		q.Destroy(dev.NewResource(n))
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	log := dev.DestroyLog()
	if len(log) != len(names) {
		t.Fatalf("DestroyLog = %v, want %d entries", log, len(names))
	}
	for i, n := range names {
		if want := "resource:" + n; log[i] != want {
			t.Errorf("DestroyLog[%d] = %q, want %q", i, log[i], want)
		}
	}
}

func TestQueueDestroyWaitsForSemaphore(t *testing.T) {
	dev := hgtest.NewDevice()
	sem, _ := dev.CreateSemaphore(0)
	q := New(nil)

	r := dev.NewResource("late")
	q.Wait(sem, 2)
	q.Destroy(r)

	time.Sleep(20 * time.Millisecond)
	if r.IsDestroyed() {
		t.Fatal("resource destroyed before the wait completed")
	}

	_ = sem.Signal(2)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := r.Destroys(); got != 1 {
		t.Errorf("Destroys = %d, want 1", got)
	}
}

func TestQueueSignal(t *testing.T) {
	dev := hgtest.NewDevice()
	sem, _ := dev.CreateSemaphore(0)
	q := New(nil)
	defer func() { _ = q.Close() }()

	q.Signal(sem, 7)
	ok, err := sem.Wait(7, time.Second)
	if err != nil || !ok {
		t.Fatalf("Wait(7) = %v, %v; want true, nil", ok, err)
	}
}

func TestQueueFailureStops(t *testing.T) {
	dev := hgtest.NewDevice()
	sem, _ := dev.CreateSemaphore(0)
	lost := errors.New("device lost")
	sem.(*hgtest.Semaphore).Fail(lost)

	q := New(nil)
	r := dev.NewResource("never")
	q.Wait(sem, 1)
	q.Destroy(r)

	err := q.Close()
	if !errors.Is(err, lost) {
		t.Fatalf("Close error = %v, want %v", err, lost)
	}
	if !errors.Is(q.Err(), lost) {
		t.Errorf("Err = %v, want %v", q.Err(), lost)
	}
	if r.IsDestroyed() {
		t.Error("item after a failed wait was executed")
	}

	// Enqueue after failure is dropped, not run.
	q.Destroy(dev.NewResource("dropped"))
	if got := q.Len(); got != 0 {
		t.Errorf("Len after failure = %d, want 0", got)
	}
}

func TestQueueCloseTwice(t *testing.T) {
	q := New(nil)
	if err := q.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := q.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want %v", err, ErrClosed)
	}
}

func TestQueueIgnoresNilDestroyer(t *testing.T) {
	q := New(nil)
	var d hg.Destroyer
	q.Destroy(d)
	if got := q.Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
