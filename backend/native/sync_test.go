//go:build !nogpu

package native

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gpudevice/hg"
)

func newTestSemaphore(t *testing.T, d *Device, initial uint64) hg.Semaphore {
	t.Helper()
	s, err := d.CreateSemaphore(initial)
	if err != nil {
		t.Fatalf("CreateSemaphore: %v", err)
	}
	return s
}

func TestSemaphoreHostSignal(t *testing.T) {
	d := openNoopDevice(t)
	s := newTestSemaphore(t, d, 3)
	defer s.Destroy()

	if ok, err := s.Wait(3, 0); !ok || err != nil {
		t.Errorf("Wait(3) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := s.Wait(4, 10*time.Millisecond); ok || err != nil {
		t.Errorf("Wait(4) before signal = %v, %v, want false, nil", ok, err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Signal(4)
	}()
	if ok, err := s.Wait(4, hg.Forever); !ok || err != nil {
		t.Errorf("Wait(4) = %v, %v, want true, nil", ok, err)
	}

	// Lower values never move the counter back.
	if err := s.Signal(2); err != nil {
		t.Fatalf("Signal(2): %v", err)
	}
	if ok, _ := s.Wait(4, 0); !ok {
		t.Error("counter moved backwards")
	}
}

func TestSemaphoreQueueSignal(t *testing.T) {
	d := openNoopDevice(t)
	s := newTestSemaphore(t, d, 0)
	defer s.Destroy()

	if err := d.Queue().Submit(hg.Signal(s, 5, hg.StageAllCommands)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok, err := s.Wait(5, time.Second); !ok || err != nil {
		t.Errorf("Wait(5) = %v, %v, want true, nil", ok, err)
	}
	if got := len(s.(*semaphore).pending); got != 0 {
		t.Errorf("pending submissions after Wait = %d, want 0", got)
	}
	if got := len(d.queue.inflight); got > 1 {
		t.Errorf("inflight command buffers = %d, want at most 1", got)
	}
}

func TestSemaphoreAdvance(t *testing.T) {
	s := &semaphore{host: 2, changed: make(chan struct{})}
	s.pending = []submission{{value: 3, index: 10}, {value: 4, index: 11}, {value: 5, index: 12}}

	if onGPU := s.advance(11, 5); !onGPU {
		t.Error("advance(11, 5) onGPU = false, want true")
	}
	if s.host != 4 {
		t.Errorf("host = %d, want 4", s.host)
	}
	if len(s.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(s.pending))
	}
	if onGPU := s.advance(11, 6); onGPU {
		t.Error("advance(11, 6) onGPU = true, want false")
	}
	s.advance(12, 6)
	if s.host != 5 || len(s.pending) != 0 {
		t.Errorf("host, pending = %d, %d, want 5, 0", s.host, len(s.pending))
	}
}

func TestSemaphoreDestroy(t *testing.T) {
	d := openNoopDevice(t)
	s := newTestSemaphore(t, d, 0)

	done := make(chan error, 1)
	go func() {
		_, err := s.Wait(10, hg.Forever)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	s.Destroy()
	s.Destroy()

	select {
	case err := <-done:
		if !errors.Is(err, hg.ErrDestroyed) {
			t.Errorf("Wait after Destroy = %v, want %v", err, hg.ErrDestroyed)
		}
	case <-time.After(time.Second):
		t.Fatal("Destroy did not wake the waiter")
	}
	if err := s.Signal(11); !errors.Is(err, hg.ErrDestroyed) {
		t.Errorf("Signal after Destroy = %v, want %v", err, hg.ErrDestroyed)
	}
}

// foreignSemaphore is an hg.Semaphore from another device.
type foreignSemaphore struct{}

func (foreignSemaphore) Signal(uint64) error                      { return nil }
func (foreignSemaphore) Wait(uint64, time.Duration) (bool, error) { return true, nil }
func (foreignSemaphore) Destroy()                                 {}

func TestQueueRejectsForeignObjects(t *testing.T) {
	d := openNoopDevice(t)

	tests := []struct {
		name string
		item hg.QueueItem
	}{
		{"signal", hg.Signal(foreignSemaphore{}, 1, hg.StageAllCommands)},
		{"wait", hg.Wait(foreignSemaphore{}, 1, hg.StageAllCommands)},
		{"prepare texture", hg.PrepareTexture(nil)},
	}
	for _, tt := range tests {
		if err := d.Queue().Submit(tt.item); !errors.Is(err, ErrForeignObject) {
			t.Errorf("Submit(%s) = %v, want %v", tt.name, err, ErrForeignObject)
		}
	}
}

func TestQueuePrepareTexture(t *testing.T) {
	d := openNoopDevice(t)
	tex, err := d.CreateTexture(hg.TextureInfo{Label: "atlas", Width: 64, Height: 64, Format: testColor, Usage: testTextureUsage})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer tex.Destroy()

	if err := d.Queue().Submit(hg.PrepareTexture(tex), hg.PrepareTexture(tex)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := len(d.queue.pending); n != 0 {
		t.Errorf("pending barriers after Submit = %d, want 0", n)
	}
	if err := d.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestQueueWriteBuffer(t *testing.T) {
	d := openNoopDevice(t)
	buf, err := d.CreateBuffer(hg.BufferInfo{Label: "vertices", Size: 16, Usage: testBufferUsage})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	if err := d.Queue().WriteBuffer(buf, 8, make([]byte, 8)); err != nil {
		t.Errorf("WriteBuffer: %v", err)
	}
	if err := d.Queue().WriteBuffer(buf, 12, make([]byte, 8)); err == nil {
		t.Error("WriteBuffer past the end succeeded")
	}
	buf.Destroy()
	if err := d.Queue().WriteBuffer(buf, 0, []byte{1}); !errors.Is(err, hg.ErrDestroyed) {
		t.Errorf("WriteBuffer after Destroy = %v, want %v", err, hg.ErrDestroyed)
	}
}
