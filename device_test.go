// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpudevice/hg"
	"github.com/gogpu/gpudevice/hg/hgtest"
)

// newTestDevice opens a Device on a fake handle and closes it when the test
// ends.
func newTestDevice(t *testing.T, opts ...Option) (*Device, *hgtest.Device) {
	t.Helper()
	return newTestDeviceOn(t, hgtest.NewDevice(), opts...)
}

func newTestDeviceOn(t *testing.T, fake *hgtest.Device, opts ...Option) (*Device, *hgtest.Device) {
	t.Helper()
	d, err := New(fake, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		fake.RetireAll()
		_ = d.Close()
	})
	return d, fake
}

func TestNewStartsAtMaxFramesInFlight(t *testing.T) {
	d, fake := newTestDevice(t)

	if got := d.CurrentFrame(); got != MaxFramesInFlight {
		t.Errorf("CurrentFrame = %d, want %d", got, MaxFramesInFlight)
	}
	for i, s := range fake.Semaphores() {
		if got := s.Value(); got != MaxFramesInFlight-1 {
			t.Errorf("semaphore %d initial value = %d, want %d", i, got, MaxFramesInFlight-1)
		}
	}
}

func TestNewSemaphoreFailure(t *testing.T) {
	fake := hgtest.NewDevice()
	boom := errors.New("out of memory")
	fake.FailNext(hgtest.KindSemaphore, boom)

	if _, err := New(fake); !errors.Is(err, boom) {
		t.Fatalf("New error = %v, want %v", err, boom)
	}
}

func TestEndFrameBoundsOutstandingFrames(t *testing.T) {
	d, fake := newTestDeviceOn(t, hgtest.NewDevice(hgtest.ManualRetire()))

	for i := 0; i < MaxFramesInFlight-1; i++ {
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- d.EndFrame() }()
	select {
	case err := <-done:
		t.Fatalf("EndFrame returned with %d frames in flight: %v", MaxFramesInFlight, err)
	case <-time.After(50 * time.Millisecond):
	}
	if got := fake.Pending(); got != MaxFramesInFlight {
		t.Errorf("frames in flight while blocked = %d, want %d", got, MaxFramesInFlight)
	}

	fake.RetireAll()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("EndFrame still blocked after the GPU caught up")
	}
}

func TestOutstandingFramesNeverExceedLimit(t *testing.T) {
	d, fake := newTestDeviceOn(t, hgtest.NewDevice(hgtest.ManualRetire()))

	// The GPU retires at most one frame per millisecond.
	stop := make(chan struct{})
	retirer := make(chan struct{})
	go func() {
		defer close(retirer)
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				if fake.Pending() > 0 {
					fake.Retire()
				}
			}
		}
	}()

	for i := 0; i < 20; i++ {
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame %d: %v", i, err)
		}
		if got := fake.Pending(); got > MaxFramesInFlight {
			t.Fatalf("frames in flight after EndFrame %d = %d, want <= %d", i, got, MaxFramesInFlight)
		}
	}
	close(stop)
	<-retirer
}

func TestDestroyEndOfFrameWaitsForSlotReuse(t *testing.T) {
	d, fake := newTestDevice(t)

	f := d.CurrentFrame()
	r := fake.NewResource("texture")
	d.DestroyEndOfFrame(r)

	for i := 1; i < MaxFramesInFlight; i++ {
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
		if r.IsDestroyed() {
			t.Fatalf("destroyed at frame %d, want %d", d.CurrentFrame(), f+MaxFramesInFlight)
		}
	}
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if got := r.Destroys(); got != 1 {
		t.Errorf("Destroys at frame %d = %d, want 1", d.CurrentFrame(), got)
	}
}

func TestDestroyEndOfFrameAll(t *testing.T) {
	d, fake := newTestDevice(t)

	rs := []hg.Destroyer{fake.NewResource("a"), nil, fake.NewResource("b")}
	d.DestroyEndOfFrameAll(rs...)
	if got := d.PendingDestroys(); got != 2 {
		t.Fatalf("PendingDestroys = %d, want 2", got)
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
	}
	if got := d.PendingDestroys(); got != 0 {
		t.Errorf("PendingDestroys = %d, want 0", got)
	}
}

func TestDestroyEndOfFrameAsync(t *testing.T) {
	d, fake := newTestDeviceOn(t, hgtest.NewDevice(hgtest.ManualRetire()))

	first := fake.NewResource("first")
	d.DestroyEndOfFrameAsync(first)
	time.Sleep(20 * time.Millisecond)
	if first.IsDestroyed() {
		t.Fatal("async destroy ran before the first frame was submitted")
	}

	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	second := fake.NewResource("second")
	d.DestroyEndOfFrameAsync(second)
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if first.IsDestroyed() || second.IsDestroyed() {
		t.Fatal("async destroy ran before its frame retired")
	}

	// Retiring the first frame releases only what was queued during it.
	fake.Retire()
	waitDestroyed(t, first)
	time.Sleep(20 * time.Millisecond)
	if second.IsDestroyed() {
		t.Error("second frame's destroy ran after only the first frame retired")
	}

	fake.Retire()
	waitDestroyed(t, second)
	if got := first.Destroys() + second.Destroys(); got != 2 {
		t.Errorf("Destroys = %d, want 2", got)
	}
}

func TestFirstFrameDestroysWaitForGPU(t *testing.T) {
	d, fake := newTestDeviceOn(t, hgtest.NewDevice(hgtest.ManualRetire()))

	f := d.CurrentFrame()
	r := fake.NewResource("ring")
	d.DestroyEndOfFrame(r)

	for i := 1; i < MaxFramesInFlight; i++ {
		if err := d.EndFrame(); err != nil {
			t.Fatalf("EndFrame %d: %v", i, err)
		}
	}
	done := make(chan error, 1)
	go func() { done <- d.EndFrame() }()

	select {
	case err := <-done:
		t.Fatalf("EndFrame returned with frame %d unretired: %v", f, err)
	case <-time.After(50 * time.Millisecond):
	}
	if r.IsDestroyed() {
		t.Fatalf("frame %d resource destroyed with GPU at %d", f, fake.Retired())
	}

	fake.Retire()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("EndFrame still blocked after the first frame retired")
	}
	if got := fake.Retired(); got < f {
		t.Errorf("Retired = %d, want >= %d", got, f)
	}
	if got := r.Destroys(); got != 1 {
		t.Errorf("Destroys = %d, want 1", got)
	}
}

func waitDestroyed(t *testing.T, r *hgtest.Resource) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !r.IsDestroyed() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !r.IsDestroyed() {
		t.Fatalf("%s not destroyed", r.Label())
	}
}

func TestCloseShutdownScenario(t *testing.T) {
	fake := hgtest.NewDevice()
	d, err := New(fake)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Two resources in the slot of frame 3, three in the slot of frame 4.
	d.DestroyEndOfFrame(fake.NewResource("f3-a"))
	d.DestroyEndOfFrame(fake.NewResource("f3-b"))
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	d.DestroyEndOfFrame(fake.NewResource("f4-a"))
	d.DestroyEndOfFrame(fake.NewResource("f4-b"))
	d.DestroyEndOfFrame(fake.NewResource("f4-c"))

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	log := fake.DestroyLog()
	var resources []string
	devicePos, lastResource := -1, -1
	for i, e := range log {
		switch {
		case strings.HasPrefix(e, hgtest.KindResource+":"):
			resources = append(resources, strings.TrimPrefix(e, hgtest.KindResource+":"))
			lastResource = i
		case e == hgtest.KindDevice+":device":
			devicePos = i
		}
	}

	// The sweep starts at the current frame's slot and wraps around.
	want := []string{"f4-a", "f4-b", "f4-c", "f3-a", "f3-b"}
	if strings.Join(resources, ",") != strings.Join(want, ",") {
		t.Errorf("destroy order = %v, want %v", resources, want)
	}
	if devicePos != len(log)-1 {
		t.Errorf("device handle destroyed at %d of %d, want last", devicePos, len(log))
	}
	if lastResource > devicePos {
		t.Error("resource destroyed after the device handle")
	}
	if dd := fake.DoubleDestroys(); len(dd) != 0 {
		t.Errorf("DoubleDestroys = %v, want none", dd)
	}
	if got := fake.Live(hgtest.KindSemaphore); got != 0 {
		t.Errorf("live semaphores = %d, want 0", got)
	}
}

func TestCloseWaitsForFramesInFlight(t *testing.T) {
	fake := hgtest.NewDevice(hgtest.ManualRetire())
	d, err := New(fake)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Two resources in the slot of frame 3, three in the slot of frame 4,
	// with both frames still on the GPU at Close.
	d.DestroyEndOfFrame(fake.NewResource("f3-a"))
	d.DestroyEndOfFrame(fake.NewResource("f3-b"))
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	d.DestroyEndOfFrame(fake.NewResource("f4-a"))
	d.DestroyEndOfFrame(fake.NewResource("f4-b"))
	d.DestroyEndOfFrame(fake.NewResource("f4-c"))
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if got := fake.Pending(); got != 2 {
		t.Fatalf("frames in flight = %d, want 2", got)
	}

	done := make(chan error, 1)
	go func() { done <- d.Close() }()
	select {
	case err := <-done:
		t.Fatalf("Close returned with frames in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	if got := len(fake.DestroyLog()); got != 0 {
		t.Fatalf("destroyed before the GPU finished: %v", fake.DestroyLog())
	}

	go fake.RetireAll()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close still blocked after the GPU caught up")
	}

	log := fake.DestroyLog()
	var resources []string
	devicePos, lastResource := -1, -1
	for i, e := range log {
		switch {
		case strings.HasPrefix(e, hgtest.KindResource+":"):
			resources = append(resources, strings.TrimPrefix(e, hgtest.KindResource+":"))
			lastResource = i
		case e == hgtest.KindDevice+":device":
			devicePos = i
		}
	}

	// The sweep starts at frame 5's empty slot, then wraps to frames 3 and 4.
	want := []string{"f3-a", "f3-b", "f4-a", "f4-b", "f4-c"}
	if strings.Join(resources, ",") != strings.Join(want, ",") {
		t.Errorf("destroy order = %v, want %v", resources, want)
	}
	if devicePos != len(log)-1 || lastResource > devicePos {
		t.Errorf("device handle destroyed at %d of %d, want last", devicePos, len(log))
	}
	if dd := fake.DoubleDestroys(); len(dd) != 0 {
		t.Errorf("DoubleDestroys = %v, want none", dd)
	}
}

func TestCloseTwice(t *testing.T) {
	fake := hgtest.NewDevice()
	d, err := New(fake)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if got := len(fake.DoubleDestroys()); got != 0 {
		t.Errorf("double destroys = %d, want 0", got)
	}
}

func TestCallsAfterClose(t *testing.T) {
	d, err := New(hgtest.NewDevice())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"EndFrame", d.EndFrame},
		{"PresentFrame", d.PresentFrame},
		{"ClearPipelineCache", d.ClearPipelineCache},
		{"CreateTexture", func() error {
			_, err := d.CreateTexture(TextureDesc{Width: 4, Height: 4})
			return err
		}},
		{"CreateBuffer", func() error {
			_, err := d.CreateBuffer("b", 0, 16)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrClosed) {
				t.Errorf("%s after Close = %v, want %v", tt.name, err, ErrClosed)
			}
		})
	}
}

func TestDeviceLost(t *testing.T) {
	fake := hgtest.NewDevice()
	d, err := New(fake)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lost := errors.New("VK_ERROR_DEVICE_LOST")
	// The inter-frame semaphore is created first.
	fake.Semaphores()[0].Fail(lost)

	for i := 0; i <= MaxFramesInFlight && err == nil; i++ {
		err = d.EndFrame()
	}
	if !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("EndFrame error = %v, want %v", err, ErrDeviceLost)
	}
	if !errors.Is(err, lost) {
		t.Errorf("EndFrame error = %v, want it to wrap %v", err, lost)
	}
	if !errors.Is(d.Err(), ErrDeviceLost) {
		t.Errorf("Err = %v, want %v", d.Err(), ErrDeviceLost)
	}

	if err := d.EndFrame(); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("EndFrame on lost device = %v, want %v", err, ErrDeviceLost)
	}
	if _, err := d.CreateBuffer("b", 0, 4); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("CreateBuffer on lost device = %v, want %v", err, ErrDeviceLost)
	}
	if err := d.Close(); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Close on lost device = %v, want %v", err, ErrDeviceLost)
	}
	if err := d.Close(); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("second Close on lost device = %v, want %v", err, ErrDeviceLost)
	}
}

func TestConcurrentFrameCallsPanic(t *testing.T) {
	d, _ := newTestDevice(t)

	release := d.guard.enter()
	defer release()

	defer func() {
		r := recover()
		if err, ok := r.(error); !ok || !errors.Is(err, ErrConcurrentUse) {
			t.Errorf("recover() = %v, want %v", r, ErrConcurrentUse)
		}
	}()
	_ = d.EndFrame()
	t.Fatal("EndFrame did not panic while another frame call was active")
}

func TestEndFrameFlushesEncoder(t *testing.T) {
	d, fake := newTestDevice(t)

	if _, err := d.CreateTexture(TextureDesc{Label: "t", Width: 8, Height: 8}); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if got := fake.Prepared(); got != 0 {
		t.Fatalf("texture prepared before flush: %d", got)
	}
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if got := fake.Prepared(); got != 1 {
		t.Errorf("Prepared = %d, want 1", got)
	}
	if got := fake.Frames(); got != 1 {
		t.Errorf("MarkFrame calls = %d, want 1", got)
	}
}
