// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hgtest

import (
	"sync"

	"github.com/gogpu/gpudevice/hg"
)

// Window is a fake host window.
//
// The host size is what the windowing system currently reports; the
// framebuffer size is the cached copy taken by RefreshFramebufferSize.
// Swapchains created on the window fail to present or acquire once the host
// size no longer matches theirs, as a real surface does after a resize.
type Window struct {
	mu      sync.Mutex
	handle  uintptr
	hostW   int
	hostH   int
	fbW     int
	fbH     int
	resizes int
}

var windowHandles struct {
	sync.Mutex
	next uintptr
}

// NewWindow returns a window of the given size registered with d.
func (d *Device) NewWindow(width, height int) *Window {
	windowHandles.Lock()
	windowHandles.next++
	h := 0x1000 + windowHandles.next
	windowHandles.Unlock()

	w := &Window{handle: h, hostW: width, hostH: height, fbW: width, fbH: height}
	d.mu.Lock()
	d.windows[h] = w
	d.mu.Unlock()
	return w
}

// Resize changes the host size, as a user dragging or minimizing would.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	w.hostW, w.hostH = width, height
	w.mu.Unlock()
}

// Handle returns the native handle.
func (w *Window) Handle() uintptr { return w.handle }

// RefreshFramebufferSize copies the host size into the framebuffer size.
func (w *Window) RefreshFramebufferSize() {
	w.mu.Lock()
	w.fbW, w.fbH = w.hostW, w.hostH
	w.mu.Unlock()
}

// FramebufferSize returns the last refreshed size.
func (w *Window) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fbW, w.fbH
}

// ResizeDisplay records a display resize notification.
func (w *Window) ResizeDisplay() {
	w.mu.Lock()
	w.resizes++
	w.mu.Unlock()
}

// DisplayResizes returns how many times ResizeDisplay was called.
func (w *Window) DisplayResizes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resizes
}

func (w *Window) hostSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hostW, w.hostH
}

// Surface is a fake hg.Surface.
type Surface struct {
	*object
	win *Window
}

// CreateSwapchain implements hg.Surface.
func (s *Surface) CreateSwapchain(vsync bool, old hg.Swapchain) (hg.Swapchain, error) {
	if err := s.dev.create(KindSwapchain); err != nil {
		return nil, err
	}
	if old != nil {
		old.Destroy()
	}
	w, h := s.win.hostSize()
	return &Swapchain{
		object: newObject(s.dev, KindSwapchain, "swapchain"),
		win:    s.win,
		width:  w,
		height: h,
		vsync:  vsync,
	}, nil
}

// Swapchain is a fake hg.Swapchain.
type Swapchain struct {
	*object
	win      *Window
	width    int
	height   int
	vsync    bool
	presents int
}

func (s *Swapchain) current() bool {
	w, h := s.win.hostSize()
	return w == s.width && h == s.height && w > 0 && h > 0
}

// Acquire implements hg.Swapchain.
func (s *Swapchain) Acquire() bool { return !s.IsDestroyed() && s.current() }

// Present implements hg.Swapchain.
func (s *Swapchain) Present() bool {
	if s.IsDestroyed() || !s.current() {
		return false
	}
	s.presents++
	return true
}

// Presents returns the number of successful presents.
func (s *Swapchain) Presents() int { return s.presents }

// Width implements hg.Swapchain.
func (s *Swapchain) Width() int { return s.width }

// Height implements hg.Swapchain.
func (s *Swapchain) Height() int { return s.height }

// Vsync implements hg.Swapchain.
func (s *Swapchain) Vsync() bool { return s.vsync }
