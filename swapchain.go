// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"fmt"

	"github.com/gogpu/gpudevice/hg"
)

// Window is the host window a device presents to.
type Window interface {
	// Handle returns the native window handle passed to hg.Device.CreateSurface.
	Handle() uintptr

	// RefreshFramebufferSize re-reads the framebuffer size from the
	// windowing system.
	RefreshFramebufferSize()

	// FramebufferSize returns the size read by the last refresh.
	FramebufferSize() (width, height int)

	// ResizeDisplay tells the host renderer the swapchain was recreated so
	// it can resize its render targets.
	ResizeDisplay()
}

// swapchainState is the presentation state of a device.
type swapchainState struct {
	win       Window
	surface   hg.Surface
	swapchain hg.Swapchain

	// invalid is set when the swapchain has no acquired image and must be
	// recreated before presenting again.
	invalid bool

	vsync     bool
	wantVsync bool

	recreations int
}

func (s *swapchainState) destroy() {
	if s.swapchain != nil {
		s.swapchain.Destroy()
		s.swapchain = nil
	}
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}
}

// AttachWindow creates the surface and swapchain for win and acquires the
// first image.
func (d *Device) AttachWindow(win Window) error {
	defer d.guard.enter()()
	if err := d.usable(); err != nil {
		return err
	}
	if d.sc.surface != nil {
		return ErrWindowAttached
	}

	surface, err := d.handle.CreateSurface(win.Handle())
	if err != nil {
		return fmt.Errorf("gpudevice: create surface: %w", err)
	}
	swapchain, err := surface.CreateSwapchain(d.sc.vsync, nil)
	if err != nil {
		surface.Destroy()
		return fmt.Errorf("gpudevice: create swapchain: %w", err)
	}
	d.sc.win = win
	d.sc.surface = surface
	d.sc.swapchain = swapchain
	d.sc.invalid = !swapchain.Acquire()

	d.log.Info("gpudevice: window attached",
		"width", swapchain.Width(),
		"height", swapchain.Height(),
		"vsync", swapchain.Vsync())
	return nil
}

// SetVsync requests vsync on or off. The change takes effect when the
// swapchain is next recreated, which PresentFrame does on the next frame.
func (d *Device) SetVsync(enabled bool) { d.sc.wantVsync = enabled }

// Vsync reports whether the active swapchain presents with vsync.
func (d *Device) Vsync() bool { return d.sc.vsync }

// SwapchainSize returns the size of the active swapchain, or zero before a
// window is attached.
func (d *Device) SwapchainSize() (width, height int) {
	if d.sc.swapchain == nil {
		return 0, 0
	}
	return d.sc.swapchain.Width(), d.sc.swapchain.Height()
}

// SwapchainRecreations returns how many times the swapchain was recreated.
func (d *Device) SwapchainRecreations() int { return d.sc.recreations }

// PresentFrame ends the frame, presents the acquired image and acquires the
// next one. Out-of-date and minimized swapchains are handled here and never
// reported as errors; while the window is minimized frames still end but
// nothing is presented.
func (d *Device) PresentFrame() error {
	defer d.guard.enter()()
	if err := d.endFrame(); err != nil {
		return err
	}
	sc := &d.sc
	if sc.swapchain == nil {
		return ErrNoWindow
	}

	if sc.invalid {
		sc.win.RefreshFramebufferSize()
		if minimized(sc.win) {
			return nil
		}
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
		sc.win.ResizeDisplay()
		sc.invalid = !sc.swapchain.Acquire()
		return nil
	}

	sc.invalid = !sc.swapchain.Present()
	w, h := sc.win.FramebufferSize()
	recreate := sc.invalid || w != sc.swapchain.Width() || h != sc.swapchain.Height()
	if sc.invalid {
		return nil
	}

	if sc.wantVsync != sc.vsync {
		sc.vsync = sc.wantVsync
		recreate = true
	}
	if recreate {
		sc.win.RefreshFramebufferSize()
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
		sc.win.ResizeDisplay()
	}

	for !sc.swapchain.Acquire() {
		sc.invalid = true
		sc.win.RefreshFramebufferSize()
		if minimized(sc.win) {
			// Acquire cannot succeed until the window is restored.
			return nil
		}
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
		sc.win.ResizeDisplay()
	}
	return nil
}

func (d *Device) recreateSwapchain() error {
	sc := &d.sc
	next, err := sc.surface.CreateSwapchain(sc.vsync, sc.swapchain)
	if err != nil {
		return fmt.Errorf("gpudevice: recreate swapchain: %w", err)
	}
	sc.swapchain = next
	sc.invalid = false
	sc.recreations++
	d.log.Debug("gpudevice: swapchain recreated",
		"width", next.Width(),
		"height", next.Height(),
		"vsync", next.Vsync())
	return nil
}

func minimized(win Window) bool {
	w, h := win.FramebufferSize()
	return w <= 1 && h <= 1
}
