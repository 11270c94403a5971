// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glfwwindow

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/gpudevice"
)

// Common errors returned by Window operations.
var (
	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("glfwwindow: invalid dimensions")

	// ErrNilWindow is returned when Wrap is given a nil window.
	ErrNilWindow = errors.New("glfwwindow: nil window")
)

// Config describes the window New creates.
type Config struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
}

// DefaultConfig returns a resizable 1280x720 window configuration.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Title:     "gpudevice",
		Resizable: true,
	}
}

// handle is the part of *glfw.Window the adapter uses.
type handle interface {
	Handle() unsafe.Pointer
	GetFramebufferSize() (width, height int)
	ShouldClose() bool
	Destroy()
}

// Window is a GLFW window that implements gpudevice.Window.
//
// Window is NOT safe for concurrent use; drive it from the main thread.
type Window struct {
	win      handle
	glfwWin  *glfw.Window
	width    int
	height   int
	onResize func(width, height int)
	resizes  int
	owned    bool
	closed   bool
}

var _ gpudevice.Window = (*Window)(nil)

// New initializes GLFW and opens a window without a client API, so the
// device can create its own surface for it.
func New(cfg Config) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, cfg.Width, cfg.Height)
	}
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfwwindow: initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolToInt(cfg.Resizable))

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfwwindow: create window: %w", err)
	}
	w := newWindow(win)
	w.glfwWin = win
	w.owned = true
	gpudevice.Logger().Info("glfwwindow: window opened", "width", w.width, "height", w.height)
	return w, nil
}

// Wrap adapts a window the caller created. Destroy releases the window
// but leaves GLFW initialized.
func Wrap(win *glfw.Window) (*Window, error) {
	if win == nil {
		return nil, ErrNilWindow
	}
	w := newWindow(win)
	w.glfwWin = win
	return w, nil
}

func newWindow(h handle) *Window {
	w := &Window{win: h}
	w.RefreshFramebufferSize()
	return w
}

// OnResize sets the callback ResizeDisplay forwards to. It receives the
// framebuffer size the new swapchain was created with.
func (w *Window) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

// GLFW returns the underlying GLFW window, or nil for a test handle.
func (w *Window) GLFW() *glfw.Window { return w.glfwWin }

// Handle implements gpudevice.Window. It returns the GLFWwindow pointer.
func (w *Window) Handle() uintptr {
	return uintptr(w.win.Handle())
}

// RefreshFramebufferSize implements gpudevice.Window.
func (w *Window) RefreshFramebufferSize() {
	w.width, w.height = w.win.GetFramebufferSize()
}

// FramebufferSize implements gpudevice.Window.
func (w *Window) FramebufferSize() (width, height int) {
	return w.width, w.height
}

// ResizeDisplay implements gpudevice.Window.
func (w *Window) ResizeDisplay() {
	w.resizes++
	gpudevice.Logger().Debug("glfwwindow: display resized", "width", w.width, "height", w.height)
	if w.onResize != nil {
		w.onResize(w.width, w.height)
	}
}

// Resizes reports how many times the display was resized.
func (w *Window) Resizes() int { return w.resizes }

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.closed || w.win.ShouldClose()
}

// PollEvents processes pending window events.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// CreateVulkanSurface creates a VkSurfaceKHR for the window. instance must
// be a pointer-kinded VkInstance, as GLFW requires.
func (w *Window) CreateVulkanSurface(instance any) (uintptr, error) {
	if w.glfwWin == nil {
		return 0, ErrNilWindow
	}
	return w.glfwWin.CreateWindowSurface(instance, nil)
}

// Destroy closes the window. It is safe to call more than once.
func (w *Window) Destroy() {
	if w.closed {
		return
	}
	w.closed = true
	w.win.Destroy()
	if w.owned {
		glfw.Terminate()
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
