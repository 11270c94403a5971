// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package glfwwindow adapts a GLFW window to gpudevice.Window.
//
// GLFW owns the native window and its event loop; gpudevice owns the
// surface and swapchain that present into it. The adapter re-reads the
// framebuffer size when the device asks (after an out-of-date swapchain)
// and forwards swapchain recreation to an optional resize callback so the
// host renderer can resize its own render targets.
//
// # Usage
//
//	win, err := glfwwindow.New(glfwwindow.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer win.Destroy()
//
//	if err := dev.AttachWindow(win); err != nil {
//	    log.Fatal(err)
//	}
//	for !win.ShouldClose() {
//	    win.PollEvents()
//	    // record and submit frame work
//	    if err := dev.PresentFrame(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Handle returns the GLFWwindow pointer. A native SurfaceFactory turns it
// into a platform surface, for example with CreateVulkanSurface.
//
// # Thread Safety
//
// GLFW must be called from the main thread. New locks the calling
// goroutine to its OS thread; create and drive the window from main.
package glfwwindow
