// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import "github.com/gogpu/gpudevice/hg"

// DestroyEndOfFrame destroys res once every frame that could reference it has
// completed on the GPU: MaxFramesInFlight frames after the current one.
// It must be called from the frame goroutine.
//
// After Close has drained the device, res is destroyed immediately.
func (d *Device) DestroyEndOfFrame(res hg.Destroyer) {
	if res == nil {
		return
	}
	if d.drained.Load() {
		res.Destroy()
		return
	}
	d.pacer.Defer(res)
}

// DestroyEndOfFrameAll is DestroyEndOfFrame for a batch.
func (d *Device) DestroyEndOfFrameAll(res ...hg.Destroyer) {
	if d.drained.Load() {
		for _, r := range res {
			if r != nil {
				r.Destroy()
			}
		}
		return
	}
	batch := make([]hg.Destroyer, 0, len(res))
	for _, r := range res {
		if r != nil {
			batch = append(batch, r)
		}
	}
	d.pacer.Defer(batch...)
}

// DestroyEndOfFrameAsync destroys res on the cleanup goroutine once the frame
// being recorded has completed on the GPU. Unlike DestroyEndOfFrame it may
// be called from any goroutine, and res.Destroy must tolerate running off the
// frame goroutine.
func (d *Device) DestroyEndOfFrameAsync(res hg.Destroyer) {
	if res != nil && d.drained.Load() {
		res.Destroy()
		return
	}
	d.queue.Destroy(res)
}

// PendingDestroys returns the number of destructions waiting for their
// frame to retire.
func (d *Device) PendingDestroys() int { return d.pacer.Deferred() }
