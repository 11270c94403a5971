// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import "github.com/gogpu/gpudevice/hg"

// MaxFramesInFlight is the number of frames the host may run ahead of the
// GPU, and the number of destruction slots.
const MaxFramesInFlight = 3

// Ring holds the deferred destructions of the last MaxFramesInFlight frames.
// Frame f uses slot f % MaxFramesInFlight.
type Ring struct {
	slots [MaxFramesInFlight][]hg.Destroyer
}

// Slot returns the slot index of frame f.
func Slot(f uint64) int { return int(f % MaxFramesInFlight) }

// Append adds d to the slot of frame f.
func (r *Ring) Append(f uint64, d ...hg.Destroyer) {
	s := Slot(f)
	r.slots[s] = append(r.slots[s], d...)
}

// Take empties the slot of frame f and returns its previous contents.
func (r *Ring) Take(f uint64) []hg.Destroyer {
	s := Slot(f)
	ds := r.slots[s]
	r.slots[s] = nil
	return ds
}

// Len returns the number of entries in the slot of frame f.
func (r *Ring) Len(f uint64) int { return len(r.slots[Slot(f)]) }

// Total returns the number of entries in all slots.
func (r *Ring) Total() int {
	n := 0
	for _, s := range r.slots {
		n += len(s)
	}
	return n
}
