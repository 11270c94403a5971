// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hg

// Queue receives recorded work and synchronization items in order.
type Queue interface {
	// Submit enqueues items. Signal items complete when all previously
	// submitted work has finished executing on the GPU.
	Submit(items ...QueueItem) error

	// WriteBuffer copies data into buf at offset. The copy is ordered
	// before any work submitted afterwards.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
}

// QueueItemKind selects what a QueueItem does.
type QueueItemKind uint8

const (
	// QueueSignal signals Semaphore with Value once prior work completes.
	QueueSignal QueueItemKind = iota
	// QueueWait holds later work until Semaphore reaches Value.
	QueueWait
	// QueuePrepareTexture transitions Texture into a sampleable state.
	QueuePrepareTexture
)

func (k QueueItemKind) String() string {
	switch k {
	case QueueSignal:
		return "signal"
	case QueueWait:
		return "wait"
	case QueuePrepareTexture:
		return "prepare-texture"
	default:
		return "unknown"
	}
}

// Stage is the pipeline stage a queue item synchronizes against.
type Stage uint8

const (
	StageAllCommands Stage = iota
	StageTransfer
	StageVertexShader
	StageFragmentShader
	StageColorOutput
)

// QueueItem is one entry in the submission stream.
type QueueItem struct {
	Kind      QueueItemKind
	Semaphore Semaphore
	Value     uint64
	Stage     Stage
	Texture   Texture
}

// Signal returns a QueueSignal item.
func Signal(sem Semaphore, value uint64, stage Stage) QueueItem {
	return QueueItem{Kind: QueueSignal, Semaphore: sem, Value: value, Stage: stage}
}

// Wait returns a QueueWait item.
func Wait(sem Semaphore, value uint64, stage Stage) QueueItem {
	return QueueItem{Kind: QueueWait, Semaphore: sem, Value: value, Stage: stage}
}

// PrepareTexture returns a QueuePrepareTexture item.
func PrepareTexture(tex Texture) QueueItem {
	return QueueItem{Kind: QueuePrepareTexture, Texture: tex, Stage: StageFragmentShader}
}
