// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"fmt"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

// SlotState is the occupancy state of a slot.
type SlotState int

// Slot states. A slot moves Free -> Requested -> Queued -> Acquired -> Free,
// or Requested -> Free through CancelBuffer.
const (
	StateFree SlotState = iota
	StateRequested
	StateQueued
	StateAcquired
)

// String returns the state name.
func (s SlotState) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateRequested:
		return "REQUESTED"
	case StateQueued:
		return "QUEUED"
	case StateAcquired:
		return "ACQUIRED"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// sequenceIndexBits is the width of the slot index inside a sequence.
const sequenceIndexBits = 8

// SlotIndex returns the slot index encoded in a sequence.
// Remote caches key buffers by slot index, since a null buffer in a
// RequestResult means "the buffer you last received for this slot".
func SlotIndex(sequence uint64) int {
	return int(sequence & (1<<sequenceIndexBits - 1))
}

func makeSequence(generation uint64, index int) uint64 {
	return generation<<sequenceIndexBits | uint64(index)
}

// slot is one reusable entry of the pool.
type slot struct {
	index    int
	buffer   *surface.Buffer
	state    SlotState
	sequence uint64

	acquireFence surface.Fence
	releaseFence surface.Fence

	// lastConfig is the config buffer was allocated for.
	lastConfig surface.BufferRequestConfig

	damage    surface.Rect
	timestamp int64
	extra     surface.ExtraData

	// delivered is set once buffer has been handed to the producer, after
	// which equivalent requests on this slot return a nil buffer.
	delivered bool
}

func newSlot(index int) *slot {
	return &slot{
		index:        index,
		acquireFence: surface.NoFence,
		releaseFence: surface.NoFence,
	}
}

// matches reports whether the slot's buffer can serve cfg unchanged.
func (s *slot) matches(cfg surface.BufferRequestConfig) bool {
	return s.buffer != nil && s.lastConfig.Equal(cfg)
}

// closeFences closes whatever fences the slot still owns.
func (s *slot) closeFences() {
	surface.CloseFence(s.acquireFence)
	surface.CloseFence(s.releaseFence)
	s.acquireFence = surface.NoFence
	s.releaseFence = surface.NoFence
}

// clearFrame forgets the per-flush data.
func (s *slot) clearFrame() {
	s.damage = surface.Rect{}
	s.timestamp = 0
	s.extra = nil
}
