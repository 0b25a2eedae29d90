// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"fmt"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

// pool is the slot table. Every method must be called with the queue lock
// held.
type pool struct {
	slots    []*slot
	capacity int
	alloc    surface.Allocator

	// deleting holds IDs of buffers dropped outside a RequestBuffer call
	// (shrink, CleanCache). They are reported by the next request.
	deleting []surface.BufferID
}

func newPool(capacity int, alloc surface.Allocator) *pool {
	return &pool{
		slots:    make([]*slot, 0, capacity),
		capacity: capacity,
		alloc:    alloc,
	}
}

// selectFreeSlot picks the slot for a request: the lowest FREE slot whose
// buffer already matches cfg, else the lowest FREE slot, else a new slot if
// the table is below capacity. The new slot is not yet part of the table;
// the caller commits it with adopt once allocation succeeded.
func (p *pool) selectFreeSlot(cfg surface.BufferRequestConfig) (s *slot, grown bool, err error) {
	var firstFree *slot
	for _, cand := range p.slots {
		if cand.state != StateFree {
			continue
		}
		if cand.matches(cfg) {
			return cand, false, nil
		}
		if firstFree == nil {
			firstFree = cand
		}
	}
	if firstFree != nil {
		return firstFree, false, nil
	}
	if len(p.slots) < p.capacity {
		return newSlot(len(p.slots)), true, nil
	}
	return nil, false, fmt.Errorf("%w: %d of %d slots in use", surface.ErrQueueFull, len(p.slots), p.capacity)
}

// adopt appends a slot returned by selectFreeSlot with grown set.
func (p *pool) adopt(s *slot) {
	p.slots = append(p.slots, s)
}

// reallocate gives s a new buffer for cfg. The new buffer is allocated
// first, so a failure leaves s untouched. The replaced buffer's ID is
// returned, or 0 if the slot had none.
func (p *pool) reallocate(s *slot, cfg surface.BufferRequestConfig) (surface.BufferID, error) {
	buf, err := p.alloc.Alloc(cfg)
	if err != nil {
		return 0, fmt.Errorf("slot %d: %w", s.index, err)
	}
	var old surface.BufferID
	if s.buffer != nil {
		old = s.buffer.ID()
		s.buffer.Unref()
	}
	s.buffer = buf
	s.lastConfig = cfg
	s.delivered = false
	return old, nil
}

// releaseBuffer drops a FREE slot's buffer and records it as deleting.
func (p *pool) releaseBuffer(s *slot) {
	if s.buffer == nil {
		return
	}
	p.deleting = append(p.deleting, s.buffer.ID())
	s.buffer.Unref()
	s.buffer = nil
	s.lastConfig = surface.BufferRequestConfig{}
	s.delivered = false
}

// resize changes the capacity. Shrinking drops the slots at index >= n and
// fails with ErrQueueBusy, changing nothing, if any of them is in use.
func (p *pool) resize(n int) error {
	if n < len(p.slots) {
		for _, s := range p.slots[n:] {
			if s.state != StateFree {
				return fmt.Errorf("%w: slot %d is %v", surface.ErrQueueBusy, s.index, s.state)
			}
		}
		for _, s := range p.slots[n:] {
			p.releaseBuffer(s)
			s.closeFences()
		}
		clear(p.slots[n:])
		p.slots = p.slots[:n]
	}
	p.capacity = n
	return nil
}

// cleanCache drops the buffers of all FREE slots.
func (p *pool) cleanCache() int {
	n := 0
	for _, s := range p.slots {
		if s.state == StateFree && s.buffer != nil {
			p.releaseBuffer(s)
			n++
		}
	}
	return n
}

// drainDeleting returns and clears the pending deleting list.
func (p *pool) drainDeleting() []surface.BufferID {
	d := p.deleting
	p.deleting = nil
	return d
}

// lookup returns the slot currently named by sequence, or nil.
func (p *pool) lookup(sequence uint64) *slot {
	idx := SlotIndex(sequence)
	if idx >= len(p.slots) {
		return nil
	}
	s := p.slots[idx]
	if s.sequence != sequence {
		return nil
	}
	return s
}

// findAcquired returns the ACQUIRED slot holding buf, or nil.
func (p *pool) findAcquired(buf *surface.Buffer) *slot {
	if buf == nil {
		return nil
	}
	for _, s := range p.slots {
		if s.state == StateAcquired && s.buffer != nil && s.buffer.ID() == buf.ID() {
			return s
		}
	}
	return nil
}

// countStates returns the number of slots per state.
func (p *pool) countStates() (free, requested, queued, acquired int) {
	for _, s := range p.slots {
		switch s.state {
		case StateFree:
			free++
		case StateRequested:
			requested++
		case StateQueued:
			queued++
		case StateAcquired:
			acquired++
		}
	}
	return free, requested, queued, acquired
}

// destroy frees every buffer and fence.
func (p *pool) destroy() {
	for _, s := range p.slots {
		if s.buffer != nil {
			s.buffer.Unref()
			s.buffer = nil
		}
		s.closeFences()
		s.state = StateFree
	}
	p.slots = nil
	p.deleting = nil
}
