// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"fmt"
	"strings"
)

// counters are the running totals kept under the queue lock.
type counters struct {
	requests      uint64
	lazyHits      uint64
	reallocations uint64
	flushes       uint64
	acquires      uint64
	releases      uint64
	cancels       uint64
	queueFull     uint64
}

// Stats is a snapshot of queue activity.
type Stats struct {
	// Requests counts successful RequestBuffer calls.
	Requests uint64
	// LazyHits counts requests answered with a nil buffer.
	LazyHits uint64
	// Reallocations counts buffers allocated for a slot.
	Reallocations uint64
	Flushes       uint64
	Acquires      uint64
	Releases      uint64
	Cancels       uint64
	// QueueFull counts requests rejected with ErrQueueFull.
	QueueFull uint64

	Capacity int
	Slots    int
	Free     int
	// Requested, Queued and Acquired count slots in each state.
	Requested int
	Queued    int
	Acquired  int
}

// Stats returns a snapshot of the queue's counters and slot states.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	free, requested, queued, acquired := q.pool.countStates()
	c := q.stats
	return Stats{
		Requests:      c.requests,
		LazyHits:      c.lazyHits,
		Reallocations: c.reallocations,
		Flushes:       c.flushes,
		Acquires:      c.acquires,
		Releases:      c.releases,
		Cancels:       c.cancels,
		QueueFull:     c.queueFull,
		Capacity:      q.pool.capacity,
		Slots:         len(q.pool.slots),
		Free:          free,
		Requested:     requested,
		Queued:        queued,
		Acquired:      acquired,
	}
}

// String formats the snapshot on one line.
func (s Stats) String() string {
	return fmt.Sprintf("capacity=%d slots=%d free=%d requested=%d queued=%d acquired=%d "+
		"requests=%d lazy=%d realloc=%d flushes=%d acquires=%d releases=%d cancels=%d full=%d",
		s.Capacity, s.Slots, s.Free, s.Requested, s.Queued, s.Acquired,
		s.Requests, s.LazyHits, s.Reallocations, s.Flushes, s.Acquires, s.Releases, s.Cancels, s.QueueFull)
}

// Dump returns a multi-line description of every slot, for debugging.
func (q *Queue) Dump() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "queue %q capacity=%d slots=%d queued=%d closed=%v\n",
		q.name, q.pool.capacity, len(q.pool.slots), q.queued.Length(), q.closed)
	for _, s := range q.pool.slots {
		fmt.Fprintf(&sb, "  [%d] %-9v seq=%d", s.index, s.state, s.sequence)
		if s.buffer != nil {
			fmt.Fprintf(&sb, " %v delivered=%v", s.buffer, s.delivered)
		} else {
			sb.WriteString(" <no buffer>")
		}
		if s.state == StateQueued || s.state == StateAcquired {
			fmt.Fprintf(&sb, " damage=%+v ts=%d", s.damage, s.timestamp)
		}
		sb.WriteByte('\n')
	}
	if n := len(q.pool.deleting); n > 0 {
		fmt.Fprintf(&sb, "  pending deletions: %v\n", q.pool.deleting)
	}
	return sb.String()
}
