// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eapache/queue"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

// RequestResult is what RequestBuffer hands to the producer.
type RequestResult struct {
	// Sequence names the reservation in later calls.
	Sequence uint64

	// Buffer is nil when the slot's buffer is unchanged since it was last
	// delivered for this slot; the producer must use its cached copy.
	// A non-nil Buffer carries a reference owned by the caller.
	Buffer *surface.Buffer

	// DeletingBuffers lists buffers the queue dropped since the previous
	// request. Producers must evict them from their caches.
	DeletingBuffers []surface.BufferID

	// ReleaseFence must be waited on before writing the buffer.
	// The caller owns it.
	ReleaseFence surface.Fence
}

// AcquireResult is what AcquireBuffer hands to the consumer.
type AcquireResult struct {
	Sequence uint64

	// Buffer is never nil. It is borrowed until ReleaseBuffer.
	Buffer *surface.Buffer

	// AcquireFence must be waited on before reading the buffer.
	// The caller owns it.
	AcquireFence surface.Fence

	// Timestamp is the presentation time in nanoseconds.
	Timestamp int64

	// Damage is the changed region, clipped to the buffer.
	Damage surface.Rect

	// ExtraData is the metadata attached at flush, or nil.
	ExtraData surface.ExtraData
}

// Queue is the buffer queue: a bounded pool of slots and the state machine
// governing which side owns each slot.
//
// All operations are serialized by one mutex and never block on anything
// else. Failed operations leave the queue unchanged. Listeners are called
// on the caller's goroutine after the mutex is released, before the
// operation returns.
//
// Queue is safe for concurrent use.
type Queue struct {
	mu sync.Mutex

	name        string
	initialized bool
	closed      bool

	pool       *pool
	queued     *queue.Queue // of *slot, in flush order
	generation uint64
	stats      counters

	defaultSize int
	logger      *slog.Logger

	notify notifier
}

// New creates a queue. It must be initialized with Init before use.
func New(opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	alloc := o.allocator
	if alloc == nil {
		alloc = surface.DefaultAllocator()
	}
	return &Queue{
		pool:        newPool(o.queueSize, alloc),
		queued:      queue.New(),
		defaultSize: o.queueSize,
		logger:      o.logger,
	}
}

func (q *Queue) log() *slog.Logger {
	if q.logger != nil {
		return q.logger
	}
	return surface.Logger()
}

// Init names the queue and makes it usable with the default capacity.
// A second Init changes nothing and returns surface.ErrAlreadyInitialized.
func (q *Queue) Init(name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return surface.ErrQueueClosed
	}
	if q.initialized {
		return fmt.Errorf("%w: %q", surface.ErrAlreadyInitialized, q.name)
	}
	if q.pool.alloc == nil {
		return fmt.Errorf("%w: no allocator for queue %q", surface.ErrNoAllocator, name)
	}
	q.name = name
	q.initialized = true
	q.pool.capacity = q.defaultSize
	q.log().Info("bufferqueue: init", "queue", name, "capacity", q.defaultSize, "allocator", q.pool.alloc.Name())
	return nil
}

// usable reports why the queue cannot serve calls. Caller holds q.mu.
func (q *Queue) usable() error {
	if q.closed {
		return surface.ErrQueueClosed
	}
	if !q.initialized {
		return surface.ErrNotInitialized
	}
	return nil
}

// Name returns the name given to Init.
func (q *Queue) Name() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.name
}

// RequestBuffer reserves a FREE slot for the producer. See RequestResult
// for the lazy-transfer rule. Fails with surface.ErrBadConfig for an invalid
// cfg and surface.ErrQueueFull when every slot is in use at capacity; the
// queue never waits for a slot.
func (q *Queue) RequestBuffer(cfg surface.BufferRequestConfig) (RequestResult, error) {
	if err := cfg.Validate(); err != nil {
		return RequestResult{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.usable(); err != nil {
		return RequestResult{}, err
	}

	s, grown, err := q.pool.selectFreeSlot(cfg)
	if err != nil {
		q.stats.queueFull++
		q.log().Debug("bufferqueue: request rejected", "queue", q.name, "err", err)
		return RequestResult{}, err
	}

	var realloced surface.BufferID
	if !s.matches(cfg) {
		old, err := q.pool.reallocate(s, cfg)
		if err != nil {
			q.log().Warn("bufferqueue: allocation failed", "queue", q.name, "config", cfg, "err", err)
			return RequestResult{}, err
		}
		realloced = old
		q.stats.reallocations++
	}
	if grown {
		q.pool.adopt(s)
	}

	q.generation++
	s.sequence = makeSequence(q.generation, s.index)
	s.state = StateRequested
	s.clearFrame()

	res := RequestResult{
		Sequence:        s.sequence,
		DeletingBuffers: q.pool.drainDeleting(),
		ReleaseFence:    s.releaseFence,
	}
	s.releaseFence = surface.NoFence
	if realloced != 0 {
		res.DeletingBuffers = append(res.DeletingBuffers, realloced)
	}
	if s.delivered {
		q.stats.lazyHits++
	} else {
		res.Buffer = s.buffer.Ref()
		s.delivered = true
	}
	q.stats.requests++

	q.log().Debug("bufferqueue: requested",
		"queue", q.name, "slot", s.index, "seq", s.sequence,
		"lazy", res.Buffer == nil, "deleting", len(res.DeletingBuffers))
	return res, nil
}

// CancelBuffer returns a REQUESTED slot to FREE without queuing it.
// extra, if non-nil, is recorded on the buffer as its latest producer
// metadata; it is never delivered to the consumer. Fails with
// surface.ErrInvalidSequence unless sequence names a REQUESTED slot.
func (q *Queue) CancelBuffer(sequence uint64, extra surface.ExtraData) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.usable(); err != nil {
		return err
	}
	s, err := q.slotIn(sequence, StateRequested)
	if err != nil {
		return err
	}
	s.state = StateFree
	s.clearFrame()
	s.buffer.SetExtraData(extra)
	q.stats.cancels++
	q.log().Debug("bufferqueue: canceled", "queue", q.name, "slot", s.index, "seq", sequence)
	return nil
}

// FlushBuffer queues a REQUESTED slot for the consumer and notifies the
// consumer listener. acquireFence passes to the queue only on success.
// Fails with surface.ErrBadConfig for an invalid flushCfg and
// surface.ErrInvalidSequence unless sequence names a REQUESTED slot.
func (q *Queue) FlushBuffer(sequence uint64, acquireFence surface.Fence,
	flushCfg surface.BufferFlushConfig, extra surface.ExtraData) error {
	if err := flushCfg.Validate(); err != nil {
		return err
	}

	q.mu.Lock()
	if err := q.usable(); err != nil {
		q.mu.Unlock()
		return err
	}
	s, err := q.slotIn(sequence, StateRequested)
	if err != nil {
		q.mu.Unlock()
		return err
	}

	s.state = StateQueued
	s.acquireFence = acquireFence
	s.damage = flushCfg.DamageWithin(s.lastConfig.Width, s.lastConfig.Height)
	s.timestamp = flushCfg.Timestamp
	if s.timestamp == 0 {
		s.timestamp = time.Now().UnixNano()
	}
	s.extra = extra.Clone()
	s.buffer.SetExtraData(extra)
	q.queued.Add(s)
	q.stats.flushes++
	q.log().Debug("bufferqueue: flushed",
		"queue", q.name, "slot", s.index, "seq", sequence, "queued", q.queued.Length())
	q.mu.Unlock()

	q.notify.bufferAvailable()
	return nil
}

// AcquireBuffer hands the oldest QUEUED slot to the consumer.
// Fails with surface.ErrNoBuffer when nothing is queued.
func (q *Queue) AcquireBuffer() (AcquireResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.usable(); err != nil {
		return AcquireResult{}, err
	}
	if q.queued.Length() == 0 {
		return AcquireResult{}, surface.ErrNoBuffer
	}
	s := q.queued.Remove().(*slot)
	s.state = StateAcquired

	res := AcquireResult{
		Sequence:     s.sequence,
		Buffer:       s.buffer,
		AcquireFence: s.acquireFence,
		Timestamp:    s.timestamp,
		Damage:       s.damage,
		ExtraData:    s.extra.Clone(),
	}
	s.acquireFence = surface.NoFence
	q.stats.acquires++
	q.log().Debug("bufferqueue: acquired", "queue", q.name, "slot", s.index, "seq", s.sequence)
	return res, nil
}

// ReleaseBuffer returns an ACQUIRED slot to FREE. releaseFence passes to
// the queue only on success and is handed to the producer by the next
// request for the slot. Fails with surface.ErrInvalidSequence unless
// sequence names an ACQUIRED slot.
func (q *Queue) ReleaseBuffer(sequence uint64, releaseFence surface.Fence) error {
	q.mu.Lock()
	if err := q.usable(); err != nil {
		q.mu.Unlock()
		return err
	}
	s, err := q.slotIn(sequence, StateAcquired)
	if err != nil {
		q.mu.Unlock()
		return err
	}
	id := q.release(s, releaseFence)
	q.mu.Unlock()

	q.notify.bufferReleased(id)
	return nil
}

// ReleaseBufferHandle is ReleaseBuffer keyed by the buffer instead of the
// sequence. Fails with surface.ErrInvalidBuffer unless buf is held by an
// ACQUIRED slot.
func (q *Queue) ReleaseBufferHandle(buf *surface.Buffer, releaseFence surface.Fence) error {
	q.mu.Lock()
	if err := q.usable(); err != nil {
		q.mu.Unlock()
		return err
	}
	s := q.pool.findAcquired(buf)
	if s == nil {
		q.mu.Unlock()
		q.log().Warn("bufferqueue: release of buffer not acquired", "queue", q.name, "buffer", buf)
		return fmt.Errorf("%w: %v is not acquired", surface.ErrInvalidBuffer, buf)
	}
	id := q.release(s, releaseFence)
	q.mu.Unlock()

	q.notify.bufferReleased(id)
	return nil
}

// release moves s from ACQUIRED to FREE. Caller holds q.mu.
func (q *Queue) release(s *slot, releaseFence surface.Fence) surface.BufferID {
	surface.CloseFence(s.releaseFence)
	s.releaseFence = releaseFence
	s.state = StateFree
	q.stats.releases++
	q.log().Debug("bufferqueue: released", "queue", q.name, "slot", s.index, "seq", s.sequence)
	return s.buffer.ID()
}

// slotIn returns the slot named by sequence if it is in state want.
// Caller holds q.mu.
func (q *Queue) slotIn(sequence uint64, want SlotState) (*slot, error) {
	s := q.pool.lookup(sequence)
	if s == nil {
		q.log().Warn("bufferqueue: unknown sequence", "queue", q.name, "seq", sequence, "want", want)
		return nil, fmt.Errorf("%w: %d is unknown", surface.ErrInvalidSequence, sequence)
	}
	if s.state != want {
		q.log().Warn("bufferqueue: sequence in wrong state",
			"queue", q.name, "seq", sequence, "state", s.state, "want", want)
		return nil, fmt.Errorf("%w: %d is %v, want %v", surface.ErrInvalidSequence, sequence, s.state, want)
	}
	return s, nil
}

// SetQueueSize changes the capacity. Fails with surface.ErrOutOfRange for
// n outside [1, surface.MaxQueueSize]. Shrinking drops the slots at index
// n and above and fails with surface.ErrQueueBusy, changing nothing, unless
// all of them are FREE. Dropped buffers are reported by the next request.
func (q *Queue) SetQueueSize(n int) error {
	if n < 1 || n > surface.MaxQueueSize {
		return fmt.Errorf("%w: %d not in [1, %d]", surface.ErrOutOfRange, n, surface.MaxQueueSize)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.usable(); err != nil {
		return err
	}
	old := q.pool.capacity
	if err := q.pool.resize(n); err != nil {
		q.log().Debug("bufferqueue: resize rejected", "queue", q.name, "from", old, "to", n, "err", err)
		return err
	}
	q.log().Info("bufferqueue: resized", "queue", q.name, "from", old, "to", n)
	return nil
}

// QueueSize returns the capacity. Before Init it is the configured default.
func (q *Queue) QueueSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pool.capacity
}

// RegisterConsumerListener sets the listener told about flushed buffers,
// replacing any previous one. The listener runs inside FlushBuffer on the
// producer's goroutine; it should post the actual AcquireBuffer elsewhere.
func (q *Queue) RegisterConsumerListener(l surface.ConsumerListener) error {
	q.mu.Lock()
	err := q.usable()
	q.mu.Unlock()
	if err != nil {
		return err
	}
	q.notify.setConsumer(l)
	return nil
}

// UnregisterConsumerListener removes the consumer listener.
func (q *Queue) UnregisterConsumerListener() {
	q.notify.setConsumer(nil)
}

// RegisterReleaseListener sets the listener told when a slot returns to
// FREE through a release, replacing any previous one. Nil removes it.
func (q *Queue) RegisterReleaseListener(l surface.ReleaseListener) {
	q.notify.setRelease(l)
}

// CleanCache drops the buffers of all FREE slots. The dropped buffers are
// reported by the next request, which will allocate afresh.
func (q *Queue) CleanCache() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.usable(); err != nil {
		return err
	}
	n := q.pool.cleanCache()
	q.log().Debug("bufferqueue: cache cleaned", "queue", q.name, "dropped", n)
	return nil
}

// Close frees every buffer and every fence the queue still owns, and drops
// the listeners. Later calls fail with surface.ErrQueueClosed. Close is
// idempotent.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for q.queued.Length() > 0 {
		q.queued.Remove()
	}
	q.pool.destroy()
	q.notify.reset()
	q.log().Info("bufferqueue: closed", "queue", q.name)
	return nil
}
