// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	surface "github.com/patrykniedzwiecki/graphic-standard"
	"github.com/patrykniedzwiecki/graphic-standard/bufferqueue"
	"github.com/patrykniedzwiecki/graphic-standard/internal/cache"
)

// Producer is the producer-facing half of a buffer queue.
// *bufferqueue.Queue implements it; so can a transport stub.
type Producer interface {
	RequestBuffer(cfg surface.BufferRequestConfig) (bufferqueue.RequestResult, error)
	CancelBuffer(sequence uint64, extra surface.ExtraData) error
	FlushBuffer(sequence uint64, acquireFence surface.Fence,
		flushCfg surface.BufferFlushConfig, extra surface.ExtraData) error
	SetQueueSize(n int) error
	QueueSize() int
	CleanCache() error
}

// releaseNotifier is implemented by producers that can report releases,
// letting a Surface wake up as soon as a slot frees instead of polling.
type releaseNotifier interface {
	RegisterReleaseListener(l surface.ReleaseListener)
}

// Surface is the producer's view of a queue. It keeps the buffer last
// received for each slot, so that lazy (nil) buffers in request results
// resolve locally, and it lets the caller name reservations by buffer
// rather than by sequence.
//
// Surface is safe for concurrent use.
type Surface struct {
	p      Producer
	slots  *cache.Cache[int, *surface.Buffer]
	wake   chan struct{}
	poll   time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[surface.BufferID]uint64
	closed   bool
}

// New creates a Surface on p. If p can report releases, the Surface
// registers itself as p's release listener.
func New(p Producer, opts ...Option) *Surface {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Surface{
		p: p,
		slots: cache.New[int, *surface.Buffer](surface.MaxQueueSize, func(_ int, b *surface.Buffer) {
			b.Unref()
		}),
		wake:     make(chan struct{}, 1),
		poll:     o.pollInterval,
		logger:   o.logger,
		inflight: make(map[surface.BufferID]uint64),
	}
	if rn, ok := p.(releaseNotifier); ok {
		rn.RegisterReleaseListener(s)
	}
	return s
}

func (s *Surface) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return surface.Logger()
}

// OnBufferReleased wakes a RequestBuffer waiting for a free slot.
func (s *Surface) OnBufferReleased(surface.BufferID) {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RequestBuffer reserves a buffer. The returned fence must be waited on
// before writing; the caller owns it.
//
// When the queue is full, RequestBuffer waits up to cfg.Timeout for a slot
// to be released (zero fails at once with surface.ErrQueueFull). It fails
// with surface.ErrCacheMiss if the queue answers with an unchanged buffer
// this Surface never received; the reservation is then canceled.
func (s *Surface) RequestBuffer(ctx context.Context, cfg surface.BufferRequestConfig) (*surface.Buffer, surface.Fence, error) {
	if err := s.usable(); err != nil {
		return nil, surface.NoFence, err
	}

	var deadline <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	var ticker *time.Ticker

	for {
		res, err := s.p.RequestBuffer(cfg)
		if err == nil {
			return s.resolve(res)
		}
		if !errors.Is(err, surface.ErrQueueFull) || cfg.Timeout <= 0 {
			return nil, surface.NoFence, err
		}
		if ticker == nil {
			ticker = time.NewTicker(s.poll)
			defer ticker.Stop()
		}
		select {
		case <-ctx.Done():
			return nil, surface.NoFence, ctx.Err()
		case <-deadline:
			return nil, surface.NoFence, fmt.Errorf("%w: no slot freed within %v", err, cfg.Timeout)
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// resolve applies a request result to the slot cache.
func (s *Surface) resolve(res bufferqueue.RequestResult) (*surface.Buffer, surface.Fence, error) {
	if len(res.DeletingBuffers) > 0 {
		gone := make(map[surface.BufferID]bool, len(res.DeletingBuffers))
		for _, id := range res.DeletingBuffers {
			gone[id] = true
		}
		n := s.slots.DeleteFunc(func(_ int, b *surface.Buffer) bool { return gone[b.ID()] })
		s.log().Debug("producer: evicted deleted buffers", "reported", len(gone), "evicted", n)
	}

	idx := bufferqueue.SlotIndex(res.Sequence)
	buf := res.Buffer
	if buf != nil {
		s.slots.Set(idx, buf)
	} else {
		cached, ok := s.slots.Get(idx)
		if !ok {
			surface.CloseFence(res.ReleaseFence)
			if err := s.p.CancelBuffer(res.Sequence, nil); err != nil {
				s.log().Warn("producer: cancel after cache miss", "seq", res.Sequence, "err", err)
			}
			return nil, surface.NoFence, fmt.Errorf("%w: slot %d", surface.ErrCacheMiss, idx)
		}
		buf = cached
	}

	s.mu.Lock()
	s.inflight[buf.ID()] = res.Sequence
	s.mu.Unlock()
	return buf, res.ReleaseFence, nil
}

// sequenceOf returns the reservation of buf.
func (s *Surface) sequenceOf(buf *surface.Buffer) (uint64, error) {
	if buf == nil {
		return 0, fmt.Errorf("%w: nil buffer", surface.ErrInvalidBuffer)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.inflight[buf.ID()]
	if !ok {
		return 0, fmt.Errorf("%w: %v is not requested", surface.ErrInvalidBuffer, buf)
	}
	return seq, nil
}

func (s *Surface) done(buf *surface.Buffer) {
	s.mu.Lock()
	delete(s.inflight, buf.ID())
	s.mu.Unlock()
}

// CancelBuffer gives a requested buffer back without queuing it.
func (s *Surface) CancelBuffer(buf *surface.Buffer, extra surface.ExtraData) error {
	seq, err := s.sequenceOf(buf)
	if err != nil {
		return err
	}
	if err := s.p.CancelBuffer(seq, extra); err != nil {
		return err
	}
	s.done(buf)
	return nil
}

// FlushBuffer queues a requested buffer for the consumer. acquireFence
// passes to the queue only on success.
func (s *Surface) FlushBuffer(buf *surface.Buffer, acquireFence surface.Fence,
	flushCfg surface.BufferFlushConfig, extra surface.ExtraData) error {
	seq, err := s.sequenceOf(buf)
	if err != nil {
		return err
	}
	if err := s.p.FlushBuffer(seq, acquireFence, flushCfg, extra); err != nil {
		return err
	}
	s.done(buf)
	return nil
}

// SetQueueSize changes the queue capacity.
func (s *Surface) SetQueueSize(n int) error { return s.p.SetQueueSize(n) }

// QueueSize returns the queue capacity.
func (s *Surface) QueueSize() int { return s.p.QueueSize() }

// CleanCache asks the queue to drop its free buffers. The local cache
// catches up on the next request, which reports them as deleted.
func (s *Surface) CleanCache() error { return s.p.CleanCache() }

// Cached returns the number of slots with a cached buffer.
func (s *Surface) Cached() int { return s.slots.Len() }

// CacheStats returns the slot cache statistics.
func (s *Surface) CacheStats() cache.Stats { return s.slots.Stats() }

// Close drops every cached buffer reference and detaches from the queue.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clear(s.inflight)
	s.mu.Unlock()

	if rn, ok := s.p.(releaseNotifier); ok {
		rn.RegisterReleaseListener(nil)
	}
	s.slots.Clear()
	return nil
}

func (s *Surface) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("producer: surface closed: %w", surface.ErrQueueClosed)
	}
	return nil
}
