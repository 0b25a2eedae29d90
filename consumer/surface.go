// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package consumer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	surface "github.com/patrykniedzwiecki/graphic-standard"
	"github.com/patrykniedzwiecki/graphic-standard/bufferqueue"
	"github.com/patrykniedzwiecki/graphic-standard/internal/parallel"
)

// Consumer is the consumer-facing half of a buffer queue.
// *bufferqueue.Queue implements it.
type Consumer interface {
	AcquireBuffer() (bufferqueue.AcquireResult, error)
	ReleaseBuffer(sequence uint64, releaseFence surface.Fence) error
	RegisterConsumerListener(l surface.ConsumerListener) error
	UnregisterConsumerListener()
}

// Handler processes one acquired frame. The buffer may be read until the
// handler returns. The returned fence, owned by the queue from then on,
// tells the producer when the consumer is really done with the buffer;
// return surface.NoFence if reading finished synchronously.
type Handler interface {
	HandleFrame(frame bufferqueue.AcquireResult) (surface.Fence, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(frame bufferqueue.AcquireResult) (surface.Fence, error)

// HandleFrame calls f.
func (f HandlerFunc) HandleFrame(frame bufferqueue.AcquireResult) (surface.Fence, error) {
	return f(frame)
}

// Stats counts frames seen by a Surface.
type Stats struct {
	// Handled frames reached the handler.
	Handled uint64
	// Failed frames reached the handler and it returned an error.
	Failed uint64
	// Dropped frames were released without reaching the handler because
	// their acquire fence did not signal in time.
	Dropped uint64
}

// Surface drives a Consumer. Every availability notification is posted as
// a task onto a single worker, so frames are handled one at a time in
// queue order and never on the producer's goroutine.
//
// Surface is safe for concurrent use.
type Surface struct {
	c            Consumer
	h            Handler
	fenceTimeout time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	worker  *parallel.WorkerPool
	started bool
	closed  bool

	handled atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a Surface that hands frames from c to h. Nothing happens
// until Start.
func New(c Consumer, h Handler, opts ...Option) *Surface {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Surface{
		c:            c,
		h:            h,
		fenceTimeout: o.fenceTimeout,
		logger:       o.logger,
	}
}

func (s *Surface) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return surface.Logger()
}

// Start registers the Surface as the consumer listener. Frames queued
// before Start stay queued until the next notification; call Drain to
// pick them up.
func (s *Surface) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("consumer: surface closed: %w", surface.ErrQueueClosed)
	}
	if s.started {
		return nil
	}
	// One task per queued buffer is pending at most.
	s.worker = parallel.NewWorkerPool(1, 2*surface.MaxQueueSize)
	if err := s.c.RegisterConsumerListener(s); err != nil {
		s.worker.Close()
		s.worker = nil
		return err
	}
	s.started = true
	s.log().Info("consumer: started")
	return nil
}

// OnBufferAvailable posts one acquire task.
func (s *Surface) OnBufferAvailable() {
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	if w == nil || !w.Submit(s.consumeOne) {
		s.log().Debug("consumer: notification after close ignored")
	}
}

// Drain handles every frame currently queued on the calling goroutine and
// returns how many it took. It is meant for frames queued before Start
// and for consumers that poll instead of listening.
func (s *Surface) Drain() int {
	n := 0
	for s.consumeOne() {
		n++
	}
	return n
}

// consumeOne acquires, waits, handles and releases a single frame.
// It reports whether a frame was acquired.
func (s *Surface) consumeOne() bool {
	frame, err := s.c.AcquireBuffer()
	if err != nil {
		if !errors.Is(err, surface.ErrNoBuffer) {
			s.log().Warn("consumer: acquire failed", "err", err)
		}
		return false
	}

	release := surface.NoFence
	if err := frame.AcquireFence.Wait(s.fenceTimeout); err != nil {
		s.dropped.Add(1)
		s.log().Warn("consumer: dropping frame", "seq", frame.Sequence, "err", err)
	} else {
		release, err = s.h.HandleFrame(frame)
		s.handled.Add(1)
		if err != nil {
			s.failed.Add(1)
			s.log().Warn("consumer: handler failed", "seq", frame.Sequence, "err", err)
		}
	}
	surface.CloseFence(frame.AcquireFence)

	if err := s.c.ReleaseBuffer(frame.Sequence, release); err != nil {
		surface.CloseFence(release)
		s.log().Warn("consumer: release failed", "seq", frame.Sequence, "err", err)
	}
	return true
}

// Stats returns the frame counters.
func (s *Surface) Stats() Stats {
	return Stats{
		Handled: s.handled.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}

// Close unregisters the listener and waits for every posted task to run.
// Close is safe to call multiple times.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.worker
	started := s.started
	s.mu.Unlock()

	if started {
		s.c.UnregisterConsumerListener()
	}
	if w != nil {
		w.Close()
	}
	s.log().Info("consumer: closed", "handled", s.handled.Load(), "dropped", s.dropped.Load())
	return nil
}
