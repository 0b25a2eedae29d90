// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"sync"
	"time"
)

// Fence is a sync fence: a file descriptor that becomes readable once the
// work it guards has finished. Ownership of a Fence passes with the call
// that accepts it; the owner must Close it.
type Fence int32

// NoFence is the already-signaled fence. Waiting on it returns at once and
// closing it does nothing.
const NoFence Fence = -1

// IsValid reports whether f holds a descriptor.
func (f Fence) IsValid() bool { return f >= 0 }

// Wait blocks until f is signaled or timeout expires.
// A negative timeout waits forever; zero only polls.
// Returns an error wrapping ErrFenceTimeout on expiry.
func (f Fence) Wait(timeout time.Duration) error {
	if !f.IsValid() {
		return nil
	}
	ok, err := pollReadable(int(f), timeout)
	if err != nil {
		return fmt.Errorf("surface: wait fence %d: %w", int32(f), err)
	}
	if !ok {
		return fmt.Errorf("%w: fence %d after %v", ErrFenceTimeout, int32(f), timeout)
	}
	return nil
}

// Signaled reports whether f is already signaled, without blocking.
func (f Fence) Signaled() bool {
	return f.Wait(0) == nil
}

// Dup returns an independent descriptor for the same fence.
// Duplicating NoFence returns NoFence.
func (f Fence) Dup() (Fence, error) {
	if !f.IsValid() {
		return NoFence, nil
	}
	fd, err := dupFD(int(f))
	if err != nil {
		return NoFence, fmt.Errorf("surface: dup fence %d: %w", int32(f), err)
	}
	return Fence(fd), nil
}

// Close releases the descriptor. Closing NoFence is a no-op.
func (f Fence) Close() error {
	if !f.IsValid() {
		return nil
	}
	if err := closeFD(int(f)); err != nil {
		return fmt.Errorf("surface: close fence %d: %w", int32(f), err)
	}
	return nil
}

// CloseFence closes f and logs a failure instead of returning it.
// Used where a fence is discarded and nobody can act on the error.
func CloseFence(f Fence) {
	if err := f.Close(); err != nil {
		Logger().Warn("surface: fence close failed", "fence", int32(f), "err", err)
	}
}

// FenceSignaler creates fences and signals them from the producing side.
// Every Fence handed out by the signaler is a duplicate descriptor owned by
// the caller; all of them become signaled together.
type FenceSignaler struct {
	mu       sync.Mutex
	fd       int
	closed   bool
	signaled bool
}

// NewFenceSignaler creates an unsignaled signaler.
// On platforms without sync fences it returns ErrFenceUnsupported.
func NewFenceSignaler() (*FenceSignaler, error) {
	fd, err := newEventFD()
	if err != nil {
		return nil, fmt.Errorf("surface: create fence: %w", err)
	}
	return &FenceSignaler{fd: fd}, nil
}

// Fence returns a new descriptor for the signaler's fence.
func (s *FenceSignaler) Fence() (Fence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NoFence, fmt.Errorf("surface: fence signaler closed")
	}
	fd, err := dupFD(s.fd)
	if err != nil {
		return NoFence, fmt.Errorf("surface: dup fence: %w", err)
	}
	return Fence(fd), nil
}

// Signal marks the fence as signaled. Signaling twice is a no-op.
func (s *FenceSignaler) Signal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("surface: fence signaler closed")
	}
	if s.signaled {
		return nil
	}
	if err := signalFD(s.fd); err != nil {
		return fmt.Errorf("surface: signal fence: %w", err)
	}
	s.signaled = true
	return nil
}

// Signaled reports whether Signal has succeeded.
func (s *FenceSignaler) Signaled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signaled
}

// Close releases the signaler's own descriptor. Fences already handed out
// stay valid; if Signal was never called they never become signaled.
func (s *FenceSignaler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return closeFD(s.fd)
}

// NewSignaledFence returns a fence that is already signaled. Unlike NoFence
// it holds a real descriptor, so it exercises the same ownership path as
// fences produced by GPU work.
func NewSignaledFence() (Fence, error) {
	s, err := NewFenceSignaler()
	if err != nil {
		return NoFence, err
	}
	defer func() { _ = s.Close() }()
	if err := s.Signal(); err != nil {
		return NoFence, err
	}
	return s.Fence()
}
