// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// ConsumerListener is told when a buffer has been queued for consumption.
//
// OnBufferAvailable runs on the flushing goroutine after the queue lock is
// released. It may call back into the queue, but heavy work should be
// posted elsewhere: the flush does not return until the listener does.
type ConsumerListener interface {
	OnBufferAvailable()
}

// ConsumerListenerFunc adapts a function to ConsumerListener.
type ConsumerListenerFunc func()

// OnBufferAvailable calls f.
func (f ConsumerListenerFunc) OnBufferAvailable() { f() }

// ReleaseListener is told when a consumer returns a buffer to the free
// state. Same calling rules as ConsumerListener.
type ReleaseListener interface {
	OnBufferReleased(id BufferID)
}

// ReleaseListenerFunc adapts a function to ReleaseListener.
type ReleaseListenerFunc func(id BufferID)

// OnBufferReleased calls f.
func (f ReleaseListenerFunc) OnBufferReleased(id BufferID) { f(id) }
