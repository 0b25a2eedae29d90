// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bufferqueue implements the buffer queue between a producer and a
// consumer of image buffers.
//
// A Queue owns a bounded table of slots. Each slot holds one reusable
// buffer and moves through
//
//	FREE -> REQUESTED -> QUEUED -> ACQUIRED -> FREE
//
// with REQUESTED -> FREE through CancelBuffer. The producer calls
// RequestBuffer, draws, then FlushBuffer; the consumer calls AcquireBuffer,
// reads, then ReleaseBuffer. Buffers are acquired in flush order.
//
// # Lazy transfer
//
// RequestBuffer returns a nil buffer when the chosen slot's buffer already
// matches the request and was delivered before. A nil buffer is a valid
// answer meaning "unchanged"; the producer keeps a cache keyed by
// SlotIndex(sequence). When a slot's buffer is replaced, the old buffer's
// ID is listed in DeletingBuffers so the cache can drop it. The producer
// package implements such a cache.
//
// # Notifications
//
// FlushBuffer calls the consumer listener after the queue lock is released
// and before it returns. A listener may call back into the queue, but
// should post AcquireBuffer to another goroutine rather than run the frame
// inline: the producer is blocked until the listener returns.
//
// # Errors
//
// Operations fail with errors wrapping the sentinels of the surface
// package (ErrQueueFull, ErrInvalidSequence, ...) and leave the queue
// unchanged when they do. The queue never blocks and never retries.
package bufferqueue
