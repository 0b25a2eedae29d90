// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU cache with an eviction callback.
//
// The producer side of a buffer queue uses it to remember the buffer it
// last received for each slot, so that a lazy (nil) buffer in a request
// result can be resolved locally. The eviction callback drops the cache's
// buffer reference.
//
//	c := cache.New[int, *surface.Buffer](surface.MaxQueueSize,
//	    func(_ int, b *surface.Buffer) { b.Unref() })
//	c.Set(slot, buf)
//	buf, ok := c.Get(slot)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
