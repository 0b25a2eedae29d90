// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"sync/atomic"
)

// MemoryAllocator allocates buffers in host memory.
// It ignores GPU usage flags and is always available.
type MemoryAllocator struct {
	live  atomic.Int64
	bytes atomic.Int64
}

// NewMemoryAllocator creates a host memory allocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{}
}

// Name returns "memory".
func (a *MemoryAllocator) Name() string { return AllocatorMemory }

// Alloc allocates Stride*Height zeroed bytes.
func (a *MemoryAllocator) Alloc(cfg BufferRequestConfig) (*Buffer, error) {
	size := cfg.Size()
	if size <= 0 {
		return nil, fmt.Errorf("%w: %v has no size", ErrAllocFailed, cfg)
	}
	pix := make([]byte, size)
	a.live.Add(1)
	a.bytes.Add(int64(size))
	return NewBuffer(cfg, Backing{Pixels: pix}, func() {
		a.live.Add(-1)
		a.bytes.Add(-int64(size))
	}), nil
}

// Live returns the number of buffers not yet freed.
func (a *MemoryAllocator) Live() int { return int(a.live.Load()) }

// Bytes returns the memory held by live buffers.
func (a *MemoryAllocator) Bytes() int64 { return a.bytes.Load() }
