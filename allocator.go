// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Allocator creates buffers for a queue. Buffers are freed by dropping
// their last reference with Buffer.Unref.
//
// Implementations must be safe for concurrent use.
type Allocator interface {
	// Alloc creates a buffer for cfg. cfg has already been validated.
	Alloc(cfg BufferRequestConfig) (*Buffer, error)

	// Name identifies the allocator in logs and in the registry.
	Name() string
}

// Names of the built-in allocators.
const (
	AllocatorHAL    = "hal"
	AllocatorMemory = "memory"
)

// allocators holds the registered allocator factories. HAL allocators are
// preferred over host memory when both are registered.
var allocators = gpucontext.NewRegistry[Allocator](
	gpucontext.WithPriority(AllocatorHAL, AllocatorMemory),
)

func init() {
	RegisterAllocator(AllocatorMemory, func() Allocator { return NewMemoryAllocator() })
}

// RegisterAllocator adds an allocator factory under name, replacing any
// previous factory with the same name.
func RegisterAllocator(name string, factory func() Allocator) {
	allocators.Register(name, factory)
}

// UnregisterAllocator removes the factory registered under name.
func UnregisterAllocator(name string) {
	allocators.Unregister(name)
}

// NewAllocator creates the allocator registered under name.
// Returns an error wrapping ErrNoAllocator if there is none.
func NewAllocator(name string) (Allocator, error) {
	if !allocators.Has(name) {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrNoAllocator, name, Allocators())
	}
	a := allocators.Get(name)
	if a == nil {
		return nil, fmt.Errorf("%w: %q factory returned nil", ErrNoAllocator, name)
	}
	return a, nil
}

// DefaultAllocator returns the highest-priority registered allocator.
// The memory allocator is always registered, so this never returns nil
// unless it was explicitly unregistered.
func DefaultAllocator() Allocator {
	return allocators.Best()
}

// Allocators returns the registered allocator names, sorted.
func Allocators() []string {
	names := allocators.Available()
	slices.Sort(names)
	return names
}
