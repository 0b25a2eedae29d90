// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// HALAllocator creates a GPU texture per buffer on a HAL device.
// Buffers whose usage is host visible also get a CPU shadow of
// Stride*Height bytes so producers can paint them directly.
type HALAllocator struct {
	dev  hal.Device
	live atomic.Int64
}

// NewHALAllocator creates an allocator on dev. dev must outlive every
// buffer the allocator creates.
func NewHALAllocator(dev hal.Device) *HALAllocator {
	return &HALAllocator{dev: dev}
}

// RegisterHALAllocator registers an allocator on dev under AllocatorHAL,
// making it the DefaultAllocator.
func RegisterHALAllocator(dev hal.Device) {
	a := NewHALAllocator(dev)
	RegisterAllocator(AllocatorHAL, func() Allocator { return a })
}

// Name returns "hal".
func (a *HALAllocator) Name() string { return AllocatorHAL }

// Alloc creates a texture described by cfg.TextureDescriptor.
func (a *HALAllocator) Alloc(cfg BufferRequestConfig) (*Buffer, error) {
	if a.dev == nil {
		return nil, fmt.Errorf("%w: no HAL device", ErrAllocFailed)
	}
	desc := cfg.TextureDescriptor(fmt.Sprintf("surface-buffer-%dx%d", cfg.Width, cfg.Height))
	tex, err := a.dev.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: create texture %v: %w", ErrAllocFailed, cfg, err)
	}
	backing := Backing{Texture: tex}
	if cfg.Usage.HostVisible() {
		backing.Pixels = make([]byte, cfg.Size())
	}
	a.live.Add(1)
	dev := a.dev
	return NewBuffer(cfg, backing, func() {
		dev.DestroyTexture(tex)
		a.live.Add(-1)
	}), nil
}

// Live returns the number of textures not yet destroyed.
func (a *HALAllocator) Live() int { return int(a.live.Load()) }
