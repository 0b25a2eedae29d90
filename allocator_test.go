// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/wgpu/hal/noop"
)

func TestMemoryAllocator(t *testing.T) {
	a := NewMemoryAllocator()
	cfg := validConfig()
	b, err := a.Alloc(cfg)
	if err != nil {
		t.Fatalf("Alloc() = %v", err)
	}
	if len(b.Pixels()) != cfg.Size() {
		t.Errorf("len(Pixels()) = %d, want %d", len(b.Pixels()), cfg.Size())
	}
	if a.Live() != 1 || a.Bytes() != int64(cfg.Size()) {
		t.Errorf("Live/Bytes = %d/%d", a.Live(), a.Bytes())
	}
	b.Unref()
	if a.Live() != 0 || a.Bytes() != 0 {
		t.Errorf("after Unref Live/Bytes = %d/%d, want 0/0", a.Live(), a.Bytes())
	}
}

func TestMemoryAllocatorZeroSize(t *testing.T) {
	_, err := NewMemoryAllocator().Alloc(BufferRequestConfig{})
	if !errors.Is(err, ErrAllocFailed) {
		t.Errorf("Alloc(zero) = %v, want ErrAllocFailed", err)
	}
}

func TestHALAllocator(t *testing.T) {
	a := NewHALAllocator(&noop.Device{})
	cfg := validConfig()
	cfg.Usage = UsageRender | UsageCPUWrite

	b, err := a.Alloc(cfg)
	if err != nil {
		t.Fatalf("Alloc() = %v", err)
	}
	if b.Texture() == nil {
		t.Error("HAL buffer has no texture")
	}
	if len(b.Pixels()) != cfg.Size() {
		t.Errorf("host-visible HAL buffer has %d bytes, want %d", len(b.Pixels()), cfg.Size())
	}
	if a.Live() != 1 {
		t.Errorf("Live() = %d, want 1", a.Live())
	}
	b.Unref()
	if a.Live() != 0 {
		t.Errorf("Live() after Unref = %d, want 0", a.Live())
	}

	cfg.Usage = UsageRender
	gpuOnly, err := a.Alloc(cfg)
	if err != nil {
		t.Fatalf("Alloc() = %v", err)
	}
	defer gpuOnly.Unref()
	if gpuOnly.Pixels() != nil {
		t.Error("GPU-only buffer should have no CPU pixels")
	}
}

func TestHALAllocatorNoDevice(t *testing.T) {
	_, err := NewHALAllocator(nil).Alloc(validConfig())
	if !errors.Is(err, ErrAllocFailed) {
		t.Errorf("Alloc() = %v, want ErrAllocFailed", err)
	}
}

func TestAllocatorRegistry(t *testing.T) {
	t.Cleanup(func() { UnregisterAllocator(AllocatorHAL) })

	if got := DefaultAllocator().Name(); got != AllocatorMemory {
		t.Errorf("DefaultAllocator() = %q, want memory", got)
	}
	if _, err := NewAllocator("vulkan"); !errors.Is(err, ErrNoAllocator) {
		t.Errorf("NewAllocator(vulkan) = %v, want ErrNoAllocator", err)
	}

	RegisterHALAllocator(&noop.Device{})
	if got := DefaultAllocator().Name(); got != AllocatorHAL {
		t.Errorf("DefaultAllocator() with hal = %q, want hal", got)
	}
	if got := Allocators(); !slices.Equal(got, []string{AllocatorHAL, AllocatorMemory}) {
		t.Errorf("Allocators() = %v", got)
	}
	a, err := NewAllocator(AllocatorMemory)
	if err != nil || a.Name() != AllocatorMemory {
		t.Errorf("NewAllocator(memory) = %v, %v", a, err)
	}
}
