// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package surface

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/wgpu/hal/noop"
)

func TestNoFence(t *testing.T) {
	if NoFence.IsValid() {
		t.Error("NoFence should not be valid")
	}
	if err := NoFence.Wait(time.Second); err != nil {
		t.Errorf("NoFence.Wait() = %v, want nil", err)
	}
	if err := NoFence.Close(); err != nil {
		t.Errorf("NoFence.Close() = %v, want nil", err)
	}
	if d, err := NoFence.Dup(); err != nil || d != NoFence {
		t.Errorf("NoFence.Dup() = %v, %v", d, err)
	}
}

func TestFenceSignaler(t *testing.T) {
	s, err := NewFenceSignaler()
	if err != nil {
		t.Fatalf("NewFenceSignaler() = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	f, err := s.Fence()
	if err != nil {
		t.Fatalf("Fence() = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	if err := f.Wait(5 * time.Millisecond); !errors.Is(err, ErrFenceTimeout) {
		t.Fatalf("Wait() before signal = %v, want ErrFenceTimeout", err)
	}
	if f.Signaled() {
		t.Fatal("Signaled() before signal")
	}

	done := make(chan error, 1)
	go func() { done <- f.Wait(-1) }()
	time.Sleep(5 * time.Millisecond)
	if err := s.Signal(); err != nil {
		t.Fatalf("Signal() = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() after signal = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after Signal")
	}
	if err := s.Signal(); err != nil {
		t.Errorf("second Signal() = %v, want nil", err)
	}

	d, err := f.Dup()
	if err != nil {
		t.Fatalf("Dup() = %v", err)
	}
	if !d.Signaled() {
		t.Error("duplicate of a signaled fence is not signaled")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestFenceSignalerClosed(t *testing.T) {
	s, err := NewFenceSignaler()
	if err != nil {
		t.Fatalf("NewFenceSignaler() = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := s.Fence(); err == nil {
		t.Error("Fence() after Close should fail")
	}
	if err := s.Signal(); err == nil {
		t.Error("Signal() after Close should fail")
	}
}

func TestNewSignaledFence(t *testing.T) {
	f, err := NewSignaledFence()
	if err != nil {
		t.Fatalf("NewSignaledFence() = %v", err)
	}
	defer CloseFence(f)
	if !f.IsValid() {
		t.Fatal("signaled fence should hold a descriptor")
	}
	if err := f.Wait(0); err != nil {
		t.Errorf("Wait(0) = %v, want nil", err)
	}
}

func TestBridgeHALFence(t *testing.T) {
	dev := &noop.Device{}
	hf, _ := dev.CreateFence()
	nf := hf.(*noop.Fence)

	f, err := BridgeHALFence(context.Background(), dev, hf, 3)
	if err != nil {
		t.Fatalf("BridgeHALFence() = %v", err)
	}
	defer CloseFence(f)
	if f.Signaled() {
		t.Fatal("bridged fence signaled before the HAL fence reached the value")
	}

	nf.Signal(3)
	if err := f.Wait(2 * time.Second); err != nil {
		t.Errorf("Wait() after HAL signal = %v", err)
	}
}

func TestBridgeHALFenceAlreadyReached(t *testing.T) {
	dev := &noop.Device{}
	hf, _ := dev.CreateFence()
	hf.(*noop.Fence).Signal(10)

	f, err := BridgeHALFence(context.Background(), dev, hf, 5)
	if err != nil {
		t.Fatalf("BridgeHALFence() = %v", err)
	}
	if f != NoFence {
		t.Errorf("reached fence bridged to %d, want NoFence", f)
	}
}

func TestBridgeHALFenceCancel(t *testing.T) {
	dev := &noop.Device{}
	hf, _ := dev.CreateFence()

	ctx, cancel := context.WithCancel(context.Background())
	f, err := BridgeHALFence(ctx, dev, hf, 1)
	if err != nil {
		t.Fatalf("BridgeHALFence() = %v", err)
	}
	defer CloseFence(f)
	cancel()
	time.Sleep(10 * time.Millisecond)
	if err := f.Wait(10 * time.Millisecond); !errors.Is(err, ErrFenceTimeout) {
		t.Errorf("Wait() after cancel = %v, want ErrFenceTimeout", err)
	}
}
