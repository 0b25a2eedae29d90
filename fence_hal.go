// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// halFencePollInterval bounds each dev.Wait call so that cancellation is
// noticed even when the device ignores the timeout.
const halFencePollInterval = 2 * time.Millisecond

// BridgeHALFence returns a Fence that becomes signaled once the HAL fence f
// reaches value on dev. A goroutine waits on the device; cancelling ctx
// stops it without signaling, so the returned fence then never fires.
//
// The caller owns the returned Fence. f stays owned by the caller too and
// must outlive the bridge.
func BridgeHALFence(ctx context.Context, dev hal.Device, f hal.Fence, value uint64) (Fence, error) {
	if dev == nil || f == nil {
		return NoFence, fmt.Errorf("surface: bridge fence: nil device or fence")
	}
	if ok, err := dev.Wait(f, value, 0); err == nil && ok {
		return NoFence, nil
	}

	s, err := NewFenceSignaler()
	if err != nil {
		return NoFence, err
	}
	out, err := s.Fence()
	if err != nil {
		_ = s.Close()
		return NoFence, err
	}

	go func() {
		defer func() { _ = s.Close() }()
		ticker := time.NewTicker(halFencePollInterval)
		defer ticker.Stop()
		for {
			ok, err := dev.Wait(f, value, halFencePollInterval)
			if err != nil {
				Logger().Warn("surface: HAL fence wait failed", "value", value, "err", err)
				return
			}
			if ok {
				if err := s.Signal(); err != nil {
					Logger().Warn("surface: signal bridged fence", "err", err)
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, nil
}
