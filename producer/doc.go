// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package producer provides the producer side of a buffer queue.
//
// A Surface wraps anything that speaks the producer half of the queue
// protocol and hides the lazy-transfer optimization: the queue only sends
// a buffer the first time a slot uses it, and the Surface fills in the
// rest from its per-slot cache.
//
//	ps := producer.New(q)
//	buf, fence, err := ps.RequestBuffer(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	_ = fence.Wait(-1)
//	surface.CloseFence(fence)
//	draw(buf.Pixels())
//	err = ps.FlushBuffer(buf, surface.NoFence, surface.BufferFlushConfig{}, nil)
package producer
