// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface defines the vocabulary shared by the producer and consumer
// sides of a graphics buffer queue.
//
// # Overview
//
// A producer (an application or render thread) draws into image buffers
// and hands them to a consumer (a compositor or display pipeline) without
// copying pixels. The queue that governs slot ownership lives in the
// bufferqueue package; this package holds the types both sides agree on:
//
//   - [BufferRequestConfig]: geometry, format and usage of a requested buffer
//   - [Buffer]: a reference-counted buffer with its backing memory
//   - [Fence]: a one-shot sync fence whose descriptor changes hands with calls
//   - [Allocator]: the source of buffers, host memory or HAL textures
//   - [ConsumerListener] and [ReleaseListener]: queue callbacks
//   - sentinel errors and their integer [ErrorCode] form
//
// # Quick Start
//
//	q := bufferqueue.New()
//	if err := q.Init("demo"); err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := surface.BufferRequestConfig{
//	    Width: 640, Height: 480,
//	    StrideAlignment: 8,
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	    Usage:  surface.UsageCPURead | surface.UsageCPUWrite,
//	}
//	res, err := q.RequestBuffer(cfg)
//
// # Ownership
//
// Buffers and fences have exactly one owner at a time. The call that hands
// one over transfers it: RequestBuffer gives the producer a buffer reference
// and a release fence, FlushBuffer passes the acquire fence to the queue,
// AcquireBuffer passes it on to the consumer, ReleaseBuffer passes the
// consumer's release fence back.
//
// # Logging
//
// Nothing is logged by default. Use [SetLogger] to route queue diagnostics
// to a [log/slog] logger.
package surface
