// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package consumer provides the consumer side of a buffer queue.
//
// A Surface listens for queued buffers and runs a Handler for each frame
// on its own worker goroutine: acquire, wait for the acquire fence,
// handle, release. A Compositor is a ready-made handler target that
// draws frames into an RGBA image, redrawing only damaged regions.
//
//	comp, _ := consumer.NewCompositor(w, h, 0)
//	cs := consumer.New(q, consumer.HandlerFunc(func(f bufferqueue.AcquireResult) (surface.Fence, error) {
//	    _, err := comp.ComposeFrame(f)
//	    return surface.NoFence, err
//	}))
//	if err := cs.Start(); err != nil {
//	    return err
//	}
//	defer cs.Close()
package consumer
