// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the goroutine plumbing of the consumer side:
// a FIFO worker pool used both as a serial task runner for queue
// callbacks and as a fan-out executor for layer composition, and a
// lock-free tile bitmap that accumulates damage between frames.
package parallel
