// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

// Queue and buffer limits shared by producers, consumers and the queue core.
const (
	// DefaultQueueSize is the number of slots a queue has after Init.
	DefaultQueueSize = 3

	// MaxQueueSize is the hard upper bound accepted by SetQueueSize.
	MaxQueueSize = 32

	// MinStrideAlignment is the smallest accepted row alignment in bytes.
	MinStrideAlignment = 4

	// MaxStrideAlignment is the largest accepted row alignment in bytes.
	MaxStrideAlignment = 32

	// MaxBufferWidth is the largest accepted buffer width in pixels.
	MaxBufferWidth = 7680

	// MaxBufferHeight is the largest accepted buffer height in pixels.
	MaxBufferHeight = 7680
)
