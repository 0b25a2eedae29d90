// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"log/slog"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

// Option configures a Queue during creation.
//
// Example:
//
//	q := bufferqueue.New(
//	    bufferqueue.WithAllocator(surface.NewHALAllocator(dev)),
//	    bufferqueue.WithDefaultQueueSize(2),
//	)
type Option func(*options)

type options struct {
	allocator surface.Allocator
	logger    *slog.Logger
	queueSize int
}

func defaultOptions() options {
	return options{
		allocator: nil, // surface.DefaultAllocator() at New
		logger:    nil, // surface.Logger() at each call
		queueSize: surface.DefaultQueueSize,
	}
}

// WithAllocator sets the allocator that creates slot buffers.
// By default the highest-priority registered allocator is used.
func WithAllocator(a surface.Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithLogger sets a logger for this queue only, overriding surface.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDefaultQueueSize sets the capacity the queue has after Init.
// Values outside [1, surface.MaxQueueSize] are ignored.
func WithDefaultQueueSize(n int) Option {
	return func(o *options) {
		if n >= 1 && n <= surface.MaxQueueSize {
			o.queueSize = n
		}
	}
}
