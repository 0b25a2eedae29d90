// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package consumer

import (
	"log/slog"
	"time"
)

// DefaultFenceTimeout bounds the wait on a frame's acquire fence.
const DefaultFenceTimeout = time.Second

// Option configures a Surface.
type Option func(*options)

type options struct {
	fenceTimeout time.Duration
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{fenceTimeout: DefaultFenceTimeout}
}

// WithFenceTimeout sets how long a frame waits for its acquire fence
// before it is dropped. A negative value waits forever; zero is ignored.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d != 0 {
			o.fenceTimeout = d
		}
	}
}

// WithLogger sets a logger for this surface only.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
