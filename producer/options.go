// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"log/slog"
	"time"
)

// DefaultPollInterval is how often a waiting RequestBuffer retries when
// the producer cannot report releases.
const DefaultPollInterval = 2 * time.Millisecond

// Option configures a Surface.
type Option func(*options)

type options struct {
	pollInterval time.Duration
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{pollInterval: DefaultPollInterval}
}

// WithPollInterval sets the retry interval used while waiting for a slot.
// Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLogger sets a logger for this surface only.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
