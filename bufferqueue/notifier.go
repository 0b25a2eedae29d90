// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"sync"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

// notifier holds at most one listener of each kind. It has its own lock so
// listeners can be swapped while a notification is in flight; callers
// snapshot under the lock and call outside it.
type notifier struct {
	mu       sync.Mutex
	consumer surface.ConsumerListener
	release  surface.ReleaseListener
}

func (n *notifier) setConsumer(l surface.ConsumerListener) {
	n.mu.Lock()
	n.consumer = l
	n.mu.Unlock()
}

func (n *notifier) setRelease(l surface.ReleaseListener) {
	n.mu.Lock()
	n.release = l
	n.mu.Unlock()
}

func (n *notifier) bufferAvailable() {
	n.mu.Lock()
	l := n.consumer
	n.mu.Unlock()
	if l != nil {
		l.OnBufferAvailable()
	}
}

func (n *notifier) bufferReleased(id surface.BufferID) {
	n.mu.Lock()
	l := n.release
	n.mu.Unlock()
	if l != nil {
		l.OnBufferReleased(id)
	}
}

func (n *notifier) hasConsumer() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.consumer != nil
}

func (n *notifier) reset() {
	n.mu.Lock()
	n.consumer = nil
	n.release = nil
	n.mu.Unlock()
}
