// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted functions on a fixed set of goroutines.
//
// All workers pull from one shared FIFO, so with a single worker tasks run
// strictly in submission order. That makes a one-worker pool a serial task
// runner for callbacks that must not run inline.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// submitMu orders Submit against Close so nothing is sent after the
	// queue is drained.
	submitMu sync.RWMutex
	running  atomic.Bool

	completed atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. queueSize bounds the
// number of pending tasks before Submit blocks; values below 8 use 8.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize < 8 {
		queueSize = 8
	}
	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case work := <-p.queue:
			p.run(work)
		case <-p.done:
			// Drain what was accepted before Close.
			for {
				select {
				case work := <-p.queue:
					p.run(work)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) run(work func()) {
	if work != nil {
		work()
		p.completed.Add(1)
	}
}

// Submit queues fn. It reports false, dropping fn, if the pool is closed.
// Submit blocks while the queue is full.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if !p.running.Load() {
		return false
	}
	p.queue <- fn
	return true
}

// ExecuteAll runs every function on the pool and waits for all of them.
// It must not be called from one of the pool's own workers.
// If the pool is closed, the functions run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		task := func() {
			defer wg.Done()
			fn()
		}
		if !p.Submit(task) {
			task()
		}
	}
	wg.Wait()
}

// Close stops accepting work, runs everything already queued, and waits
// for the workers to exit. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.submitMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submitMu.Unlock()
		return
	}
	close(p.done)
	p.submitMu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }

// QueuedWork returns the number of tasks waiting for a worker.
func (p *WorkerPool) QueuedWork() int { return len(p.queue) }

// Completed returns the number of tasks that have finished.
func (p *WorkerPool) Completed() uint64 { return p.completed.Load() }
