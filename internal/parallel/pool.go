// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the goroutine pool that raster work runs on and
// the dirty bitmap tilings use to track invalidated tiles.
//
// Each worker owns a buffered queue and steals from its siblings when its
// own queue is empty, which balances load when some raster jobs are much
// slower than others (a complex picture next to a blank tile).
package parallel

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines executing submitted jobs.
//
// Jobs never block the submitter for longer than it takes to enqueue them.
// A job that panics does not take its worker down: the panic is recovered
// and handed to the pool's panic handler.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
	onPanic    func(any)

	// submitMu keeps Submit and Close from racing on a closed queue.
	submitMu sync.RWMutex
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. onPanic receives the
// value of any recovered job panic; nil discards it.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int, onPanic func(any)) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Buffer size: a few jobs per worker hides dispatch latency.
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
		onPanic:    onPanic,
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case job := <-myQueue:
			p.run(job)

		default:
			if stolen := p.steal(id); stolen != nil {
				p.run(stolen)
				continue
			}
			// Nothing anywhere, block on own queue.
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case job := <-myQueue:
				p.run(job)
			}
		}
	}
}

// run executes one job, recovering a panic.
func (p *WorkerPool) run(job func()) {
	if job == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(fmt.Errorf("parallel: job panicked: %v", r))
		}
	}()
	job()
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case job := <-queue:
			p.run(job)
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case job := <-p.workQueues[i]:
			return job
		default:
		}
	}
	return nil
}

// Submit sends a single job to the worker with the shortest queue.
// Returns false if the pool is closed or job is nil; the job is then not run.
func (p *WorkerPool) Submit(job func()) bool {
	if job == nil {
		return false
	}

	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if !p.running.Load() {
		return false
	}

	minLen := len(p.workQueues[0])
	minIdx := 0
	for i := 1; i < p.workers; i++ {
		if qLen := len(p.workQueues[i]); qLen < minLen {
			minLen = qLen
			minIdx = i
		}
	}

	select {
	case p.workQueues[minIdx] <- job:
		return true
	case <-p.done:
		return false
	}
}

// Close gracefully shuts down the pool.
// It stops accepting new work, runs all queued jobs, and then stops all
// workers. Close is safe to call multiple times.
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
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the total number of jobs currently queued.
// This is an approximation as queues can change while iterating.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}
