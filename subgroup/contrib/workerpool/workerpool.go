// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for
// running the work-groups of an ND-range. A Pool is created once and reused
// across submissions so repeated launches do not pay for spawning workers.
//
// Work-group bodies start their own lane goroutines and block until those
// finish, so a worker is occupied for the whole life of one work-group.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	err := pool.ForEach(ctx, numGroups, func(group int) error {
//	    return runWorkGroup(group)
//	})
package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many
// submissions. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once

	// mu orders Close against in-flight submissions: ForEach holds it
	// shared from the closed check until its last send.
	mu     sync.RWMutex
	closed bool
}

// workItem represents one worker's share of a submission.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe. Close may race with ForEach; a
// ForEach that loses the race runs sequentially.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.workC)
		p.mu.Unlock()
	})
}

// ForEach calls fn for every index in [0, n), distributing indices with
// atomic work stealing so that uneven work-groups balance across workers.
// It blocks until every claimed index has finished.
//
// Once ctx is done no further indices are claimed; ForEach then returns
// ctx.Err() joined with the errors returned by fn. Errors from fn do not
// stop the remaining indices.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	run := func(i int) {
		if err := fn(i); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	workers := min(p.numWorkers, n)
	p.mu.RLock()
	if p.closed || workers == 1 {
		p.mu.RUnlock()
		// Sequential fallback for a closed pool or a single index.
		for i := range n {
			if ctx.Err() != nil {
				break
			}
			run(i)
		}
		return errors.Join(append(errs, ctx.Err())...)
	}

	var nextIdx atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for ctx.Err() == nil {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					run(idx)
				}
			},
			barrier: &wg,
		}
	}
	p.mu.RUnlock()

	wg.Wait()
	return errors.Join(append(errs, ctx.Err())...)
}
