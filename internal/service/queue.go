package service

import (
	"context"
	"fmt"
	"sync"
)

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type raffleWorker struct {
	jobs    chan job
	pending int
}

// raffleQueue runs jobs for the same raffle one at a time, in arrival order. Jobs for
// different raffles run in parallel. A raffle's worker goroutine exits once it has no
// pending jobs.
type raffleQueue struct {
	mu      sync.Mutex
	workers map[string]*raffleWorker
}

func newRaffleQueue() *raffleQueue {
	return &raffleQueue{workers: make(map[string]*raffleWorker)}
}

func (q *raffleQueue) Do(ctx context.Context, raffleID string, fn func(context.Context) error) error {
	q.mu.Lock()
	w, ok := q.workers[raffleID]
	if !ok {
		w = &raffleWorker{jobs: make(chan job)}
		q.workers[raffleID] = w
		go q.run(raffleID, w)
	}
	w.pending++
	q.mu.Unlock()

	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		q.mu.Lock()
		w.pending--
		if w.pending == 0 {
			delete(q.workers, raffleID)
			close(w.jobs)
		}
		q.mu.Unlock()
		return ctx.Err()
	}

	return <-j.done
}

func (q *raffleQueue) run(raffleID string, w *raffleWorker) {
	for {
		j, ok := <-w.jobs
		if !ok {
			return
		}
		j.done <- safeCall(j.ctx, j.fn)

		q.mu.Lock()
		w.pending--
		if w.pending == 0 {
			delete(q.workers, raffleID)
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
	}
}

func (q *raffleQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.workers)
}

func safeCall(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("raffle job panicked: %v", r)
		}
	}()

	return fn(ctx)
}
