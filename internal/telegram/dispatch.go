package telegram

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Dispatcher runs jobs in FIFO order per user while different users run
// concurrently, up to a global limit.
type Dispatcher struct {
	ctx    context.Context
	sem    *semaphore.Weighted
	mu     sync.Mutex
	queues map[int64][]func(context.Context)
	wg     sync.WaitGroup
}

func NewDispatcher(ctx context.Context, maxConcurrent int64) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	return &Dispatcher{
		ctx:    ctx,
		sem:    semaphore.NewWeighted(maxConcurrent),
		queues: make(map[int64][]func(context.Context)),
	}
}

// Do queues job behind any pending work of userID.
func (d *Dispatcher) Do(userID int64, job func(context.Context)) {
	d.mu.Lock()
	q, running := d.queues[userID]
	d.queues[userID] = append(q, job)
	if !running {
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if !running {
		go d.drain(userID)
	}
}

func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		job := q[0]
		d.queues[userID] = q[1:]
		d.mu.Unlock()

		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			// shutting down, drop what is left
			d.mu.Lock()
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		job(d.ctx)
		d.sem.Release(1)
	}
}

// Wait blocks until every queued job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
