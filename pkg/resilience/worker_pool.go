package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrWorkerPoolClosed = errors.New("worker pool is closed")

// WorkerPool runs submitted jobs on a fixed set of goroutines with a bounded
// queue. Submit blocks when the queue is full, which gives natural
// backpressure to producers.
type WorkerPool struct {
	jobs    chan func()
	closed  atomic.Bool
	closeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewWorkerPool starts the workers immediately. Non-positive sizes fall back
// to a single worker and a queue matching the worker count.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}

	p := &WorkerPool{jobs: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues a job, blocking until there is queue space or ctx is done.
// Returns ErrWorkerPoolClosed after Close.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}
	if p.closed.Load() {
		return ErrWorkerPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Close stops accepting jobs. Queued jobs still run; pair with Wait to drain.
func (p *WorkerPool) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed.CompareAndSwap(false, true) {
		close(p.jobs)
	}
}

// Wait blocks until every worker has exited. Call Close first.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
