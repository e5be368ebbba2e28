package cart

import (
	"context"
	"sync"
)

// flushJob is either a snapshot write or a barrier. Barriers carry no entries and are closed
// once every job queued before them has been processed.
type flushJob struct {
	ctx     context.Context
	entries []Entry
	barrier chan struct{}
}

// flushQueue runs writes one at a time, in the order they were queued. Enqueue never blocks.
type flushQueue struct {
	write func(ctx context.Context, entries []Entry)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []flushJob
	closed bool
	done   chan struct{}
}

func newFlushQueue(write func(ctx context.Context, entries []Entry)) *flushQueue {
	q := &flushQueue{
		write: write,
		done:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// enqueue schedules a write of entries. It reports false once the queue is closed.
func (q *flushQueue) enqueue(ctx context.Context, entries []Entry) bool {
	return q.push(flushJob{ctx: ctx, entries: entries})
}

func (q *flushQueue) push(job flushJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.queue = append(q.queue, job)
	q.cond.Signal()
	return true
}

// wait blocks until every write queued before the call has finished.
func (q *flushQueue) wait(ctx context.Context) error {
	barrier := make(chan struct{})
	if !q.push(flushJob{barrier: barrier}) {
		return q.waitDone(ctx)
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting writes and waits for the pending ones to drain.
func (q *flushQueue) close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	return q.waitDone(ctx)
}

func (q *flushQueue) waitDone(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *flushQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.queue[0]
		q.queue[0] = flushJob{}
		q.queue = q.queue[1:]
		q.mu.Unlock()

		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		q.write(job.ctx, job.entries)
	}
}
