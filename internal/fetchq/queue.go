// Package fetchq provides a process-global FIFO queue that serializes
// outbound scraping requests and enforces a minimum delay between them.
// All location-data fetches must go through one shared Queue so the spacing
// guarantee holds across every logical request in the process.
package fetchq

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinDelay is the minimum spacing between outbound scraping requests.
const DefaultMinDelay = 10 * time.Second

// ErrQueueClosed is returned for tasks submitted to or pending in a closed queue.
var ErrQueueClosed = errors.New("fetch queue closed")

// Task is a unit of outbound work. The task owns its own error handling;
// a failing task never affects other tasks in the queue.
type Task func(ctx context.Context) error

// Handle tracks the completion of a submitted task.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task has run (or been skipped) or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.err
	}
}

type job struct {
	ctx    context.Context
	task   Task
	handle *Handle
}

// Queue runs submitted tasks one at a time with enforced minimum spacing
// between task starts. The backlog is unbounded; sustained depth is
// observable via Len but is not itself an error.
type Queue struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	backlog []*job
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// New creates a queue with the given minimum inter-request delay and starts
// its single worker goroutine. Pass 0 to use DefaultMinDelay.
func New(minDelay time.Duration) *Queue {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	q := &Queue{
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit appends a task to the queue and returns a handle for its result.
// The task runs with the submitted ctx; a ctx cancelled before the task
// starts skips the task without consuming rate budget.
func (q *Queue) Submit(ctx context.Context, task Task) *Handle {
	handle := &Handle{done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		handle.err = ErrQueueClosed
		close(handle.done)
		return handle
	}
	q.backlog = append(q.backlog, &job{ctx: ctx, task: task, handle: handle})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return handle
}

// Do submits a task and waits for it to complete.
func (q *Queue) Do(ctx context.Context, task Task) error {
	return q.Submit(ctx, task).Wait(ctx)
}

// Len returns the current backlog depth, excluding any running task.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Close stops the worker. Pending tasks are resolved with ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.stop)
	<-q.done
}

// run is the single worker loop. It is the only goroutine that reads the
// rate limiter or starts tasks, which is what makes the spacing guarantee
// hold regardless of how many callers submit concurrently.
func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			q.drain()
			return
		default:
		}

		next := q.pop()
		if next == nil {
			select {
			case <-q.stop:
				q.drain()
				return
			case <-q.wake:
				continue
			}
		}

		// Skip tasks whose caller already gave up; no rate budget spent.
		if err := next.ctx.Err(); err != nil {
			q.resolve(next, err)
			continue
		}

		if err := q.limiter.Wait(next.ctx); err != nil {
			q.resolve(next, err)
			continue
		}

		q.resolve(next, next.task(next.ctx))
	}
}

func (q *Queue) pop() *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.backlog) == 0 {
		return nil
	}
	next := q.backlog[0]
	q.backlog = q.backlog[1:]
	return next
}

func (q *Queue) drain() {
	q.mu.Lock()
	pending := q.backlog
	q.backlog = nil
	q.mu.Unlock()

	for _, j := range pending {
		q.resolve(j, ErrQueueClosed)
	}
}

func (q *Queue) resolve(j *job, err error) {
	j.handle.err = err
	close(j.handle.done)
}
