package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of delayed work. Run returning an error requests a retry;
// OnExhausted, if set, runs after the final failed attempt so a terminal
// state can be recorded even when the last run itself blew up.
type Job struct {
	Name        string
	Run         func(ctx context.Context) error
	OnExhausted func(ctx context.Context)
}

// Executor is the delayed-execution facility consumed by the reminder
// planner and sweep: timed scheduling plus immediate synchronous execution.
type Executor interface {
	Schedule(job Job, runAt time.Time)
	RunNow(ctx context.Context, job Job) error
}

// Queue runs scheduled jobs on a worker pool. Failed runs are retried with a
// fixed backoff up to a fixed attempt count; the retry policy applies only
// to scheduled (async) jobs, never to RunNow.
type Queue struct {
	workers     int
	maxAttempts int
	backoff     time.Duration
	log         *zap.Logger

	mu      sync.Mutex
	stopped bool
	timers  map[*time.Timer]struct{}

	jobs   chan queued
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type queued struct {
	job     Job
	attempt int
}

// New creates a queue with the given worker count and retry policy.
// maxAttempts counts the first run, so 3 means two retries.
func New(workers, maxAttempts int, backoff time.Duration, log *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Queue{
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log,
		timers:      map[*time.Timer]struct{}{},
		jobs:        make(chan queued, 256),
	}
}

// Start launches the worker pool. Must be called before Schedule.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.log.Info("delayed execution queue started", zap.Int("workers", q.workers))
}

// Stop cancels pending timers, stops the workers and waits for in-flight
// jobs to finish. Jobs whose timers had not fired are dropped; the due
// reminder sweep picks them up on the next pass.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	for t := range q.timers {
		t.Stop()
	}
	q.timers = map[*time.Timer]struct{}{}
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	q.log.Info("delayed execution queue stopped")
}

// Schedule enqueues the job for execution at or after runAt. A runAt in the
// past enqueues immediately.
func (q *Queue) Schedule(job Job, runAt time.Time) {
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}
	q.after(delay, queued{job: job})
}

// RunNow executes the job synchronously on the caller's goroutine with no
// queue-level retry.
func (q *Queue) RunNow(ctx context.Context, job Job) error {
	return job.Run(ctx)
}

func (q *Queue) after(delay time.Duration, item queued) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, t)
		stopped := q.stopped
		q.mu.Unlock()
		if stopped {
			return
		}
		select {
		case q.jobs <- item:
		case <-q.ctx.Done():
		}
	})
	q.timers[t] = struct{}{}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case item := <-q.jobs:
			q.run(item)
		}
	}
}

func (q *Queue) run(item queued) {
	err := item.job.Run(q.ctx)
	if err == nil {
		return
	}

	attempt := item.attempt + 1
	if attempt >= q.maxAttempts {
		q.log.Error("job failed permanently",
			zap.String("job", item.job.Name),
			zap.Int("attempts", attempt),
			zap.Error(err))
		if item.job.OnExhausted != nil {
			item.job.OnExhausted(q.ctx)
		}
		return
	}

	q.log.Warn("job failed, retrying",
		zap.String("job", item.job.Name),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", q.backoff),
		zap.Error(err))
	q.after(q.backoff, queued{job: item.job, attempt: attempt})
}
