// Package task runs generation jobs on a small worker pool with a bounded
// queue. A dispatch that cannot be queued runs inline on the caller's
// goroutine, so job outcomes never depend on queue capacity.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes jobs on a fixed set of workers fed by a bounded queue.
// With zero workers or zero queue capacity every dispatch runs inline, which
// tests use for deterministic completion.
type Runner struct {
	queue      chan Job
	workers    int
	jobTimeout time.Duration
	wg         sync.WaitGroup
}

// NewRunner creates a runner. A jobTimeout of zero disables the per-job
// limit.
func NewRunner(workers, queueSize int, jobTimeout time.Duration) *Runner {
	var queue chan Job
	if workers > 0 && queueSize > 0 {
		queue = make(chan Job, queueSize)
	}
	return &Runner{queue: queue, workers: workers, jobTimeout: jobTimeout}
}

// Start launches the worker goroutines. They drain the queue until ctx is
// cancelled.
func (r *Runner) Start(ctx context.Context) {
	if r.queue == nil {
		slog.Info("task runner in inline mode")
		return
	}
	slog.Info("task runner started", "workers", r.workers, "queue_size", cap(r.queue))

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-r.queue:
					r.run(ctx, job)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited after ctx cancellation.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Dispatch hands the job to the pool. When the queue is full or the runner
// has no workers the job runs inline on the caller's context; either way the
// job drives the same state transitions.
func (r *Runner) Dispatch(ctx context.Context, job Job) {
	if r.queue != nil {
		select {
		case r.queue <- job:
			slog.Debug("job queued", "job", job.Name)
			return
		default:
			slog.Warn("task queue full, running inline", "job", job.Name)
		}
	}
	r.run(ctx, job)
}

func (r *Runner) run(ctx context.Context, job Job) {
	runCtx := ctx
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(runCtx); err != nil {
		slog.Error("job failed", "job", job.Name, "duration", time.Since(start).String(), "error", err)
		return
	}
	slog.Info("job done", "job", job.Name, "duration", time.Since(start).String())
}
