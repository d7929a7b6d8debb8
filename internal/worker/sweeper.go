// Package worker recovers artifacts that were accepted but never picked up,
// for example when the process died between insert and dispatch. It only
// re-dispatches; the status claim inside generation keeps duplicate dispatch
// harmless.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/www6v/notestudio/internal/model"
	"github.com/www6v/notestudio/internal/task"
)

// sweepBatchSize caps how many artifacts one sweep requeues.
const sweepBatchSize = 50

// Lister provides the stale artifact query the sweeper polls with.
type Lister interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Artifact, error)
}

// Dispatcher hands recovered work back to the generation pool.
type Dispatcher interface {
	Dispatch(ctx context.Context, job task.Job)
}

// Generator runs one generation attempt for an artifact.
type Generator interface {
	Generate(ctx context.Context, artifactID string) error
}

// Sweeper polls for pending artifacts older than staleAfter and re-dispatches
// them.
type Sweeper struct {
	lister     Lister
	dispatcher Dispatcher
	generator  Generator
	interval   time.Duration
	staleAfter time.Duration
}

// NewSweeper creates a new Sweeper. Non-positive durations fall back to safe
// defaults so a zero config cannot spin the poll loop.
func NewSweeper(lister Lister, dispatcher Dispatcher, generator Generator, interval, staleAfter time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = time.Minute
	}
	return &Sweeper{
		lister:     lister,
		dispatcher: dispatcher,
		generator:  generator,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("sweeper started", "interval", s.interval.String(), "stale_after", s.staleAfter.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		default:
		}

		n, err := s.sweep(ctx)
		if err != nil {
			slog.Error("sweep failed", "error", err)
		} else if n > 0 {
			slog.Info("requeued stale artifacts", "count", n)
		}
		s.sleep(ctx)
	}
}

func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleAfter)
	stale, err := s.lister.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	for _, artifact := range stale {
		id := artifact.ID
		slog.Info("requeueing stale artifact", "artifact_id", id, "kind", artifact.Kind)
		s.dispatcher.Dispatch(ctx, task.Job{
			Name: "generate " + string(artifact.Kind),
			Run: func(ctx context.Context) error {
				return s.generator.Generate(ctx, id)
			},
		})
	}
	return len(stale), nil
}

func (s *Sweeper) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.interval):
	}
}
