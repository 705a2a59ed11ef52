package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/costwatch/costwatch/internal/ingest"
)

// Scheduler triggers a cost ingestion run once per day at local midnight,
// ingesting the previous calendar day.
type Scheduler struct {
	ingester *ingest.Ingester
	now      func() time.Time
}

// New creates a new Scheduler.
func New(ingester *ingest.Ingester) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		now:      time.Now,
	}
}

// Start begins the scheduling loop. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("cost ingestion scheduler started")

	for {
		wait := time.Until(NextMidnight(s.now()))

		select {
		case <-ctx.Done():
			slog.Info("cost ingestion scheduler stopped")
			return
		case <-time.After(wait):
			s.tick(ctx)
		}
	}
}

// tick runs ingestion for yesterday. If a previous run is still executing
// (e.g. a manual backfill), the tick is skipped rather than queued.
func (s *Scheduler) tick(ctx context.Context) {
	yesterday := s.now().AddDate(0, 0, -1)

	if _, err := s.ingester.TryRun(ctx, yesterday); err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			slog.Warn("scheduler: skipping tick, ingestion already running")
			return
		}
		slog.Error("scheduler: ingestion run failed, will retry next tick", "error", err)
	}
}

// NextMidnight returns the first midnight strictly after t, in t's location.
func NextMidnight(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
	return next
}
