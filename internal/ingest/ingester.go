package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/costwatch/costwatch/internal/awsbilling"
	"github.com/costwatch/costwatch/internal/cost"
	"github.com/costwatch/costwatch/internal/team"
)

// ErrRunInProgress is returned by TryRun when an ingestion run is already
// executing. Two runs must never write concurrently.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// CostSource returns grouped daily cost tuples for an inclusive day range.
type CostSource interface {
	DailyCosts(ctx context.Context, start, end time.Time) ([]awsbilling.CostGroup, error)
}

// Result summarizes one ingestion run. A run with skips is still successful;
// only an external-source failure aborts it.
type Result struct {
	Fetched            int
	Persisted          int
	SkippedUnknownTeam int
	SkippedBadAmount   int
}

// Ingester reconciles external billing tuples into team-scoped cost records.
type Ingester struct {
	source     CostSource
	teamRepo   team.Repository
	costRepo   cost.Repository
	maxRetries int
	running    atomic.Bool
}

// New creates a new Ingester.
func New(source CostSource, teamRepo team.Repository, costRepo cost.Repository, maxRetries int) *Ingester {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Ingester{
		source:     source,
		teamRepo:   teamRepo,
		costRepo:   costRepo,
		maxRetries: maxRetries,
	}
}

// TryRun executes an ingestion run for the given day unless one is already in
// flight, in which case it returns ErrRunInProgress without doing any work.
func (i *Ingester) TryRun(ctx context.Context, day time.Time) (*Result, error) {
	if !i.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer i.running.Store(false)

	return i.run(ctx, day)
}

// run performs one fetch → attribute → persist cycle for a single day.
// The external call happens before any write, so a source failure leaves the
// store untouched and the run is simply retried on the next tick.
func (i *Ingester) run(ctx context.Context, day time.Time) (*Result, error) {
	day = truncateToDay(day)

	slog.Info("ingestion run started", "date", day.Format("2006-01-02"))

	groups, err := i.fetch(ctx, day)
	if err != nil {
		slog.Error("ingestion fetch failed", "date", day.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("fetching daily costs: %w", err)
	}

	result := &Result{Fetched: len(groups)}
	for _, g := range groups {
		if err := i.attribute(ctx, g, result); err != nil {
			return nil, err
		}
	}

	slog.Info("ingestion run finished",
		"date", day.Format("2006-01-02"),
		"fetched", result.Fetched,
		"persisted", result.Persisted,
		"skippedUnknownTeam", result.SkippedUnknownTeam,
		"skippedBadAmount", result.SkippedBadAmount,
	)

	return result, nil
}

// fetch calls the billing source with bounded retry and doubling backoff to
// tolerate transient throttling.
func (i *Ingester) fetch(ctx context.Context, day time.Time) ([]awsbilling.CostGroup, error) {
	backoff := time.Second

	var lastErr error
	for attempt := 1; attempt <= i.maxRetries; attempt++ {
		groups, err := i.source.DailyCosts(ctx, day, day)
		if err == nil {
			return groups, nil
		}
		lastErr = err

		if attempt < i.maxRetries {
			slog.Warn("billing source call failed, retrying",
				"attempt", attempt, "backoff", backoff.String(), "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

// attribute resolves one tuple to a team and upserts its cost record.
// Untagged spend lands in the Unassigned bucket. Tuples naming a team that
// does not exist, or carrying a negative amount, are logged and skipped
// without failing the run.
func (i *Ingester) attribute(ctx context.Context, g awsbilling.CostGroup, result *Result) error {
	if g.Amount < 0 {
		slog.Warn("skipping cost tuple with negative amount",
			"team", g.Team, "service", g.Service, "amount", g.Amount)
		result.SkippedBadAmount++
		return nil
	}

	var t *team.Team
	var err error
	if g.Team == "" {
		t, err = i.teamRepo.EnsureByName(ctx, team.UnassignedName)
		if err != nil {
			return fmt.Errorf("ensuring unassigned team: %w", err)
		}
	} else {
		t, err = i.teamRepo.GetByName(ctx, g.Team)
		if err != nil {
			if errors.Is(err, team.ErrTeamNotFound) {
				slog.Warn("skipping cost tuple for unknown team",
					"team", g.Team, "service", g.Service)
				result.SkippedUnknownTeam++
				return nil
			}
			return fmt.Errorf("resolving team %q: %w", g.Team, err)
		}
	}

	rec := &cost.Record{
		Date:    truncateToDay(g.Date),
		TeamID:  t.ID,
		Service: g.Service,
		Amount:  g.Amount,
	}
	if err := i.costRepo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persisting cost record for team %q: %w", t.Name, err)
	}

	result.Persisted++
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
