package cost

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when the record references a nonexistent team.
var ErrTeamNotFound = errors.New("cost record team not found")

// ListFilter narrows a cost listing to a team and an optional inclusive
// date range, paginated by offset and limit.
type ListFilter struct {
	TeamID    uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// Repository provides operations on the cost_records table.
type Repository interface {
	// Upsert inserts the record, or replaces the amount of an existing row
	// with the same (team_id, service, date) key.
	Upsert(ctx context.Context, rec *Record) error
	ListByTeam(ctx context.Context, filter ListFilter) ([]Record, error)
	CountByTeam(ctx context.Context, filter ListFilter) (int, error)
}
