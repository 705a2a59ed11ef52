package cost

import (
	"time"

	"github.com/google/uuid"
)

// Record represents a row in the cost_records table: one (team, service, day)
// spend observation. The (team_id, service, date) triple is unique; ingestion
// upserts against it.
type Record struct {
	ID        uuid.UUID
	Date      time.Time // truncated to day granularity
	TeamID    uuid.UUID
	Service   string
	Amount    float64
	CreatedAt time.Time
}
