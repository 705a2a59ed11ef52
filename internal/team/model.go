package team

import (
	"time"

	"github.com/google/uuid"
)

// UnassignedName is the sentinel team that receives untagged spend.
const UnassignedName = "Unassigned"

// Team represents a row in the teams table.
type Team struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
