package resource

import (
	"time"

	"github.com/google/uuid"
)

// Resource represents a row in the aws_resources table: a cloud resource
// identified by its ARN, optionally owned by a team.
type Resource struct {
	ID        uuid.UUID
	Name      string
	ARN       string
	Service   string
	TeamID    *uuid.UUID // nil until assigned to a team
	CreatedAt time.Time
	UpdatedAt time.Time
}
