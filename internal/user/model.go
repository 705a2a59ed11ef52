package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level assigned to a user. Each user has exactly one.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeamLead Role = "team_lead"
	RoleViewer   Role = "viewer"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeamLead, RoleViewer:
		return true
	}
	return false
}

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	TeamID       *uuid.UUID // nil when the user has no team affiliation
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
