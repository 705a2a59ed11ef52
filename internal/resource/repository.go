package resource

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrResourceNotFound is returned when a resource record is not found.
var ErrResourceNotFound = errors.New("resource not found")

// ErrDuplicateARN is returned when a resource with the same ARN already exists.
var ErrDuplicateARN = errors.New("resource ARN already registered")

// Repository provides CRUD operations on the aws_resources table.
type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context, offset, limit int) ([]Resource, error)
	UpdateTeam(ctx context.Context, id, teamID uuid.UUID) (*Resource, error)
	Count(ctx context.Context) (int, error)
}
