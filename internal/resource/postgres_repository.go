package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new resource record.
func (r *PostgresRepository) Create(ctx context.Context, res *Resource) error {
	query := `
		INSERT INTO aws_resources (name, arn, service, team_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		res.Name, res.ARN, res.Service, res.TeamID,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateARN
		}
		return fmt.Errorf("inserting resource: %w", err)
	}

	return nil
}

// GetByID retrieves a single resource by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	query := `
		SELECT id, name, arn, service, team_id, created_at, updated_at
		FROM aws_resources
		WHERE id = $1`

	var res Resource
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.Name, &res.ARN, &res.Service,
		&res.TeamID, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("querying resource: %w", err)
	}

	return &res, nil
}

// List retrieves resources ordered by creation time, paginated by offset and limit.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]Resource, error) {
	query := `
		SELECT id, name, arn, service, team_id, created_at, updated_at
		FROM aws_resources
		ORDER BY created_at ASC
		OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var res Resource
		err := rows.Scan(
			&res.ID, &res.Name, &res.ARN, &res.Service,
			&res.TeamID, &res.CreatedAt, &res.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning resource row: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resource rows: %w", err)
	}

	if resources == nil {
		resources = []Resource{}
	}

	return resources, nil
}

// UpdateTeam reassigns a resource to the given team and returns the updated row.
// Returns ErrResourceNotFound if no resource matches.
func (r *PostgresRepository) UpdateTeam(ctx context.Context, id, teamID uuid.UUID) (*Resource, error) {
	query := `
		UPDATE aws_resources
		SET team_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, arn, service, team_id, created_at, updated_at`

	var res Resource
	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&res.ID, &res.Name, &res.ARN, &res.Service,
		&res.TeamID, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("updating resource team: %w", err)
	}

	return &res, nil
}

// Count returns the total number of resources.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM aws_resources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting resources: %w", err)
	}
	return count, nil
}
