package cost

import (
	"context"
	"errors"
	"fmt"

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

// Upsert inserts a cost record, replacing the amount on conflict with the
// (team_id, service, date) unique key. The conflict resolution is the
// serialization point for concurrent ingestion runs; re-delivered days
// replace amounts instead of duplicating rows.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO cost_records (date, team_id, service, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, service, date)
		DO UPDATE SET amount = EXCLUDED.amount
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		rec.Date, rec.TeamID, rec.Service, rec.Amount,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTeamNotFound
		}
		return fmt.Errorf("upserting cost record: %w", err)
	}

	return nil
}

// ListByTeam retrieves cost records for a team, newest first, optionally
// bounded by an inclusive date range.
func (r *PostgresRepository) ListByTeam(ctx context.Context, filter ListFilter) ([]Record, error) {
	query := `
		SELECT id, date, team_id, service, amount, created_at
		FROM cost_records
		WHERE team_id = $1
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		ORDER BY date DESC, service ASC
		OFFSET $4 LIMIT $5`

	rows, err := r.pool.Query(ctx, query,
		filter.TeamID, filter.StartDate, filter.EndDate, filter.Offset, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cost records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.Date, &rec.TeamID, &rec.Service, &rec.Amount, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning cost record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cost record rows: %w", err)
	}

	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// CountByTeam returns the number of cost records matching the filter,
// ignoring pagination.
func (r *PostgresRepository) CountByTeam(ctx context.Context, filter ListFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM cost_records
		WHERE team_id = $1
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)`

	var count int
	err := r.pool.QueryRow(ctx, query, filter.TeamID, filter.StartDate, filter.EndDate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting cost records: %w", err)
	}

	return count, nil
}
