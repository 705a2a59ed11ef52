package user

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

// signupLockID keys the advisory lock serializing user inserts. Under READ
// COMMITTED two uncommitted inserts could each see an empty table, so the
// empty-table admin promotion needs more than a single statement.
const signupLockID = 0x636f7374757372 // "costusr"

// Create inserts a new user record. The very first user in the system is
// promoted to admin regardless of the requested role; a transaction-scoped
// advisory lock ensures at most one insert observes the empty table.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, password_hash, role, team_id, is_active)
		VALUES (
			$1, $2,
			CASE WHEN NOT EXISTS (SELECT 1 FROM users) THEN 'admin' ELSE $3 END,
			$4, TRUE
		)
		RETURNING id, role, is_active, created_at, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning user insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(signupLockID)); err != nil {
		return fmt.Errorf("acquiring signup lock: %w", err)
	}

	err = tx.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.TeamID,
	).Scan(&u.ID, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user insert: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, password_hash, role, team_id, is_active, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.TeamID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a single user by its unique email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, role, team_id, is_active, created_at, updated_at
		FROM users
		WHERE email = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.TeamID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return &u, nil
}

// List retrieves users ordered by creation time, paginated by offset and limit.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]User, error) {
	query := `
		SELECT id, email, password_hash, role, team_id, is_active, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
		OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.Role,
			&u.TeamID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	if users == nil {
		users = []User{}
	}

	return users, nil
}

// UpdateTeam reassigns a user to the given team and returns the updated row.
// Returns ErrUserNotFound if no user matches.
func (r *PostgresRepository) UpdateTeam(ctx context.Context, id, teamID uuid.UUID) (*User, error) {
	query := `
		UPDATE users
		SET team_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, password_hash, role, team_id, is_active, created_at, updated_at`

	var u User
	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.TeamID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating user team: %w", err)
	}

	return &u, nil
}

// Count returns the total number of users.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}
