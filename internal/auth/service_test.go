package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/auth"
	"github.com/costwatch/costwatch/internal/user"
)

const (
	testSecret     = "test-signing-secret"
	testBcryptCost = 4 // low cost for fast tests
)

// --- Mock User Repository ---

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*user.User, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*user.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context, offset, limit int) ([]user.User, error) {
	return []user.User{}, nil
}

func (m *mockUserRepo) UpdateTeam(ctx context.Context, id, teamID uuid.UUID) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) { return 0, nil }

// --- Helpers ---

func newService(repo user.Repository, ttl time.Duration) *auth.Service {
	return auth.NewService(repo, testSecret, ttl, testBcryptCost)
}

func activeUser(t *testing.T, svc *auth.Service, password string) *user.User {
	t.Helper()

	hash, err := svc.HashPassword(password)
	require.NoError(t, err)

	return &user.User{
		ID:           uuid.New(),
		Email:        "dev@example.com",
		PasswordHash: hash,
		Role:         user.RoleViewer,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func repoWith(u *user.User) *mockUserRepo {
	return &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*user.User, error) {
			if u != nil && email == u.Email {
				return u, nil
			}
			return nil, user.ErrUserNotFound
		},
		getByIDFn: func(_ context.Context, id uuid.UUID) (*user.User, error) {
			if u != nil && id == u.ID {
				return u, nil
			}
			return nil, user.ErrUserNotFound
		},
	}
}

// --- Authenticate ---

func TestAuthenticate_ValidCredentials(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	svc = newService(repoWith(u), 30*time.Minute)

	got, err := svc.Authenticate(context.Background(), "dev@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	svc = newService(repoWith(u), 30*time.Minute)

	_, err := svc.Authenticate(context.Background(), "dev@example.com", "not-the-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever12")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	u.IsActive = false
	svc = newService(repoWith(u), 30*time.Minute)

	_, err := svc.Authenticate(context.Background(), "dev@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, auth.ErrInactiveAccount)
}

// --- Token round trip ---

func TestToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	svc = newService(repoWith(u), 30*time.Minute)

	token, err := svc.IssueToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestToken_Expired(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")

	// Issue with a TTL already in the past.
	expiredSvc := newService(repoWith(u), -time.Minute)
	token, err := expiredSvc.IssueToken(u)
	require.NoError(t, err)

	_, err = expiredSvc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestToken_TamperedAnyByte(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	svc = newService(repoWith(u), 30*time.Minute)

	token, err := svc.IssueToken(u)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		tampered := []byte(token)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		if string(tampered) == token {
			continue
		}

		_, err := svc.VerifyToken(context.Background(), string(tampered))
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "byte %d", i)
	}
}

func TestToken_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, issuer, "hunter2hunter2")
	issuer = newService(repoWith(u), 30*time.Minute)

	token, err := issuer.IssueToken(u)
	require.NoError(t, err)

	verifier := auth.NewService(repoWith(u), "another-secret", 30*time.Minute, testBcryptCost)
	_, err = verifier.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestToken_UserGone(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	issuer := newService(repoWith(u), 30*time.Minute)

	token, err := issuer.IssueToken(u)
	require.NoError(t, err)

	// Same secret, but the repository no longer resolves the user.
	verifier := newService(&mockUserRepo{}, 30*time.Minute)
	_, err = verifier.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrUnknownUser)
}

func TestToken_DeactivatedUser(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)
	u := activeUser(t, svc, "hunter2hunter2")
	svc = newService(repoWith(u), 30*time.Minute)

	token, err := svc.IssueToken(u)
	require.NoError(t, err)

	u.IsActive = false
	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrUnknownUser)
}

func TestToken_Garbage(t *testing.T) {
	t.Parallel()

	svc := newService(&mockUserRepo{}, 30*time.Minute)

	for _, tok := range []string{"", "not-a-token", "a.b.c", "eyJhbGciOiJub25lIn0..x"} {
		_, err := svc.VerifyToken(context.Background(), tok)
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "token %q", tok)
	}
}
