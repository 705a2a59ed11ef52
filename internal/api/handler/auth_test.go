package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/api/handler"
	"github.com/costwatch/costwatch/internal/auth"
	"github.com/costwatch/costwatch/internal/user"
)

func loginSetup(t *testing.T, password string, active bool) (*handler.AuthHandler, *user.User) {
	t.Helper()

	repo := &mockUserRepo{}
	svc := auth.NewService(repo, "test-secret", 30*time.Minute, 4)

	hash, err := svc.HashPassword(password)
	require.NoError(t, err)

	u := &user.User{
		ID:           uuid.New(),
		Email:        "dev@example.com",
		PasswordHash: hash,
		Role:         user.RoleViewer,
		IsActive:     active,
	}
	repo.getByEmailFn = func(ctx context.Context, email string) (*user.User, error) {
		if email == u.Email {
			return u, nil
		}
		return nil, user.ErrUserNotFound
	}

	return handler.NewAuthHandler(svc), u
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	h, u := loginSetup(t, "correct-horse", true)

	body := []byte(`{"email":"dev@example.com","password":"correct-horse"}`)
	req, w := makeChiRequest(http.MethodPost, "/login", body, nil)
	h.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.NotEmpty(t, data["accessToken"])
	assert.Equal(t, "bearer", data["tokenType"])

	userObj := data["user"].(map[string]interface{})
	assert.Equal(t, u.ID.String(), userObj["id"])
	assert.NotContains(t, userObj, "passwordHash")
}

func TestLogin_MixedCaseEmailAfterSignup(t *testing.T) {
	t.Parallel()

	var stored *user.User
	repo := &mockUserRepo{}
	repo.createFn = func(ctx context.Context, u *user.User) error {
		u.ID = uuid.New()
		u.IsActive = true
		stored = u
		return nil
	}
	repo.getByEmailFn = func(ctx context.Context, email string) (*user.User, error) {
		if stored != nil && stored.Email == email {
			return stored, nil
		}
		return nil, user.ErrUserNotFound
	}

	svc := auth.NewService(repo, "test-secret", 30*time.Minute, 4)
	users := handler.NewUserHandler(svc, repo, &mockTeamRepo{})
	login := handler.NewAuthHandler(svc)

	// The identical mixed-case body must work for both signup and login.
	body := []byte(`{"email":"Alice@Example.com","password":"longenough"}`)

	req, w := makeChiRequest(http.MethodPost, "/users", body, nil)
	users.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req, w = makeChiRequest(http.MethodPost, "/login", body, nil)
	login.Login(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.NotEmpty(t, data["accessToken"])

	userObj := data["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", userObj["email"])
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	h, _ := loginSetup(t, "correct-horse", true)

	body := []byte(`{"email":"dev@example.com","password":"battery-staple"}`)
	req, w := makeChiRequest(http.MethodPost, "/login", body, nil)
	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_CREDENTIALS", errObj["code"])
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	h, _ := loginSetup(t, "correct-horse", true)

	body := []byte(`{"email":"nobody@example.com","password":"correct-horse"}`)
	req, w := makeChiRequest(http.MethodPost, "/login", body, nil)
	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_CREDENTIALS", errObj["code"])
}

func TestLogin_InactiveAccount(t *testing.T) {
	t.Parallel()

	h, _ := loginSetup(t, "correct-horse", false)

	body := []byte(`{"email":"dev@example.com","password":"correct-horse"}`)
	req, w := makeChiRequest(http.MethodPost, "/login", body, nil)
	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "INACTIVE_ACCOUNT", errObj["code"])
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	h, _ := loginSetup(t, "correct-horse", true)

	req, w := makeChiRequest(http.MethodPost, "/login", []byte(`{}`), nil)
	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}
