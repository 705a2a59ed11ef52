package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/costwatch/costwatch/internal/api/middleware"
	"github.com/costwatch/costwatch/internal/api/response"
	"github.com/costwatch/costwatch/internal/api/validation"
	"github.com/costwatch/costwatch/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
}

// AuthHandler handles the login endpoint.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", requestID)
		case errors.Is(err, auth.ErrInactiveAccount):
			response.Err(w, http.StatusUnauthorized, "INACTIVE_ACCOUNT", "Account is deactivated", requestID)
		default:
			slog.Error("login failed", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		}
		return
	}

	token, err := h.authService.IssueToken(u)
	if err != nil {
		slog.Error("failed to issue token", "error", err, "userId", u.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, loginResponse{
		User:        toUserResponse(u),
		AccessToken: token,
		TokenType:   "bearer",
	}, requestID)
}
