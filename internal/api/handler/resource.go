package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/costwatch/costwatch/internal/api/middleware"
	"github.com/costwatch/costwatch/internal/api/response"
	"github.com/costwatch/costwatch/internal/api/validation"
	"github.com/costwatch/costwatch/internal/resource"
	"github.com/costwatch/costwatch/internal/team"
)

type createResourceRequest struct {
	Name    string `json:"name"`
	ARN     string `json:"arn"`
	Service string `json:"service"`
	TeamID  string `json:"teamId"`
}

type resourceResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ARN       string  `json:"arn"`
	Service   string  `json:"service"`
	TeamID    *string `json:"teamId,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toResourceResponse(res *resource.Resource) resourceResponse {
	resp := resourceResponse{
		ID:        res.ID.String(),
		Name:      res.Name,
		ARN:       res.ARN,
		Service:   res.Service,
		CreatedAt: res.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: res.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if res.TeamID != nil {
		tid := res.TeamID.String()
		resp.TeamID = &tid
	}
	return resp
}

// ResourceHandler handles AWS resource endpoints.
type ResourceHandler struct {
	repo     resource.Repository
	teamRepo team.Repository
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(repo resource.Repository, teamRepo team.Repository) *ResourceHandler {
	return &ResourceHandler{repo: repo, teamRepo: teamRepo}
}

// Create handles POST /resources.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateResourceRequest(validation.CreateResourceRequest{
		Name:    req.Name,
		ARN:     req.ARN,
		Service: req.Service,
		TeamID:  req.TeamID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var teamID *uuid.UUID
	if req.TeamID != "" {
		id, _ := uuid.Parse(req.TeamID) // already validated
		if _, err := h.teamRepo.GetByID(r.Context(), id); err != nil {
			if errors.Is(err, team.ErrTeamNotFound) {
				response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
				return
			}
			slog.Error("failed to get team", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create resource", requestID)
			return
		}
		teamID = &id
	}

	res := &resource.Resource{
		Name:    strings.TrimSpace(req.Name),
		ARN:     strings.TrimSpace(req.ARN),
		Service: strings.TrimSpace(req.Service),
		TeamID:  teamID,
	}

	if err := h.repo.Create(r.Context(), res); err != nil {
		if errors.Is(err, resource.ErrDuplicateARN) {
			response.Err(w, http.StatusConflict, "DUPLICATE_ARN", "A resource with this ARN already exists", requestID)
			return
		}
		slog.Error("failed to create resource", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create resource", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toResourceResponse(res), requestID)
}

// List handles GET /resources.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	offset, limit := parsePagination(r)

	resources, err := h.repo.List(r.Context(), offset, limit)
	if err != nil {
		slog.Error("failed to list resources", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list resources", requestID)
		return
	}

	total, err := h.repo.Count(r.Context())
	if err != nil {
		slog.Error("failed to count resources", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list resources", requestID)
		return
	}

	items := make([]resourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, toResourceResponse(&resources[i]))
	}

	response.SuccessList(w, http.StatusOK, items, total, offset, limit, requestID)
}

// UpdateTeam handles PUT /resources/{id}/team/{teamId}.
func (h *ResourceHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "teamId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "teamId must be a valid UUID", requestID)
		return
	}

	if _, err := h.teamRepo.GetByID(r.Context(), teamID); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to get team", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reassign resource", requestID)
		return
	}

	res, err := h.repo.UpdateTeam(r.Context(), id, teamID)
	if err != nil {
		if errors.Is(err, resource.ErrResourceNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", requestID)
			return
		}
		slog.Error("failed to reassign resource", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reassign resource", requestID)
		return
	}

	response.Success(w, http.StatusOK, toResourceResponse(res), requestID)
}
