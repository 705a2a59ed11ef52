package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/costwatch/costwatch/internal/api/middleware"
	"github.com/costwatch/costwatch/internal/api/response"
	"github.com/costwatch/costwatch/internal/api/validation"
	"github.com/costwatch/costwatch/internal/cost"
	"github.com/costwatch/costwatch/internal/user"
)

const dateFormat = "2006-01-02"

type createCostRecordRequest struct {
	Date    string  `json:"date"`
	TeamID  string  `json:"teamId"`
	Service string  `json:"service"`
	Amount  float64 `json:"amount"`
}

type costRecordResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	TeamID    string  `json:"teamId"`
	Service   string  `json:"service"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"createdAt"`
}

func toCostRecordResponse(rec *cost.Record) costRecordResponse {
	return costRecordResponse{
		ID:        rec.ID.String(),
		Date:      rec.Date.Format(dateFormat),
		TeamID:    rec.TeamID.String(),
		Service:   rec.Service,
		Amount:    rec.Amount,
		CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// CostHandler handles cost query and backfill endpoints.
type CostHandler struct {
	repo cost.Repository
}

// NewCostHandler creates a new CostHandler.
func NewCostHandler(repo cost.Repository) *CostHandler {
	return &CostHandler{repo: repo}
}

// ListByTeam handles GET /teams/{teamId}/costs. Admins may view any team;
// everyone else only their own. The forbidden response does not reveal
// whether the team exists.
func (h *CostHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "teamId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "teamId must be a valid UUID", requestID)
		return
	}

	u := middleware.GetUser(r.Context())
	if u == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
		return
	}
	if !canViewTeam(u, teamID) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", requestID)
		return
	}

	filter := cost.ListFilter{TeamID: teamID}
	filter.Offset, filter.Limit = parsePagination(r)

	if v := r.URL.Query().Get("start_date"); v != "" {
		start, err := time.Parse(dateFormat, v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_DATE", "start_date must be in YYYY-MM-DD format", requestID)
			return
		}
		filter.StartDate = &start
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		end, err := time.Parse(dateFormat, v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_DATE", "end_date must be in YYYY-MM-DD format", requestID)
			return
		}
		filter.EndDate = &end
	}

	records, err := h.repo.ListByTeam(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list cost records", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cost records", requestID)
		return
	}

	total, err := h.repo.CountByTeam(r.Context(), filter)
	if err != nil {
		slog.Error("failed to count cost records", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cost records", requestID)
		return
	}

	items := make([]costRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, toCostRecordResponse(&records[i]))
	}

	response.SuccessList(w, http.StatusOK, items, total, filter.Offset, filter.Limit, requestID)
}

// Create handles POST /costs: a manual backfill path that goes through the
// same upsert as ingestion, so it can never duplicate a (team, service, day).
func (h *CostHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createCostRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateCostRecordRequest(validation.CreateCostRecordRequest{
		Date:    req.Date,
		TeamID:  req.TeamID,
		Service: req.Service,
		Amount:  req.Amount,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	date, _ := time.Parse(dateFormat, req.Date) // already validated
	teamID, _ := uuid.Parse(req.TeamID)

	rec := &cost.Record{
		Date:    date,
		TeamID:  teamID,
		Service: req.Service,
		Amount:  req.Amount,
	}

	if err := h.repo.Upsert(r.Context(), rec); err != nil {
		if errors.Is(err, cost.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to upsert cost record", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create cost record", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toCostRecordResponse(rec), requestID)
}

// canViewTeam applies the team-scope boundary: admins see everything, other
// roles only the team they belong to.
func canViewTeam(u *user.User, teamID uuid.UUID) bool {
	if u.Role == user.RoleAdmin {
		return true
	}
	return u.TeamID != nil && *u.TeamID == teamID
}
