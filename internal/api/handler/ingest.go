package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/costwatch/costwatch/internal/api/middleware"
	"github.com/costwatch/costwatch/internal/api/response"
	"github.com/costwatch/costwatch/internal/ingest"
)

type ingestRunResponse struct {
	Date               string `json:"date"`
	Fetched            int    `json:"fetched"`
	Persisted          int    `json:"persisted"`
	SkippedUnknownTeam int    `json:"skippedUnknownTeam"`
	SkippedBadAmount   int    `json:"skippedBadAmount"`
}

// IngestHandler exposes a manual ingestion trigger for backfills.
type IngestHandler struct {
	ingester *ingest.Ingester
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingester *ingest.Ingester) *IngestHandler {
	return &IngestHandler{ingester: ingester}
}

// Run handles POST /ingest/run. The optional date query parameter selects the
// day to ingest; it defaults to yesterday, matching the scheduled run.
func (h *IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	day := time.Now().AddDate(0, 0, -1)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(dateFormat, v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_DATE", "date must be in YYYY-MM-DD format", requestID)
			return
		}
		day = parsed
	}

	result, err := h.ingester.TryRun(r.Context(), day)
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			response.Err(w, http.StatusConflict, "INGEST_RUNNING", "An ingestion run is already in progress", requestID)
			return
		}
		slog.Error("manual ingestion run failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Ingestion run failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, ingestRunResponse{
		Date:               day.Format(dateFormat),
		Fetched:            result.Fetched,
		Persisted:          result.Persisted,
		SkippedUnknownTeam: result.SkippedUnknownTeam,
		SkippedBadAmount:   result.SkippedBadAmount,
	}, requestID)
}
