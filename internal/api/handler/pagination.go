package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// parsePagination extracts offset/limit query parameters with defaults and
// an upper bound on limit. Malformed or negative values fall back to defaults.
func parsePagination(r *http.Request) (offset, limit int) {
	offset = 0
	limit = defaultLimit

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	return offset, limit
}
