package validation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateCostRecordRequest mirrors the fields needed for backfill validation.
type CreateCostRecordRequest struct {
	Date    string
	TeamID  string
	Service string
	Amount  float64
}

// ValidateCreateCostRecordRequest validates the fields of a manual cost
// record backfill request.
func ValidateCreateCostRecordRequest(req CreateCostRecordRequest) []FieldError {
	var errs []FieldError

	if req.Date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "date is required"})
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}

	if req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId is required"})
	} else if _, err := uuid.Parse(req.TeamID); err != nil {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
	}

	if strings.TrimSpace(req.Service) == "" {
		errs = append(errs, FieldError{Field: "service", Message: "service is required"})
	}

	if req.Amount < 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must not be negative"})
	}

	return errs
}
