package validation

import (
	"strings"

	"github.com/google/uuid"
)

// CreateResourceRequest mirrors the fields needed for create resource validation.
type CreateResourceRequest struct {
	Name    string
	ARN     string
	Service string
	TeamID  string
}

// ValidateCreateResourceRequest validates the fields of a create resource request.
func ValidateCreateResourceRequest(req CreateResourceRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	arn := strings.TrimSpace(req.ARN)
	if arn == "" {
		errs = append(errs, FieldError{Field: "arn", Message: "arn is required"})
	} else if !strings.HasPrefix(arn, "arn:") {
		errs = append(errs, FieldError{Field: "arn", Message: "arn must start with \"arn:\""})
	}

	if strings.TrimSpace(req.Service) == "" {
		errs = append(errs, FieldError{Field: "service", Message: "service is required"})
	}

	if req.TeamID != "" {
		if _, err := uuid.Parse(req.TeamID); err != nil {
			errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
		}
	}

	return errs
}
