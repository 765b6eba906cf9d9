package validator

import (
	"errors"

	apperrors "github.com/SAP-F-2025/sat-session-service/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

func ToValidationErrors(err error) ValidationErrors {
	return apperrors.ToValidationErrors(err)
}

// IsValidationError reports whether err carries field validation failures.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
