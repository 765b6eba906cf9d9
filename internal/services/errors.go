package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/sat-session-service/internal/errors"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExists       = errors.New("session already active")
	ErrSessionCompleted    = errors.New("session already completed")
	ErrInvalidTransition   = errors.New("action not allowed in current phase")
	ErrQuestionOutOfRange  = errors.New("question index out of range")
	ErrModuleNotFound      = errors.New("module not found")
	ErrCheckpointNotFound  = errors.New("no checkpoint for session")
	ErrServiceShuttingDown = errors.New("service is shutting down")

	// Result errors
	ErrResultNotFound = errors.New("result not found")

	// Tutor errors
	ErrTutorUnavailable = errors.New("tutor is not configured")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR HELPERS =====

// mapSessionError translates engine errors into service errors, keeping the
// original in the chain.
func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrInvalidPhase), errors.Is(err, session.ErrModuleCompleted):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, session.ErrQuestionOutOfRange):
		return fmt.Errorf("%w: %w", ErrQuestionOutOfRange, err)
	case errors.Is(err, session.ErrInvalidCheckpoint), errors.Is(err, session.ErrModuleNumberMismatch):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrCheckpointNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrUnauthorized) || errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrQuestionOutOfRange) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionExists) ||
		errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrInvalidTransition)
}
