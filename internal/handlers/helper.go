package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/services"
)

const userIDKey = "user_id"

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// currentUserID reads the id set by the auth middleware. It writes the 401
// itself when there is none.
func currentUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Message: "User not authenticated",
	})
	return "", false
}

// handleServiceError maps service errors onto HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", err)
	case errors.Is(err, services.ErrCheckpointNotFound):
		h.RespondWithError(c, http.StatusNotFound, "No saved progress for session", err)
	case errors.Is(err, services.ErrResultNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Result not found", err)
	case errors.Is(err, services.ErrModuleNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Exam module not found", err)
	case errors.Is(err, services.ErrSessionCompleted):
		h.RespondWithError(c, http.StatusConflict, "Session already completed", err)
	case errors.Is(err, services.ErrInvalidTransition):
		h.RespondWithError(c, http.StatusConflict, "Action not allowed in current phase", err)
	case errors.Is(err, services.ErrQuestionOutOfRange):
		h.RespondWithError(c, http.StatusBadRequest, "Question index out of range", err)
	case errors.Is(err, services.ErrTutorUnavailable), errors.Is(err, services.ErrServiceShuttingDown):
		h.RespondWithError(c, http.StatusServiceUnavailable, err.Error(), err)
	case errors.Is(err, services.ErrUnauthorized):
		h.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Conflict", err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Not found", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
