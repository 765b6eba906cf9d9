package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// BaseHandler carries the logger and the error reply helpers every handler
// embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// requestFields returns the attributes attached to every handler log line.
func requestFields(c *gin.Context, extra []interface{}) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", c.GetString(userIDKey),
	}
	if sessionID := c.Param("id"); sessionID != "" {
		fields = append(fields, "resource_id", sessionID)
	}
	return append(fields, extra...)
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, fields ...interface{}) {
	h.logger.Debug(message, requestFields(c, fields)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, fields ...interface{}) {
	h.logger.Warn(message, requestFields(c, fields)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, fields ...interface{}) {
	h.logger.LogError(err, message, requestFields(c, fields)...)
}

// RespondWithError writes an ErrorResponse. Server errors are logged at error
// level, client errors at warn.
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}

	if err != nil && statusCode >= 500 {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	}

	c.JSON(statusCode, resp)
}
