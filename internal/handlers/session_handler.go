package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	service services.SessionService
}

func NewSessionHandler(service services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// StartSession handles POST /sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	h.LogRequest(c, "Starting session", "exam_id", req.ExamID, "practice", req.Practice)

	view, err := h.service.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListResumable handles GET /sessions
func (h *SessionHandler) ListResumable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListResumable(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSession handles GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.sessionAction(c, h.service.Get)
}

func (h *SessionHandler) BeginSession(c *gin.Context) {
	h.sessionAction(c, h.service.Begin)
}

func (h *SessionHandler) PauseClock(c *gin.Context) {
	h.sessionAction(c, h.service.PauseClock)
}

func (h *SessionHandler) ResumeClock(c *gin.Context) {
	h.sessionAction(c, h.service.ResumeClock)
}

func (h *SessionHandler) FinishModule(c *gin.Context) {
	h.sessionAction(c, h.service.FinishModule)
}

func (h *SessionHandler) SkipIntermission(c *gin.Context) {
	h.sessionAction(c, h.service.SkipIntermission)
}

// RestoreSession handles POST /sessions/:id/restore
func (h *SessionHandler) RestoreSession(c *gin.Context) {
	h.sessionAction(c, h.service.Restore)
}

// SubmitAnswer handles POST /sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	view, err := h.service.Answer(c.Request.Context(), sessionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate handles POST /sessions/:id/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	view, err := h.service.Navigate(c.Request.Context(), sessionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToggleCrossOut handles POST /sessions/:id/cross-out
func (h *SessionHandler) ToggleCrossOut(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.CrossOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	resp, err := h.service.ToggleCrossOut(c.Request.Context(), sessionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ToggleMark handles POST /sessions/:id/mark
func (h *SessionHandler) ToggleMark(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	resp, err := h.service.ToggleMark(c.Request.Context(), sessionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExitSession handles POST /sessions/:id/exit. A failed checkpoint is
// reported in the body, not as an error status.
func (h *SessionHandler) ExitSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	resp, err := h.service.Exit(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !resp.CheckpointSaved {
		h.LogWarn(c, "Session exited without a saved checkpoint", "session_id", sessionID)
	}
	c.JSON(http.StatusOK, resp)
}

type sessionActionFunc func(ctx context.Context, sessionID, userID string) (*session.SessionView, error)

func (h *SessionHandler) sessionAction(c *gin.Context, fn sessionActionFunc) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	view, err := fn(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
