package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/tutor"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

type TutorHandler struct {
	BaseHandler
	service services.TutorService
}

func NewTutorHandler(service services.TutorService, logger utils.Logger) *TutorHandler {
	return &TutorHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Chat handles POST /tutor/chat
func (h *TutorHandler) Chat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req tutor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err, err.Error())
		return
	}

	h.LogRequest(c, "Tutor chat", "history", len(req.ChatHistory),
		"tip", req.Flags.TipRequested, "summarise", req.Flags.SummariseRequested)

	resp, err := h.service.Chat(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
