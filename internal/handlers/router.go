package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	sessionHandler *SessionHandler
	resultHandler  *ResultHandler
	tutorHandler   *TutorHandler
	health         Pinger
	auth           gin.HandlerFunc
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	health Pinger,
	parser TokenParser,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Session(), logger),
		resultHandler:  NewResultHandler(serviceManager.Result(), logger),
		tutorHandler:   NewTutorHandler(serviceManager.Tutor(), logger),
		health:         health,
		auth:           AuthMiddleware(parser, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1", hm.auth)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("", hm.sessionHandler.ListResumable)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/begin", hm.sessionHandler.BeginSession)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/cross-out", hm.sessionHandler.ToggleCrossOut)
			sessions.POST("/:id/mark", hm.sessionHandler.ToggleMark)
			sessions.POST("/:id/pause", hm.sessionHandler.PauseClock)
			sessions.POST("/:id/resume", hm.sessionHandler.ResumeClock)
			sessions.POST("/:id/finish", hm.sessionHandler.FinishModule)
			sessions.POST("/:id/intermission/skip", hm.sessionHandler.SkipIntermission)
			sessions.POST("/:id/exit", hm.sessionHandler.ExitSession)
			sessions.POST("/:id/restore", hm.sessionHandler.RestoreSession)
		}

		results := v1.Group("/results")
		{
			results.GET("", hm.resultHandler.ListResults)
			results.GET("/stats", hm.resultHandler.GetSubcategoryStats)
			results.GET("/:id", hm.resultHandler.GetResult)
			results.GET("/:id/export", hm.resultHandler.ExportResult)
		}

		v1.POST("/tutor/chat", hm.tutorHandler.Chat)
	}
}

// HealthCheck handles GET /health
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "healthy",
		"service": "sat-session-service",
	}

	if hm.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hm.health.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = err.Error()
		}
	}

	c.JSON(status, body)
}
