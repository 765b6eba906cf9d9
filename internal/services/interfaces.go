package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
	"github.com/SAP-F-2025/sat-session-service/internal/tutor"
)

// ===== REQUESTS =====

type StartSessionRequest struct {
	ExamID        string `json:"exam_id" validate:"required,max=64"`
	ModuleNumbers []int  `json:"module_numbers" validate:"omitempty,max=8,unique,dive,module_number"`
	Practice      bool   `json:"practice"`
}

type AnswerRequest struct {
	Value string `json:"value" validate:"max=255"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,nav_action"`
	Index  int    `json:"index" validate:"gte=0"`
}

type CrossOutRequest struct {
	QuestionIndex int    `json:"question_index" validate:"gte=0"`
	Option        string `json:"option" validate:"required,option_letter"`
}

type MarkRequest struct {
	QuestionIndex int `json:"question_index" validate:"gte=0"`
}

// ===== RESPONSES =====

// ToggleResponse carries the new state of a toggled annotation alongside the
// refreshed session view.
type ToggleResponse struct {
	Active  bool                `json:"active"`
	Session session.SessionView `json:"session"`
}

// ExitResponse reports whether the checkpoint reached the store. Exit
// succeeds either way.
type ExitResponse struct {
	SessionID        string       `json:"session_id"`
	Phase            models.Phase `json:"phase"`
	CheckpointSaved  bool         `json:"checkpoint_saved"`
	RemainingSeconds int          `json:"remaining_seconds"`
}

// ResumableSession summarizes a checkpointed session the user can restore.
type ResumableSession struct {
	SessionID        string       `json:"session_id"`
	ExamID           string       `json:"exam_id"`
	Practice         bool         `json:"practice"`
	Phase            models.Phase `json:"phase"`
	ModuleIndex      int          `json:"module_index"`
	ModuleCount      int          `json:"module_count"`
	RemainingSeconds int          `json:"remaining_seconds"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type ResumableListResponse struct {
	Sessions []ResumableSession `json:"sessions"`
	Total    int                `json:"total"`
}

type ResultListResponse struct {
	Results []*models.ExamResult `json:"results"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// ===== SERVICES =====

type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, userID string) (*session.SessionView, error)
	Restore(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	Get(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	// ListResumable returns the user's checkpointed sessions, newest first.
	ListResumable(ctx context.Context, userID string) (*ResumableListResponse, error)

	Begin(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	Answer(ctx context.Context, sessionID string, req *AnswerRequest, userID string) (*session.SessionView, error)
	Navigate(ctx context.Context, sessionID string, req *NavigateRequest, userID string) (*session.SessionView, error)
	ToggleCrossOut(ctx context.Context, sessionID string, req *CrossOutRequest, userID string) (*ToggleResponse, error)
	ToggleMark(ctx context.Context, sessionID string, req *MarkRequest, userID string) (*ToggleResponse, error)
	PauseClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	ResumeClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	FinishModule(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	SkipIntermission(ctx context.Context, sessionID, userID string) (*session.SessionView, error)
	Exit(ctx context.Context, sessionID, userID string) (*ExitResponse, error)

	// Shutdown checkpoints and stops every live session.
	Shutdown(ctx context.Context)
}

type ResultService interface {
	Get(ctx context.Context, resultID, userID string) (*models.ExamResult, error)
	List(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	SubcategoryStats(ctx context.Context, userID string) ([]models.SubcategoryStat, error)
	ExportToExcel(ctx context.Context, resultID, userID string) ([]byte, error)
}

type TutorService interface {
	Chat(ctx context.Context, req *tutor.Request, userID string) (*tutor.Response, error)
}

// ServiceManager groups the services the handlers depend on.
type ServiceManager interface {
	Session() SessionService
	Result() ResultService
	Tutor() TutorService
}
