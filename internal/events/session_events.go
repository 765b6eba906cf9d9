package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// EventType represents the kinds of session lifecycle events
type EventType string

const (
	EventSessionStarted      EventType = "session.started"
	EventModuleCompleted     EventType = "session.module_completed"
	EventExamCompleted       EventType = "session.exam_completed"
	EventSessionCheckpointed EventType = "session.checkpointed"
)

const (
	eventSource  = "sat-session-service"
	eventVersion = "1.0"
)

// SessionEvent is the envelope for every event the service emits
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionStartedEvent struct {
	UserID        string `json:"user_id"`
	ExamID        string `json:"exam_id"`
	ModuleNumbers []int  `json:"module_numbers"`
	Practice      bool   `json:"practice"`
	Resumed       bool   `json:"resumed"`
}

type ModuleCompletedEvent struct {
	UserID           string           `json:"user_id"`
	ExamID           string           `json:"exam_id"`
	ModuleID         string           `json:"module_id"`
	ModuleNumber     int              `json:"module_number"`
	EndReason        models.EndReason `json:"end_reason"`
	Answered         int              `json:"answered"`
	TotalQuestions   int              `json:"total_questions"`
	RemainingSeconds int              `json:"remaining_seconds"`
}

type ExamCompletedEvent struct {
	ResultID           string               `json:"result_id"`
	UserID             string               `json:"user_id"`
	ExamID             string               `json:"exam_id"`
	OverallScore       int                  `json:"overall_score"`
	Scores             models.SectionScores `json:"scores"`
	CorrectAnswers     int                  `json:"correct_answers"`
	TotalQuestions     int                  `json:"total_questions"`
	ProgressSaveFailed bool                 `json:"progress_save_failed"`
}

type SessionCheckpointedEvent struct {
	UserID           string       `json:"user_id"`
	Phase            models.Phase `json:"phase"`
	ModuleIndex      int          `json:"module_index"`
	RemainingSeconds int          `json:"remaining_seconds"`
	Saved            bool         `json:"saved"`
}

func newEvent(eventType EventType, sessionID string, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionStartedEvent(sessionID, userID, examID string, moduleNumbers []int, practice, resumed bool) *SessionEvent {
	return newEvent(EventSessionStarted, sessionID, SessionStartedEvent{
		UserID:        userID,
		ExamID:        examID,
		ModuleNumbers: moduleNumbers,
		Practice:      practice,
		Resumed:       resumed,
	})
}

func NewModuleCompletedEvent(sessionID, userID, examID string, res models.ModuleResult) *SessionEvent {
	answered := 0
	for i := range res.Questions {
		if res.Answers[i] != "" {
			answered++
		}
	}
	return newEvent(EventModuleCompleted, sessionID, ModuleCompletedEvent{
		UserID:           userID,
		ExamID:           examID,
		ModuleID:         res.ModuleID,
		ModuleNumber:     res.ModuleNumber,
		EndReason:        res.EndReason,
		Answered:         answered,
		TotalQuestions:   len(res.Questions),
		RemainingSeconds: res.RemainingSeconds,
	})
}

func NewExamCompletedEvent(result *models.ExamResult) *SessionEvent {
	return newEvent(EventExamCompleted, result.SessionID, ExamCompletedEvent{
		ResultID:           result.ID,
		UserID:             result.UserID,
		ExamID:             result.ExamID,
		OverallScore:       result.OverallScore,
		Scores:             result.Scores,
		CorrectAnswers:     result.CorrectAnswers,
		TotalQuestions:     result.TotalQuestions,
		ProgressSaveFailed: result.ProgressSaveFailed,
	})
}

func NewSessionCheckpointedEvent(cp *models.Checkpoint, saved bool) *SessionEvent {
	return newEvent(EventSessionCheckpointed, cp.SessionID, SessionCheckpointedEvent{
		UserID:           cp.UserID,
		Phase:            cp.Phase,
		ModuleIndex:      cp.ModuleIndex,
		RemainingSeconds: cp.RemainingSeconds,
		Saved:            saved,
	})
}

// GenerateEventID returns a random event id
func GenerateEventID() string {
	return uuid.NewString()
}
