package session

import (
	"context"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// ModuleSource loads exam definitions.
type ModuleSource interface {
	LoadModule(ctx context.Context, examID string, moduleNumber int) (*models.Module, error)
	LoadQuestions(ctx context.Context, moduleID string) ([]models.Question, error)
}

// ResultSink writes a final result together with its per-question responses
// and subcategory rollups as one atomic batch.
type ResultSink interface {
	SaveResult(ctx context.Context, result *models.ExamResult) error
}

type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp *models.Checkpoint) error
	LoadCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, sessionID string) error
	ListCheckpointsByUser(ctx context.Context, userID string) ([]*models.Checkpoint, error)
}

// Store is the full persistence port used by a running session.
type Store interface {
	ModuleSource
	ResultSink
	CheckpointStore
	GetResult(ctx context.Context, resultID string) (*models.ExamResult, error)
	GetResultBySession(ctx context.Context, sessionID string) (*models.ExamResult, error)
}
