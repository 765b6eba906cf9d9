package repositories

import (
	"context"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// ModuleRepository reads exam definitions. Both lookups return ErrNotFound
// for unknown keys.
type ModuleRepository interface {
	LoadModule(ctx context.Context, examID string, moduleNumber int) (*models.Module, error)
	LoadQuestions(ctx context.Context, moduleID string) ([]models.Question, error)
	ListModuleNumbers(ctx context.Context, examID string) ([]int, error)
}

// ResultRepository stores final exam results.
type ResultRepository interface {
	// SaveResult writes the result, its responses and the subcategory
	// rollups in one transaction.
	SaveResult(ctx context.Context, result *models.ExamResult) error
	GetResult(ctx context.Context, resultID string) (*models.ExamResult, error)
	GetResultBySession(ctx context.Context, sessionID string) (*models.ExamResult, error)
	ListResultsByUser(ctx context.Context, userID string, filters ResultFilters) ([]*models.ExamResult, int64, error)
	GetSubcategoryStats(ctx context.Context, userID string) ([]models.SubcategoryStat, error)
}

// CheckpointRepository stores in-progress session state.
type CheckpointRepository interface {
	SaveCheckpoint(ctx context.Context, cp *models.Checkpoint) error
	LoadCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, sessionID string) error
	ListCheckpointsByUser(ctx context.Context, userID string) ([]*models.Checkpoint, error)
}

// Repository groups the stores the session service needs.
type Repository interface {
	Module() ModuleRepository
	Result() ResultRepository
	Checkpoint() CheckpointRepository
	Ping(ctx context.Context) error
}
