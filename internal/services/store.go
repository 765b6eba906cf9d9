package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
	"github.com/SAP-F-2025/sat-session-service/internal/validator"
)

// sessionStore presents the repository groups as the engine's persistence
// port.
type sessionStore struct {
	repositories.ModuleRepository
	repositories.ResultRepository
	repositories.CheckpointRepository
}

func newSessionStore(repo repositories.Repository) session.Store {
	return sessionStore{
		ModuleRepository:     repo.Module(),
		ResultRepository:     repo.Result(),
		CheckpointRepository: repo.Checkpoint(),
	}
}

// auditedSource reports malformed question records as they load. The
// records are passed through unchanged.
type auditedSource struct {
	session.ModuleSource
	questions *validator.QuestionValidator
	logger    *slog.Logger
}

func (a auditedSource) LoadQuestions(ctx context.Context, moduleID string) ([]models.Question, error) {
	questions, err := a.ModuleSource.LoadQuestions(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	for i, q := range questions {
		for _, issue := range a.questions.CheckQuestion(i, q) {
			a.logger.WarnContext(ctx, "Malformed question will score as incorrect",
				"module_id", moduleID,
				"question_id", issue.QuestionID,
				"index", issue.Index,
				"problem", issue.Problem)
		}
	}
	return questions, nil
}
