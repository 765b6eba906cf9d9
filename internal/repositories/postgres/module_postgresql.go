package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/sat-session-service/internal/cache"
	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

type ModulePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewModulePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// LoadModule reads a module by exam and number, without its questions.
func (m *ModulePostgreSQL) LoadModule(ctx context.Context, examID string, moduleNumber int) (*models.Module, error) {
	if cached, ok := m.cacheManager.GetModule(ctx, examID, moduleNumber); ok {
		return cached, nil
	}

	var module models.Module
	if err := m.db.WithContext(ctx).
		Where("exam_id = ? AND module_number = ?", examID, moduleNumber).
		First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %d of exam %s: %w", moduleNumber, examID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load module: %w", err)
	}

	m.cacheManager.SetModule(ctx, &module)
	return &module, nil
}

// LoadQuestions returns a module's questions in display order.
func (m *ModulePostgreSQL) LoadQuestions(ctx context.Context, moduleID string) ([]models.Question, error) {
	if cached, ok := m.cacheManager.GetQuestions(ctx, moduleID); ok {
		return cached, nil
	}

	var questions []models.Question
	if err := m.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	m.cacheManager.SetQuestions(ctx, moduleID, questions)
	return questions, nil
}

func (m *ModulePostgreSQL) ListModuleNumbers(ctx context.Context, examID string) ([]int, error) {
	var numbers []int
	if err := m.db.WithContext(ctx).
		Model(&models.Module{}).
		Where("exam_id = ?", examID).
		Order("module_number ASC").
		Pluck("module_number", &numbers).Error; err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("exam %s: %w", examID, repositories.ErrNotFound)
	}
	return numbers, nil
}
