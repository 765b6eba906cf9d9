package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/sat-session-service/internal/cache"
	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

type Repository struct {
	db         *gorm.DB
	module     repositories.ModuleRepository
	result     repositories.ResultRepository
	checkpoint repositories.CheckpointRepository
}

// NewRepository wires every store onto one gorm handle. cacheManager may be
// nil when redis is disabled.
func NewRepository(db *gorm.DB, cacheManager *cache.CacheManager) *Repository {
	return &Repository{
		db:         db,
		module:     NewModulePostgreSQL(db, cacheManager),
		result:     NewResultPostgreSQL(db),
		checkpoint: NewCheckpointPostgreSQL(db, cacheManager),
	}
}

func (r *Repository) Module() repositories.ModuleRepository         { return r.module }
func (r *Repository) Result() repositories.ResultRepository         { return r.result }
func (r *Repository) Checkpoint() repositories.CheckpointRepository { return r.checkpoint }

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Module{},
		&models.Question{},
		&models.ExamResult{},
		&models.QuestionResponse{},
		&models.SubcategoryStat{},
		&models.Checkpoint{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

var _ repositories.Repository = (*Repository)(nil)
