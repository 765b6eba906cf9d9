package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/sat-session-service/internal/cache"
	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

type CheckpointPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCheckpointPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CheckpointRepository {
	return &CheckpointPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// SaveCheckpoint upserts the checkpoint row and refreshes the cached copy.
func (c *CheckpointPostgreSQL) SaveCheckpoint(ctx context.Context, cp *models.Checkpoint) error {
	if err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(cp).Error; err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	c.cacheManager.SetCheckpoint(ctx, cp)
	return nil
}

func (c *CheckpointPostgreSQL) LoadCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, error) {
	if cached, ok := c.cacheManager.GetCheckpoint(ctx, sessionID); ok {
		return cached, nil
	}

	var cp models.Checkpoint
	if err := c.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checkpoint %s: %w", sessionID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	c.cacheManager.SetCheckpoint(ctx, &cp)
	return &cp, nil
}

func (c *CheckpointPostgreSQL) DeleteCheckpoint(ctx context.Context, sessionID string) error {
	c.cacheManager.DeleteCheckpoint(ctx, sessionID)
	if err := c.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Checkpoint{}).Error; err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (c *CheckpointPostgreSQL) ListCheckpointsByUser(ctx context.Context, userID string) ([]*models.Checkpoint, error) {
	var checkpoints []*models.Checkpoint
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&checkpoints).Error; err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return checkpoints, nil
}
