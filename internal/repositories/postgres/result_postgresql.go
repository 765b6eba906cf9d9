package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

const responseBatchSize = 100

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

// SaveResult writes the result, every response and the per-subcategory
// rollups atomically.
func (r *ResultPostgreSQL) SaveResult(ctx context.Context, result *models.ExamResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Responses").Create(result).Error; err != nil {
			return fmt.Errorf("failed to create exam result: %w", err)
		}

		if len(result.Responses) > 0 {
			for i := range result.Responses {
				result.Responses[i].ResultID = result.ID
			}
			if err := tx.CreateInBatches(&result.Responses, responseBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create question responses: %w", err)
			}
		}

		for _, stat := range subcategoryRollups(result) {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "subcategory_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"attempted":  gorm.Expr("subcategory_stats.attempted + ?", stat.Attempted),
					"correct":    gorm.Expr("subcategory_stats.correct + ?", stat.Correct),
					"updated_at": stat.UpdatedAt,
				}),
			}).Create(&stat).Error; err != nil {
				return fmt.Errorf("failed to update subcategory %s: %w", stat.SubcategoryID, err)
			}
		}

		return nil
	})
}

// subcategoryRollups sums a result's responses per subcategory, in first
// appearance order. Responses without a subcategory are skipped.
func subcategoryRollups(result *models.ExamResult) []models.SubcategoryStat {
	now := result.CompletedAt
	if now.IsZero() {
		now = time.Now()
	}

	var order []string
	byID := map[string]*models.SubcategoryStat{}
	for _, resp := range result.Responses {
		if resp.SubcategoryID == "" {
			continue
		}
		stat, ok := byID[resp.SubcategoryID]
		if !ok {
			stat = &models.SubcategoryStat{
				UserID:        result.UserID,
				SubcategoryID: resp.SubcategoryID,
				UpdatedAt:     now,
			}
			byID[resp.SubcategoryID] = stat
			order = append(order, resp.SubcategoryID)
		}
		stat.Attempted++
		if resp.IsCorrect {
			stat.Correct++
		}
	}

	out := make([]models.SubcategoryStat, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

func (r *ResultPostgreSQL) GetResult(ctx context.Context, resultID string) (*models.ExamResult, error) {
	return r.first(ctx, "id = ?", resultID)
}

func (r *ResultPostgreSQL) GetResultBySession(ctx context.Context, sessionID string) (*models.ExamResult, error) {
	return r.first(ctx, "session_id = ?", sessionID)
}

func (r *ResultPostgreSQL) first(ctx context.Context, query string, arg interface{}) (*models.ExamResult, error) {
	var result models.ExamResult
	if err := r.db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_number ASC").Order("id ASC")
		}).
		Where(query, arg).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("exam result: %w", repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) ListResultsByUser(ctx context.Context, userID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	filters = filters.Normalize()

	query := r.db.WithContext(ctx).Model(&models.ExamResult{}).Where("user_id = ?", userID)
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exam results: %w", err)
	}

	var results []*models.ExamResult
	if err := query.
		Order(filters.OrderClause()).
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exam results: %w", err)
	}

	return results, total, nil
}

func (r *ResultPostgreSQL) GetSubcategoryStats(ctx context.Context, userID string) ([]models.SubcategoryStat, error) {
	var stats []models.SubcategoryStat
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("subcategory_id ASC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get subcategory stats: %w", err)
	}
	return stats, nil
}
