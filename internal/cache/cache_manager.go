package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// CacheManager stores exam definitions and hot checkpoints. A nil
// CacheService disables caching: reads miss and writes are dropped.
type CacheManager struct {
	cache         CacheService
	logger        *slog.Logger
	moduleTTL     time.Duration
	checkpointTTL time.Duration
}

func NewCacheManager(cache CacheService, logger *slog.Logger, moduleTTL, checkpointTTL time.Duration) *CacheManager {
	return &CacheManager{
		cache:         cache,
		logger:        logger,
		moduleTTL:     moduleTTL,
		checkpointTTL: checkpointTTL,
	}
}

func ModuleKey(examID string, moduleNumber int) string {
	return fmt.Sprintf("module:%s:%d", examID, moduleNumber)
}

func QuestionsKey(moduleID string) string {
	return fmt.Sprintf("questions:%s", moduleID)
}

func CheckpointKey(sessionID string) string {
	return fmt.Sprintf("checkpoint:%s", sessionID)
}

func (m *CacheManager) Enabled() bool {
	return m != nil && m.cache != nil
}

func (m *CacheManager) GetModule(ctx context.Context, examID string, moduleNumber int) (*models.Module, bool) {
	var mod models.Module
	if !m.get(ctx, ModuleKey(examID, moduleNumber), &mod) {
		return nil, false
	}
	return &mod, true
}

func (m *CacheManager) SetModule(ctx context.Context, mod *models.Module) {
	if !m.Enabled() {
		return
	}
	m.set(ctx, ModuleKey(mod.ExamID, mod.ModuleNumber), mod, m.moduleTTL)
}

func (m *CacheManager) GetQuestions(ctx context.Context, moduleID string) ([]models.Question, bool) {
	var questions []models.Question
	if !m.get(ctx, QuestionsKey(moduleID), &questions) {
		return nil, false
	}
	return questions, true
}

func (m *CacheManager) SetQuestions(ctx context.Context, moduleID string, questions []models.Question) {
	if !m.Enabled() {
		return
	}
	m.set(ctx, QuestionsKey(moduleID), questions, m.moduleTTL)
}

// InvalidateExam drops every cached module of an exam.
func (m *CacheManager) InvalidateExam(ctx context.Context, examID string) {
	if !m.Enabled() {
		return
	}
	if err := m.cache.DeletePattern(ctx, fmt.Sprintf("module:%s:*", examID)); err != nil {
		m.logger.Warn("Failed to invalidate exam cache", "exam_id", examID, "error", err)
	}
}

func (m *CacheManager) GetCheckpoint(ctx context.Context, sessionID string) (*models.Checkpoint, bool) {
	var cp models.Checkpoint
	if !m.get(ctx, CheckpointKey(sessionID), &cp) {
		return nil, false
	}
	return &cp, true
}

func (m *CacheManager) SetCheckpoint(ctx context.Context, cp *models.Checkpoint) {
	if !m.Enabled() {
		return
	}
	m.set(ctx, CheckpointKey(cp.SessionID), cp, m.checkpointTTL)
}

func (m *CacheManager) DeleteCheckpoint(ctx context.Context, sessionID string) {
	if !m.Enabled() {
		return
	}
	if err := m.cache.Delete(ctx, CheckpointKey(sessionID)); err != nil {
		m.logger.Warn("Failed to delete cached checkpoint", "session_id", sessionID, "error", err)
	}
}

func (m *CacheManager) get(ctx context.Context, key string, dest interface{}) bool {
	if !m.Enabled() {
		return false
	}
	err := m.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	return false
}

func (m *CacheManager) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !m.Enabled() {
		return
	}
	if err := m.cache.Set(ctx, key, value, ttl); err != nil {
		m.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}
