package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mcQuestion builds a multiple-choice question whose correct option is A.
func mcQuestion(id string) models.Question {
	raw, _ := json.Marshal("A")
	return models.Question{
		ID:            id,
		Text:          "Question " + id,
		Options:       datatypes.JSONSlice[string]{"alpha", "beta", "gamma", "delta"},
		CorrectAnswer: datatypes.JSON(raw),
		SubcategoryID: "sub-" + id,
	}
}

// fakeRepo is an in-memory Repository. Checkpoints round-trip through JSON
// like they do through the JSON columns.
type fakeRepo struct {
	mu          sync.Mutex
	modules     map[int]models.Module
	checkpoints map[string][]byte
	results     map[string]*models.ExamResult

	saveResultErr       error
	saveCheckpointErr   error
	deleteCheckpointErr error
	saveResultCalls     int
}

func newFakeRepo(modules ...models.Module) *fakeRepo {
	r := &fakeRepo{
		modules:     map[int]models.Module{},
		checkpoints: map[string][]byte{},
		results:     map[string]*models.ExamResult{},
	}
	for _, m := range modules {
		r.modules[m.ModuleNumber] = m
	}
	return r
}

// satRepo holds four two-question modules.
func satRepo() *fakeRepo {
	var modules []models.Module
	for n := 1; n <= 4; n++ {
		m := models.Module{
			ID:               fmt.Sprintf("mod-%d", n),
			ExamID:           "exam-1",
			ModuleNumber:     n,
			Title:            fmt.Sprintf("Module %d", n),
			TimeLimitSeconds: 1920,
		}
		for i := 0; i < 2; i++ {
			m.Questions = append(m.Questions, mcQuestion(fmt.Sprintf("q%d-%d", n, i)))
		}
		modules = append(modules, m)
	}
	return newFakeRepo(modules...)
}

func (r *fakeRepo) Module() repositories.ModuleRepository         { return r }
func (r *fakeRepo) Result() repositories.ResultRepository         { return r }
func (r *fakeRepo) Checkpoint() repositories.CheckpointRepository { return r }
func (r *fakeRepo) Ping(context.Context) error                    { return nil }

func (r *fakeRepo) LoadModule(_ context.Context, examID string, moduleNumber int) (*models.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[moduleNumber]
	if !ok || m.ExamID != examID {
		return nil, fmt.Errorf("module %d: %w", moduleNumber, repositories.ErrNotFound)
	}
	out := m.Clone()
	out.Questions = nil
	return &out, nil
}

func (r *fakeRepo) LoadQuestions(_ context.Context, moduleID string) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.ID == moduleID {
			return m.Clone().Questions, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListModuleNumbers(_ context.Context, examID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var numbers []int
	for n, m := range r.modules {
		if m.ExamID == examID {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers, nil
}

func (r *fakeRepo) SaveResult(_ context.Context, result *models.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveResultCalls++
	if r.saveResultErr != nil {
		return r.saveResultErr
	}
	stored := *result
	r.results[result.ID] = &stored
	return nil
}

func (r *fakeRepo) GetResult(_ context.Context, resultID string) (*models.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[resultID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return res, nil
}

func (r *fakeRepo) GetResultBySession(_ context.Context, sessionID string) (*models.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.SessionID == sessionID {
			return res, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeRepo) ListResultsByUser(_ context.Context, userID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ExamResult
	for _, res := range r.results {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) GetSubcategoryStats(context.Context, string) ([]models.SubcategoryStat, error) {
	return nil, nil
}

func (r *fakeRepo) SaveCheckpoint(_ context.Context, cp *models.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveCheckpointErr != nil {
		return r.saveCheckpointErr
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	r.checkpoints[cp.SessionID] = raw
	return nil
}

func (r *fakeRepo) LoadCheckpoint(_ context.Context, sessionID string) (*models.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.checkpoints[sessionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *fakeRepo) DeleteCheckpoint(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteCheckpointErr != nil {
		return r.deleteCheckpointErr
	}
	delete(r.checkpoints, sessionID)
	return nil
}

func (r *fakeRepo) ListCheckpointsByUser(_ context.Context, userID string) ([]*models.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Checkpoint
	for _, raw := range r.checkpoints {
		var cp models.Checkpoint
		if err := json.Unmarshal(raw, &cp); err != nil {
			return nil, err
		}
		if cp.UserID == userID {
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

func (r *fakeRepo) hasCheckpoint(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.checkpoints[sessionID]
	return ok
}

func (r *fakeRepo) resultCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *fakeRepo) setSaveResultErr(err error) {
	r.mu.Lock()
	r.saveResultErr = err
	r.mu.Unlock()
}

func (r *fakeRepo) setDeleteCheckpointErr(err error) {
	r.mu.Lock()
	r.deleteCheckpointErr = err
	r.mu.Unlock()
}

func (s *sessionService) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sequentialIDs returns "id-1", "id-2", ...
func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func testSettings() SessionSettings {
	s := DefaultSessionSettings()
	s.TickInterval = 0
	s.Now = func() time.Time { return fixedNow }
	s.NewID = sequentialIDs()
	return s
}
