package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/sat-session-service/internal/events"
	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
	"github.com/SAP-F-2025/sat-session-service/internal/validator"
)

// SessionSettings are the engine parameters shared by every session.
type SessionSettings struct {
	ModuleNumbers       []int
	IntermissionAfter   int
	IntermissionSeconds int
	// TickInterval drives the clocks from wall time. Zero disables the
	// background ticker; clocks then only move through Tick.
	TickInterval time.Duration

	Now   func() time.Time
	NewID func() string
}

func DefaultSessionSettings() SessionSettings {
	return SessionSettings{
		ModuleNumbers:       []int{1, 2, 3, 4},
		IntermissionAfter:   session.DefaultIntermissionAfter,
		IntermissionSeconds: session.DefaultIntermissionSeconds,
		TickInterval:        time.Second,
	}
}

// activeSession is one live orchestrator. mu serializes API calls and clock
// ticks for that session.
type activeSession struct {
	mu        sync.Mutex
	userID    string
	orch      *session.Orchestrator
	ticker    *session.Ticker
	pending   []models.ModuleResult
	submitted bool
	released  bool
}

func (as *activeSession) drain() []models.ModuleResult {
	out := as.pending
	as.pending = nil
	return out
}

func (as *activeSession) stopTicker() *session.Ticker {
	t := as.ticker
	if t != nil {
		t.Stop()
		as.ticker = nil
	}
	return t
}

type sessionService struct {
	store     session.Store
	source    session.ModuleSource
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	settings  SessionSettings

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*activeSession
	closed   bool
}

func NewSessionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
	settings SessionSettings,
) SessionService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	if len(settings.ModuleNumbers) == 0 {
		settings.ModuleNumbers = DefaultSessionSettings().ModuleNumbers
	}

	store := newSessionStore(repo)
	svcLogger := NewServiceLogger(logger, LogConfig{Service: "sat-session-service", Component: "session"})
	baseCtx, cancel := context.WithCancel(context.Background())

	return &sessionService{
		store: store,
		source: auditedSource{
			ModuleSource: store,
			questions:    validator.Question(),
			logger:       svcLogger.Logger(),
		},
		publisher: publisher,
		validator: validator,
		logger:    svcLogger,
		settings:  settings,
		baseCtx:   baseCtx,
		cancel:    cancel,
		sessions:  make(map[string]*activeSession),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, userID string) (*session.SessionView, error) {
	ol := s.logger.WithOperation(ctx, "start", userID, "")

	if err := s.validator.Validate(req); err != nil {
		err = fmt.Errorf("validation failed: %w", err)
		ol.Done(err)
		return nil, err
	}

	numbers := req.ModuleNumbers
	if len(numbers) == 0 {
		numbers = s.settings.ModuleNumbers
	}

	sessionID := s.settings.NewID()
	as := s.newActiveSession(sessionID, userID, req.ExamID, req.Practice)

	if err := as.orch.Load(ctx, s.source, numbers); err != nil {
		err = s.loadError(err)
		ol.Done(err)
		return nil, err
	}

	if err := s.register(sessionID, as); err != nil {
		ol.Done(err)
		return nil, err
	}

	s.publish(ctx, events.NewSessionStartedEvent(sessionID, userID, req.ExamID, numbers, req.Practice, false))

	as.mu.Lock()
	view := as.orch.View()
	as.mu.Unlock()

	ol.sessionID = sessionID
	ol.Done(nil)
	return &view, nil
}

// Restore rebuilds a session from its stored checkpoint. A session that is
// already live is returned as is.
func (s *sessionService) Restore(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	ol := s.logger.WithOperation(ctx, "restore", userID, sessionID)

	if as, err := s.lookup(sessionID, userID); err == nil {
		as.mu.Lock()
		view := as.orch.View()
		as.mu.Unlock()
		ol.Done(nil)
		return &view, nil
	} else if !errors.Is(err, ErrSessionNotFound) {
		ol.Done(err)
		return nil, err
	}

	// A stored result means the session already finished; a checkpoint left
	// behind by a failed delete must not reopen it.
	if view, err := s.finishedView(ctx, sessionID, userID); err == nil {
		if err := s.store.DeleteCheckpoint(ctx, sessionID); err != nil && !repositories.IsNotFoundError(err) {
			s.logger.Logger().WarnContext(ctx, "Failed to delete stale checkpoint", "session_id", sessionID, "error", err)
		}
		ol.Done(nil)
		return view, nil
	} else if !errors.Is(err, ErrSessionNotFound) {
		ol.Done(err)
		return nil, err
	}

	cp, err := s.store.LoadCheckpoint(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrCheckpointNotFound
		} else {
			err = fmt.Errorf("failed to load checkpoint: %w", err)
		}
		ol.Done(err)
		return nil, err
	}
	if cp.UserID != userID {
		err := NewPermissionError(userID, sessionID, "session", "restore", "not owned by user")
		ol.Done(err)
		return nil, err
	}

	as := s.newActiveSession(sessionID, cp.UserID, cp.ExamID, cp.Practice)
	if err := as.orch.Load(ctx, s.source, cp.ModuleNumbers); err != nil {
		err = s.loadError(err)
		ol.Done(err)
		return nil, err
	}
	if err := as.orch.Restore(*cp); err != nil {
		err = mapSessionError(err)
		ol.Done(err)
		return nil, err
	}

	if err := s.register(sessionID, as); err != nil {
		if errors.Is(err, ErrSessionExists) {
			// Lost a race with a concurrent restore.
			return s.Get(ctx, sessionID, userID)
		}
		ol.Done(err)
		return nil, err
	}

	s.publish(ctx, events.NewSessionStartedEvent(sessionID, userID, cp.ExamID, cp.ModuleNumbers, cp.Practice, true))

	as.mu.Lock()
	defer as.mu.Unlock()
	s.startTicker(as)
	s.settle(ctx, as)
	view := as.orch.View()

	ol.Done(nil)
	return &view, nil
}

// Get returns the live view, or the stored result once the session has
// finished and been released.
func (s *sessionService) Get(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.act(ctx, "view", sessionID, userID, func(*session.Orchestrator) error { return nil })
}

func (s *sessionService) ListResumable(ctx context.Context, userID string) (*ResumableListResponse, error) {
	ol := s.logger.WithOperation(ctx, "list_resumable", userID, "")

	checkpoints, err := s.store.ListCheckpointsByUser(ctx, userID)
	if err != nil {
		err = fmt.Errorf("failed to list checkpoints: %w", err)
		ol.Done(err)
		return nil, err
	}

	resp := &ResumableListResponse{Sessions: make([]ResumableSession, 0, len(checkpoints))}
	for _, cp := range checkpoints {
		// A checkpoint that outlived its stored result is not resumable.
		if _, err := s.store.GetResultBySession(ctx, cp.SessionID); err == nil {
			continue
		}
		resp.Sessions = append(resp.Sessions, ResumableSession{
			SessionID:        cp.SessionID,
			ExamID:           cp.ExamID,
			Practice:         cp.Practice,
			Phase:            cp.Phase,
			ModuleIndex:      cp.ModuleIndex,
			ModuleCount:      len(cp.ModuleNumbers),
			RemainingSeconds: cp.RemainingSeconds,
			UpdatedAt:        cp.UpdatedAt,
		})
	}
	resp.Total = len(resp.Sessions)

	ol.Done(nil)
	return resp, nil
}

func (s *sessionService) Begin(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.actWith(ctx, "begin", sessionID, userID, func(as *activeSession) error {
		if err := as.orch.Begin(); err != nil {
			return err
		}
		s.startTicker(as)
		return nil
	})
}

// Exit writes a best-effort checkpoint and releases the session. A failed
// write is logged and reported but never blocks the exit.
func (s *sessionService) Exit(ctx context.Context, sessionID, userID string) (*ExitResponse, error) {
	ol := s.logger.WithOperation(ctx, "exit", userID, sessionID)

	as, err := s.lookup(sessionID, userID)
	if errors.Is(err, ErrSessionNotFound) {
		if _, ferr := s.finishedView(ctx, sessionID, userID); ferr == nil {
			ol.Done(nil)
			return &ExitResponse{SessionID: sessionID, Phase: models.PhaseCompleted}, nil
		}
	}
	if err != nil {
		ol.Done(err)
		return nil, err
	}

	as.mu.Lock()
	as.released = true
	stopped := as.stopTicker()
	if r, err := as.orch.Runner(); err == nil {
		_ = r.Pause()
	}

	resp := &ExitResponse{SessionID: sessionID, Phase: as.orch.Phase()}
	if as.orch.Phase() != models.PhaseCompleted {
		cp := as.orch.Checkpoint()
		resp.RemainingSeconds = cp.RemainingSeconds
		resp.CheckpointSaved = s.saveCheckpoint(ctx, &cp)
	}
	as.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if stopped != nil {
		<-stopped.Done()
	}

	ol.Done(nil)
	return resp, nil
}

// Shutdown checkpoints every unfinished session and stops all tickers.
func (s *sessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	live := make([]*activeSession, 0, len(s.sessions))
	for _, as := range s.sessions {
		live = append(live, as)
	}
	s.sessions = make(map[string]*activeSession)
	s.mu.Unlock()

	var stopped []*session.Ticker
	for _, as := range live {
		as.mu.Lock()
		as.released = true
		if t := as.stopTicker(); t != nil {
			stopped = append(stopped, t)
		}
		if as.orch.Phase() != models.PhaseCompleted {
			cp := as.orch.Checkpoint()
			s.saveCheckpoint(ctx, &cp)
		}
		as.mu.Unlock()
	}
	s.cancel()

	for _, t := range stopped {
		select {
		case <-t.Done():
		case <-ctx.Done():
			s.logger.Logger().Warn("Shutdown deadline reached before tickers stopped")
			return
		}
	}
	s.logger.Logger().Info("Session service stopped", "sessions_checkpointed", len(live))
}

// ===== MODULE ACTIONS =====

func (s *sessionService) Answer(ctx context.Context, sessionID string, req *AnswerRequest, userID string) (*session.SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s.act(ctx, "answer", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		return r.Select(req.Value)
	})
}

func (s *sessionService) Navigate(ctx context.Context, sessionID string, req *NavigateRequest, userID string) (*session.SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s.act(ctx, "navigate", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		switch req.Action {
		case validator.NavNext:
			return r.Next()
		case validator.NavPrev:
			return r.Prev()
		default:
			return r.GoTo(req.Index)
		}
	})
}

func (s *sessionService) ToggleCrossOut(ctx context.Context, sessionID string, req *CrossOutRequest, userID string) (*ToggleResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	var active bool
	view, err := s.act(ctx, "cross_out", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		active, err = r.ToggleCrossedOut(req.QuestionIndex, req.Option)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ToggleResponse{Active: active, Session: *view}, nil
}

func (s *sessionService) ToggleMark(ctx context.Context, sessionID string, req *MarkRequest, userID string) (*ToggleResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	var active bool
	view, err := s.act(ctx, "mark", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		active, err = r.ToggleMarkedForReview(req.QuestionIndex)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ToggleResponse{Active: active, Session: *view}, nil
}

func (s *sessionService) PauseClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.act(ctx, "pause", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		return r.Pause()
	})
}

func (s *sessionService) ResumeClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.act(ctx, "resume", sessionID, userID, func(o *session.Orchestrator) error {
		r, err := o.Runner()
		if err != nil {
			return err
		}
		return r.Resume()
	})
}

func (s *sessionService) FinishModule(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.act(ctx, "finish_module", sessionID, userID, func(o *session.Orchestrator) error {
		return o.FinishModule()
	})
}

func (s *sessionService) SkipIntermission(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return s.act(ctx, "skip_intermission", sessionID, userID, func(o *session.Orchestrator) error {
		return o.SkipIntermission()
	})
}

// ===== INTERNALS =====

func (s *sessionService) act(ctx context.Context, op, sessionID, userID string, fn func(*session.Orchestrator) error) (*session.SessionView, error) {
	return s.actWith(ctx, op, sessionID, userID, func(as *activeSession) error {
		return fn(as.orch)
	})
}

// actWith runs fn under the session lock, then settles whatever the action
// triggered: module results are published and a completed session is
// submitted once.
func (s *sessionService) actWith(ctx context.Context, op, sessionID, userID string, fn func(*activeSession) error) (*session.SessionView, error) {
	ol := s.logger.WithOperation(ctx, op, userID, sessionID)

	as, err := s.lookup(sessionID, userID)
	if errors.Is(err, ErrSessionNotFound) {
		view, ferr := s.finishedView(ctx, sessionID, userID)
		switch {
		case ferr == nil && op == "view":
			ol.Done(nil)
			return view, nil
		case ferr == nil:
			err = ErrSessionCompleted
		case !errors.Is(ferr, ErrSessionNotFound):
			err = ferr
		}
	}
	if err != nil {
		ol.Done(err)
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	if err := fn(as); err != nil {
		if as.orch.Phase() == models.PhaseCompleted && errors.Is(err, session.ErrInvalidPhase) {
			err = fmt.Errorf("%w: %w", ErrSessionCompleted, err)
		} else {
			err = mapSessionError(err)
		}
		ol.Done(err)
		return nil, err
	}

	s.settle(ctx, as)
	view := as.orch.View()
	ol.Done(nil)
	return &view, nil
}

// tick is the ticker callback.
func (s *sessionService) tick(as *activeSession) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.released {
		return
	}
	as.orch.Tick()
	s.settle(s.baseCtx, as)
}

func (s *sessionService) startTicker(as *activeSession) {
	if s.settings.TickInterval <= 0 || as.ticker != nil {
		return
	}
	switch as.orch.Phase() {
	case models.PhaseInProgress, models.PhaseIntermission:
	default:
		return
	}
	as.ticker = session.StartTicker(s.baseCtx, s.settings.TickInterval, func() { s.tick(as) })
}

// settle must be called with as.mu held.
func (s *sessionService) settle(ctx context.Context, as *activeSession) {
	completed := as.drain()
	for _, res := range completed {
		s.publish(ctx, events.NewModuleCompletedEvent(as.orch.SessionID(), as.userID, as.orch.ExamID(), res))
	}

	if as.orch.Phase() != models.PhaseCompleted {
		if len(completed) > 0 {
			cp := as.orch.Checkpoint()
			s.saveCheckpoint(ctx, &cp)
		}
		return
	}
	if as.submitted {
		return
	}
	as.submitted = true
	as.stopTicker()

	result, ok := as.orch.Result()
	if !ok {
		return
	}
	if s.submit(ctx, as, result) {
		s.evict(as)
	}
}

// evict drops a finished session from the live set once its result is
// stored; later reads are served from the store. Called with as.mu held.
func (s *sessionService) evict(as *activeSession) {
	as.released = true
	s.mu.Lock()
	if s.sessions[as.orch.SessionID()] == as {
		delete(s.sessions, as.orch.SessionID())
	}
	s.mu.Unlock()
}

// submit performs the single awaited write of a finished session. On
// failure the result is still returned to the caller, flagged, and a
// completed-phase checkpoint is kept so the write can be retried through
// Restore. It reports whether the result was stored.
func (s *sessionService) submit(ctx context.Context, as *activeSession, result *models.ExamResult) bool {
	logger := s.logger.Logger()
	saved := true

	if err := s.store.SaveResult(ctx, result); err != nil {
		saved = false
		result.ProgressSaveFailed = true
		logger.ErrorContext(ctx, "Failed to save exam result",
			"session_id", result.SessionID,
			"result_id", result.ID,
			"error", err)
		cp := as.orch.Checkpoint()
		s.saveCheckpoint(ctx, &cp)
	} else {
		logger.InfoContext(ctx, "Exam result saved",
			"session_id", result.SessionID,
			"result_id", result.ID,
			"overall_score", result.OverallScore)
		if err := s.store.DeleteCheckpoint(ctx, result.SessionID); err != nil && !repositories.IsNotFoundError(err) {
			logger.WarnContext(ctx, "Failed to delete checkpoint", "session_id", result.SessionID, "error", err)
		}
	}

	s.publish(ctx, events.NewExamCompletedEvent(result))
	return saved
}

// finishedView serves a released session from its stored result.
func (s *sessionService) finishedView(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	result, err := s.store.GetResultBySession(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if result.UserID != userID {
		return nil, NewPermissionError(userID, sessionID, "session", "access", "not owned by user")
	}
	return &session.SessionView{
		SessionID:        sessionID,
		ExamID:           result.ExamID,
		Phase:            models.PhaseCompleted,
		ModuleIndex:      len(result.Modules),
		ModuleCount:      len(result.Modules),
		CompletedModules: len(result.Modules),
		Result:           result,
	}, nil
}

// saveCheckpoint never fails the caller.
func (s *sessionService) saveCheckpoint(ctx context.Context, cp *models.Checkpoint) bool {
	saved := true
	if err := s.store.SaveCheckpoint(ctx, cp); err != nil {
		saved = false
		s.logger.Logger().WarnContext(ctx, "Failed to save checkpoint",
			"session_id", cp.SessionID,
			"phase", cp.Phase,
			"module_index", cp.ModuleIndex,
			"error", err)
	}
	s.publish(ctx, events.NewSessionCheckpointedEvent(cp, saved))
	return saved
}

func (s *sessionService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to publish session event",
			"event_type", event.Type,
			"session_id", event.SessionID,
			"error", err)
	}
}

func (s *sessionService) newActiveSession(sessionID, userID, examID string, practice bool) *activeSession {
	as := &activeSession{userID: userID}

	opts := session.DefaultOptions()
	opts.IntermissionAfter = s.settings.IntermissionAfter
	opts.IntermissionSeconds = s.settings.IntermissionSeconds
	opts.Practice = practice
	if practice {
		opts.IntermissionAfter = 0
	}
	opts.Now = s.settings.Now
	opts.NewID = s.settings.NewID
	opts.OnModuleComplete = func(res models.ModuleResult) {
		as.pending = append(as.pending, res)
	}

	as.orch = session.New(sessionID, userID, examID, opts)
	return as
}

func (s *sessionService) register(sessionID string, as *activeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceShuttingDown
	}
	if _, ok := s.sessions[sessionID]; ok {
		return ErrSessionExists
	}
	s.sessions[sessionID] = as
	return nil
}

func (s *sessionService) lookup(sessionID, userID string) (*activeSession, error) {
	s.mu.Lock()
	as, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if as.userID != userID {
		return nil, NewPermissionError(userID, sessionID, "session", "access", "not owned by user")
	}
	return as, nil
}

func (s *sessionService) loadError(err error) error {
	switch {
	case repositories.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", ErrModuleNotFound, err)
	case errors.Is(err, session.ErrNoModules):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	case errors.Is(err, session.ErrModuleNumberMismatch):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("failed to load modules: %w", err)
}
