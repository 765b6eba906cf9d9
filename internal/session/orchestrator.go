package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

const (
	DefaultIntermissionAfter   = 2
	DefaultIntermissionSeconds = 600
)

// Options tune an Orchestrator. IntermissionAfter is the module number that
// closes the first group; zero disables the intermission.
type Options struct {
	IntermissionAfter   int
	IntermissionSeconds int
	Practice            bool

	Now              func() time.Time
	NewID            func() string
	OnModuleComplete func(models.ModuleResult)
}

// DefaultOptions matches the four-module SAT layout.
func DefaultOptions() Options {
	return Options{
		IntermissionAfter:   DefaultIntermissionAfter,
		IntermissionSeconds: DefaultIntermissionSeconds,
	}
}

// Orchestrator sequences the modules of one session:
//
//	loading -> intro -> in_progress -> [intermission ->] in_progress ... -> completed
//
// Like Runner it is not safe for concurrent use.
type Orchestrator struct {
	sessionID string
	userID    string
	examID    string
	opts      Options

	phase        models.Phase
	modules      []models.Module
	index        int
	runner       *Runner
	intermission *Clock

	results []models.ModuleResult
	result  *models.ExamResult
}

func New(sessionID, userID, examID string, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.IntermissionSeconds < 0 {
		opts.IntermissionSeconds = 0
	}
	return &Orchestrator{
		sessionID: sessionID,
		userID:    userID,
		examID:    examID,
		opts:      opts,
		phase:     models.PhaseLoading,
	}
}

// Load fetches each module and its questions, in the given order, and moves
// the session to the intro phase.
func (o *Orchestrator) Load(ctx context.Context, src ModuleSource, moduleNumbers []int) error {
	if o.phase != models.PhaseLoading {
		return ErrInvalidPhase
	}
	if len(moduleNumbers) == 0 {
		return ErrNoModules
	}

	modules := make([]models.Module, 0, len(moduleNumbers))
	for _, n := range moduleNumbers {
		m, err := src.LoadModule(ctx, o.examID, n)
		if err != nil {
			return fmt.Errorf("load module %d: %w", n, err)
		}
		if m.ModuleNumber != n {
			return fmt.Errorf("module %d: %w", n, ErrModuleNumberMismatch)
		}
		questions, err := src.LoadQuestions(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("load questions for module %d: %w", n, err)
		}
		m.Questions = questions
		modules = append(modules, *m)
	}

	return o.LoadModules(modules)
}

// LoadModules installs already loaded modules.
func (o *Orchestrator) LoadModules(modules []models.Module) error {
	if o.phase != models.PhaseLoading {
		return ErrInvalidPhase
	}
	if len(modules) == 0 {
		return ErrNoModules
	}
	o.modules = make([]models.Module, len(modules))
	for i, m := range modules {
		o.modules[i] = m.Clone()
	}
	o.phase = models.PhaseIntro
	return nil
}

// Begin leaves the intro and starts the first module.
func (o *Orchestrator) Begin() error {
	if o.phase != models.PhaseIntro {
		return ErrInvalidPhase
	}
	o.startModule(0, RunnerConfig{})
	return nil
}

// Runner returns the active module runner.
func (o *Orchestrator) Runner() (*Runner, error) {
	if o.phase != models.PhaseInProgress || o.runner == nil {
		return nil, ErrInvalidPhase
	}
	return o.runner, nil
}

// FinishModule submits the active module.
func (o *Orchestrator) FinishModule() error {
	r, err := o.Runner()
	if err != nil {
		return err
	}
	r.Complete(models.EndReasonSubmitted)
	return nil
}

// Tick advances whichever clock is live: the module's or the intermission's.
func (o *Orchestrator) Tick() {
	switch o.phase {
	case models.PhaseInProgress:
		if o.runner != nil {
			o.runner.Tick()
		}
	case models.PhaseIntermission:
		if o.intermission != nil && o.intermission.Tick() {
			o.leaveIntermission()
		}
	}
}

// SkipIntermission ends the intermission early.
func (o *Orchestrator) SkipIntermission() error {
	if o.phase != models.PhaseIntermission {
		return ErrInvalidPhase
	}
	o.leaveIntermission()
	return nil
}

func (o *Orchestrator) SessionID() string   { return o.sessionID }
func (o *Orchestrator) UserID() string      { return o.userID }
func (o *Orchestrator) ExamID() string      { return o.examID }
func (o *Orchestrator) Phase() models.Phase { return o.phase }
func (o *Orchestrator) ModuleIndex() int    { return o.index }
func (o *Orchestrator) Practice() bool      { return o.opts.Practice }

// ModuleResults returns copies of the results received so far.
func (o *Orchestrator) ModuleResults() []models.ModuleResult {
	out := make([]models.ModuleResult, len(o.results))
	for i, r := range o.results {
		out[i] = cloneModuleResult(r)
	}
	return out
}

// Result returns the scored result once the session has completed.
func (o *Orchestrator) Result() (*models.ExamResult, bool) {
	if o.phase != models.PhaseCompleted || o.result == nil {
		return nil, false
	}
	return o.result, true
}

// Checkpoint captures enough state to rebuild the session with Restore.
// Any unflushed selection is written to the ledger first.
func (o *Orchestrator) Checkpoint() models.Checkpoint {
	cp := models.Checkpoint{
		SessionID:     o.sessionID,
		UserID:        o.userID,
		ExamID:        o.examID,
		Practice:      o.opts.Practice,
		Phase:         o.phase,
		ModuleNumbers: o.moduleNumbers(),
		ModuleIndex:   o.index,
		UpdatedAt:     o.opts.Now(),
	}

	for _, res := range o.results {
		cp.Ledgers = append(cp.Ledgers, models.LedgerSnapshot{
			Answers:         res.Answers,
			CrossedOut:      res.CrossedOut,
			MarkedForReview: res.MarkedForReview,
		})
		cp.EndReasons = append(cp.EndReasons, res.EndReason)
		cp.ModuleRemaining = append(cp.ModuleRemaining, res.RemainingSeconds)
		cp.ModuleCompletedAt = append(cp.ModuleCompletedAt, res.CompletedAt)
	}

	switch o.phase {
	case models.PhaseInProgress:
		if o.runner != nil && !o.runner.Completed() {
			o.runner.Flush()
			cp.Ledgers = append(cp.Ledgers, o.runner.Snapshot())
			cp.QuestionIndex = o.runner.Index()
			cp.RemainingSeconds = o.runner.Clock().RemainingSeconds
		}
	case models.PhaseIntermission:
		if o.intermission != nil {
			cp.RemainingSeconds = o.intermission.Remaining()
		}
	}

	return cp
}

// Restore rebuilds the session from a checkpoint. The modules must already be
// loaded and the session must not have begun.
func (o *Orchestrator) Restore(cp models.Checkpoint) error {
	if o.phase != models.PhaseIntro {
		return ErrInvalidPhase
	}
	if err := o.checkCheckpoint(cp); err != nil {
		return err
	}

	o.opts.Practice = cp.Practice

	switch cp.Phase {
	case models.PhaseLoading, models.PhaseIntro, "":
		return nil

	case models.PhaseInProgress:
		o.restoreResults(cp, cp.ModuleIndex)
		cfg := RunnerConfig{
			RemainingSeconds: &cp.RemainingSeconds,
			QuestionIndex:    cp.QuestionIndex,
		}
		if cp.ModuleIndex < len(cp.Ledgers) {
			ledger := cp.Ledgers[cp.ModuleIndex]
			cfg.Ledger = &ledger
		}
		o.startModule(cp.ModuleIndex, cfg)

	case models.PhaseIntermission:
		o.restoreResults(cp, cp.ModuleIndex+1)
		o.index = cp.ModuleIndex
		o.enterIntermission(cp.RemainingSeconds)

	case models.PhaseCompleted:
		o.restoreResults(cp, len(o.modules))
		o.index = len(o.modules) - 1
		o.finalize()

	default:
		return fmt.Errorf("unknown phase %q: %w", cp.Phase, ErrInvalidCheckpoint)
	}

	return nil
}

func (o *Orchestrator) checkCheckpoint(cp models.Checkpoint) error {
	if cp.SessionID != "" && cp.SessionID != o.sessionID {
		return fmt.Errorf("session id %q: %w", cp.SessionID, ErrInvalidCheckpoint)
	}
	if cp.ModuleIndex < 0 || cp.ModuleIndex >= len(o.modules) {
		return fmt.Errorf("module index %d: %w", cp.ModuleIndex, ErrInvalidCheckpoint)
	}
	if len(cp.ModuleNumbers) > 0 {
		numbers := o.moduleNumbers()
		if len(numbers) != len(cp.ModuleNumbers) {
			return fmt.Errorf("module count %d: %w", len(cp.ModuleNumbers), ErrInvalidCheckpoint)
		}
		for i, n := range cp.ModuleNumbers {
			if numbers[i] != n {
				return fmt.Errorf("module %d at position %d: %w", n, i, ErrInvalidCheckpoint)
			}
		}
	}

	completed := cp.ModuleIndex
	switch cp.Phase {
	case models.PhaseIntermission:
		completed = cp.ModuleIndex + 1
	case models.PhaseCompleted:
		completed = len(o.modules)
	}
	if cp.Phase != models.PhaseLoading && cp.Phase != models.PhaseIntro && cp.Phase != "" && len(cp.Ledgers) < completed {
		return fmt.Errorf("have %d ledgers, need %d: %w", len(cp.Ledgers), completed, ErrInvalidCheckpoint)
	}
	return nil
}

// restoreResults refreezes the first n modules from their checkpointed
// ledgers without firing OnModuleComplete again. Checkpoints written before
// per-module timing was recorded fall back to zero seconds left and the
// checkpoint time.
func (o *Orchestrator) restoreResults(cp models.Checkpoint, n int) {
	o.results = o.results[:0]
	for i := 0; i < n; i++ {
		reason := models.EndReasonSubmitted
		if i < len(cp.EndReasons) && cp.EndReasons[i] != "" {
			reason = cp.EndReasons[i]
		}
		remaining := 0
		if i < len(cp.ModuleRemaining) {
			remaining = cp.ModuleRemaining[i]
		}
		completedAt := cp.UpdatedAt
		if i < len(cp.ModuleCompletedAt) && !cp.ModuleCompletedAt[i].IsZero() {
			completedAt = cp.ModuleCompletedAt[i]
		}
		ledger := LedgerFromSnapshot(cp.Ledgers[i]).Snapshot()
		o.results = append(o.results, newModuleResult(o.modules[i], ledger, reason, remaining, completedAt))
	}
}

func (o *Orchestrator) startModule(i int, cfg RunnerConfig) {
	o.index = i
	o.intermission = nil
	cfg.OnComplete = o.onModuleComplete
	cfg.Now = o.opts.Now

	r := NewRunner(o.modules[i], cfg)
	o.runner = r
	o.phase = models.PhaseInProgress
	// Start may complete an empty module and advance the session.
	r.Start()
}

func (o *Orchestrator) onModuleComplete(res models.ModuleResult) {
	o.results = append(o.results, res)
	if o.opts.OnModuleComplete != nil {
		o.opts.OnModuleComplete(cloneModuleResult(res))
	}

	switch {
	case o.index >= len(o.modules)-1:
		o.finalize()
	case o.opts.IntermissionAfter > 0 && res.ModuleNumber == o.opts.IntermissionAfter:
		o.enterIntermission(o.opts.IntermissionSeconds)
	default:
		o.startModule(o.index+1, RunnerConfig{})
	}
}

func (o *Orchestrator) enterIntermission(seconds int) {
	o.runner = nil
	o.phase = models.PhaseIntermission
	o.intermission = NewClock(seconds)
	o.intermission.Start()
	if seconds <= 0 {
		o.leaveIntermission()
	}
}

func (o *Orchestrator) leaveIntermission() {
	o.intermission = nil
	o.startModule(o.index+1, RunnerConfig{})
}

func (o *Orchestrator) finalize() {
	o.runner = nil
	o.intermission = nil
	o.phase = models.PhaseCompleted
	o.result = BuildExamResult(ResultMeta{
		ResultID:  o.opts.NewID(),
		SessionID: o.sessionID,
		UserID:    o.userID,
		ExamID:    o.examID,
		At:        o.opts.Now(),
	}, o.results)
}

func (o *Orchestrator) moduleNumbers() []int {
	numbers := make([]int, len(o.modules))
	for i, m := range o.modules {
		numbers[i] = m.ModuleNumber
	}
	return numbers
}
