package session

import (
	"time"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// RunnerConfig seeds a Runner. Zero values start a fresh module.
type RunnerConfig struct {
	Ledger           *models.LedgerSnapshot
	RemainingSeconds *int
	QuestionIndex    int
	OnComplete       func(models.ModuleResult)
	Now              func() time.Time
}

// Runner drives one module: the displayed question, navigation, the clock
// and the final hand-off of a ModuleResult.
//
// A Runner is not safe for concurrent use; the owning session serializes
// access.
type Runner struct {
	module models.Module
	ledger *Ledger
	clock  *Clock

	index      int
	pending    string
	pendingSet bool

	completed  bool
	result     models.ModuleResult
	onComplete func(models.ModuleResult)
	now        func() time.Time
}

func NewRunner(module models.Module, cfg RunnerConfig) *Runner {
	seconds := module.TimeLimitSeconds
	if cfg.RemainingSeconds != nil {
		seconds = *cfg.RemainingSeconds
	}

	ledger := NewLedger()
	if cfg.Ledger != nil {
		ledger = LedgerFromSnapshot(*cfg.Ledger)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := &Runner{
		module:     module.Clone(),
		ledger:     ledger,
		clock:      NewClock(seconds),
		onComplete: cfg.OnComplete,
		now:        now,
	}
	r.index = r.clamp(cfg.QuestionIndex)
	return r
}

// Start runs the clock, or completes at once when the module has no questions.
func (r *Runner) Start() {
	if r.completed {
		return
	}
	if len(r.module.Questions) == 0 {
		r.Complete(models.EndReasonEmpty)
		return
	}
	r.clock.Start()
}

// Select sets the answer for the displayed question. It reaches the ledger
// on the next navigation, Flush or completion.
func (r *Runner) Select(value string) error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.pending = value
	r.pendingSet = true
	return nil
}

// GoTo persists the displayed answer and moves to index, clamped to the
// module's bounds.
func (r *Runner) GoTo(index int) error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.Flush()
	r.index = r.clamp(index)
	return nil
}

// Next advances one question. On the last question it completes the module.
func (r *Runner) Next() error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.Flush()
	if r.index >= len(r.module.Questions)-1 {
		r.Complete(models.EndReasonSubmitted)
		return nil
	}
	r.index++
	return nil
}

func (r *Runner) Prev() error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.Flush()
	r.index = r.clamp(r.index - 1)
	return nil
}

// Flush writes the displayed answer into the ledger.
func (r *Runner) Flush() {
	if r.completed || !r.pendingSet {
		return
	}
	r.ledger.SetAnswer(r.index, r.pending)
	r.pending = ""
	r.pendingSet = false
}

// Complete finalizes the module once. Later calls return the stored result
// and false without touching the ledger or calling OnComplete again.
func (r *Runner) Complete(reason models.EndReason) (models.ModuleResult, bool) {
	if r.completed {
		return cloneModuleResult(r.result), false
	}
	r.Flush()
	r.completed = true
	r.clock.Stop()

	r.result = newModuleResult(r.module, r.ledger.Snapshot(), reason, r.clock.Remaining(), r.now())
	if r.onComplete != nil {
		r.onComplete(cloneModuleResult(r.result))
	}
	return cloneModuleResult(r.result), true
}

// Tick advances the clock and completes the module on expiry. It reports
// whether this tick completed the module.
func (r *Runner) Tick() bool {
	if r.completed {
		return false
	}
	if r.clock.Tick() {
		_, done := r.Complete(models.EndReasonTimeout)
		return done
	}
	return false
}

func (r *Runner) ToggleCrossedOut(questionIndex int, optionLetter string) (bool, error) {
	if r.completed {
		return false, ErrModuleCompleted
	}
	if !r.inRange(questionIndex) {
		return false, ErrQuestionOutOfRange
	}
	return r.ledger.ToggleCrossedOut(questionIndex, optionLetter), nil
}

func (r *Runner) ToggleMarkedForReview(questionIndex int) (bool, error) {
	if r.completed {
		return false, ErrModuleCompleted
	}
	if !r.inRange(questionIndex) {
		return false, ErrQuestionOutOfRange
	}
	return r.ledger.ToggleMarkedForReview(questionIndex), nil
}

func (r *Runner) Pause() error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.clock.Pause()
	return nil
}

func (r *Runner) Resume() error {
	if r.completed {
		return ErrModuleCompleted
	}
	r.clock.Resume()
	return nil
}

func (r *Runner) Completed() bool       { return r.completed }
func (r *Runner) Index() int            { return r.index }
func (r *Runner) Module() models.Module { return r.module }
func (r *Runner) Clock() ClockState     { return r.clock.State() }

// Result returns the frozen result once the module has completed.
func (r *Runner) Result() (models.ModuleResult, bool) {
	if !r.completed {
		return models.ModuleResult{}, false
	}
	return cloneModuleResult(r.result), true
}

// Snapshot returns the ledger as it stands, including an unflushed selection.
func (r *Runner) Snapshot() models.LedgerSnapshot {
	s := r.ledger.Snapshot()
	if r.pendingSet {
		s.Answers[r.index] = r.pending
	}
	return s
}

// DisplayedAnswer is the answer shown for the current question.
func (r *Runner) DisplayedAnswer() string {
	if r.pendingSet {
		return r.pending
	}
	v, _ := r.ledger.Answer(r.index)
	return v
}

func (r *Runner) clamp(index int) int {
	if index < 0 || len(r.module.Questions) == 0 {
		return 0
	}
	if last := len(r.module.Questions) - 1; index > last {
		return last
	}
	return index
}

func (r *Runner) inRange(index int) bool {
	return index >= 0 && index < len(r.module.Questions)
}

func newModuleResult(m models.Module, ledger models.LedgerSnapshot, reason models.EndReason, remaining int, at time.Time) models.ModuleResult {
	questions := make([]models.Question, len(m.Questions))
	for i, q := range m.Questions {
		questions[i] = q.Clone()
	}
	return models.ModuleResult{
		ModuleID:         m.ID,
		ModuleNumber:     m.ModuleNumber,
		Title:            m.Title,
		Answers:          ledger.Answers,
		CrossedOut:       ledger.CrossedOut,
		MarkedForReview:  ledger.MarkedForReview,
		Questions:        questions,
		EndReason:        reason,
		RemainingSeconds: remaining,
		CompletedAt:      at,
	}
}

func cloneModuleResult(res models.ModuleResult) models.ModuleResult {
	c := res
	c.Answers = make(map[int]string, len(res.Answers))
	for k, v := range res.Answers {
		c.Answers[k] = v
	}
	c.CrossedOut = make(map[string]bool, len(res.CrossedOut))
	for k, v := range res.CrossedOut {
		c.CrossedOut[k] = v
	}
	c.MarkedForReview = append([]int(nil), res.MarkedForReview...)
	c.Questions = make([]models.Question, len(res.Questions))
	for i, q := range res.Questions {
		c.Questions[i] = q.Clone()
	}
	return c
}
