package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// Ledger holds the mutable per-question state of one module.
type Ledger struct {
	answers    map[int]string
	crossedOut map[string]bool
	marked     map[int]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		answers:    map[int]string{},
		crossedOut: map[string]bool{},
		marked:     map[int]struct{}{},
	}
}

// LedgerFromSnapshot builds a ledger that starts from a previously taken
// snapshot. The snapshot is copied.
func LedgerFromSnapshot(s models.LedgerSnapshot) *Ledger {
	l := NewLedger()
	for i, v := range s.Answers {
		l.answers[i] = v
	}
	for k, v := range s.CrossedOut {
		l.crossedOut[k] = v
	}
	for _, i := range s.MarkedForReview {
		l.marked[i] = struct{}{}
	}
	return l
}

// CrossOutKey returns the "{index}-{letter}" key used for crossed-out options.
func CrossOutKey(questionIndex int, optionLetter string) string {
	return fmt.Sprintf("%d-%s", questionIndex, strings.ToUpper(strings.TrimSpace(optionLetter)))
}

// SetAnswer overwrites the answer for a question. Values are not checked
// against the question type here.
func (l *Ledger) SetAnswer(questionIndex int, value string) {
	l.answers[questionIndex] = value
}

func (l *Ledger) Answer(questionIndex int) (string, bool) {
	v, ok := l.answers[questionIndex]
	return v, ok
}

// ToggleCrossedOut flips one option's crossed-out flag and returns the new value.
func (l *Ledger) ToggleCrossedOut(questionIndex int, optionLetter string) bool {
	key := CrossOutKey(questionIndex, optionLetter)
	l.crossedOut[key] = !l.crossedOut[key]
	return l.crossedOut[key]
}

func (l *Ledger) CrossedOut(questionIndex int, optionLetter string) bool {
	return l.crossedOut[CrossOutKey(questionIndex, optionLetter)]
}

// ToggleMarkedForReview flips membership in the review set and returns
// whether the question is now marked.
func (l *Ledger) ToggleMarkedForReview(questionIndex int) bool {
	if _, ok := l.marked[questionIndex]; ok {
		delete(l.marked, questionIndex)
		return false
	}
	l.marked[questionIndex] = struct{}{}
	return true
}

func (l *Ledger) Marked(questionIndex int) bool {
	_, ok := l.marked[questionIndex]
	return ok
}

func (l *Ledger) AnsweredCount() int {
	n := 0
	for _, v := range l.answers {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Snapshot returns a deep copy. Later ledger mutations do not affect it.
func (l *Ledger) Snapshot() models.LedgerSnapshot {
	s := models.LedgerSnapshot{
		Answers:         make(map[int]string, len(l.answers)),
		CrossedOut:      make(map[string]bool, len(l.crossedOut)),
		MarkedForReview: make([]int, 0, len(l.marked)),
	}
	for i, v := range l.answers {
		s.Answers[i] = v
	}
	for k, v := range l.crossedOut {
		s.CrossedOut[k] = v
	}
	for i := range l.marked {
		s.MarkedForReview = append(s.MarkedForReview, i)
	}
	sort.Ints(s.MarkedForReview)
	return s
}
