package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseIntro        Phase = "intro"
	PhaseInProgress   Phase = "in_progress"
	PhaseIntermission Phase = "intermission"
	PhaseCompleted    Phase = "completed"
)

type EndReason string

const (
	EndReasonSubmitted EndReason = "submitted"
	EndReasonTimeout   EndReason = "timeout"
	EndReasonEmpty     EndReason = "empty"
)

// LedgerSnapshot is an immutable copy of a module's answer ledger.
type LedgerSnapshot struct {
	Answers         map[int]string  `json:"answers"`
	CrossedOut      map[string]bool `json:"crossed_out"`
	MarkedForReview []int           `json:"marked_for_review"`
}

// UnmarshalJSON accepts answers stored either as an array indexed by question
// position or as an object keyed by the index, and normalizes both to a map.
func (s *LedgerSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Answers         json.RawMessage `json:"answers"`
		CrossedOut      map[string]bool `json:"crossed_out"`
		MarkedForReview []int           `json:"marked_for_review"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	answers, err := decodeIndexedAnswers(raw.Answers)
	if err != nil {
		return err
	}

	s.Answers = answers
	s.CrossedOut = raw.CrossedOut
	if s.CrossedOut == nil {
		s.CrossedOut = map[string]bool{}
	}
	s.MarkedForReview = raw.MarkedForReview
	return nil
}

func decodeIndexedAnswers(data json.RawMessage) (map[int]string, error) {
	answers := map[int]string{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return answers, nil
	}

	switch trimmed[0] {
	case '[':
		var list []interface{}
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode answers array: %w", err)
		}
		for i, v := range list {
			if s, ok := answerString(v); ok {
				answers[i] = s
			}
		}
	case '{':
		var obj map[string]interface{}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("decode answers object: %w", err)
		}
		for k, v := range obj {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("answer key %q is not a question index", k)
			}
			if s, ok := answerString(v); ok {
				answers[idx] = s
			}
		}
	default:
		return nil, fmt.Errorf("answers must be an array or object")
	}

	return answers, nil
}

func answerString(v interface{}) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(value), true
	}
	return "", false
}

// ModuleResult is emitted once when a module finishes. It carries the
// question snapshot so scoring does not depend on later record changes.
type ModuleResult struct {
	ModuleID         string          `json:"module_id"`
	ModuleNumber     int             `json:"module_number"`
	Title            string          `json:"title"`
	Answers          map[int]string  `json:"answers"`
	CrossedOut       map[string]bool `json:"crossed_out"`
	MarkedForReview  []int           `json:"marked_for_review"`
	Questions        []Question      `json:"questions"`
	EndReason        EndReason       `json:"end_reason"`
	RemainingSeconds int             `json:"remaining_seconds"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// Checkpoint is the persisted state of an unfinished session. EndReasons,
// ModuleRemaining and ModuleCompletedAt hold one entry per finished module.
type Checkpoint struct {
	SessionID        string                              `json:"session_id" gorm:"primaryKey;size:64"`
	UserID           string                              `json:"user_id" gorm:"not null;size:255;index"`
	ExamID           string                              `json:"exam_id" gorm:"not null;size:64"`
	Practice         bool                                `json:"practice"`
	Phase            Phase                               `json:"phase" gorm:"size:32"`
	ModuleNumbers    datatypes.JSONSlice[int]            `json:"module_numbers"`
	ModuleIndex      int                                 `json:"module_index"`
	QuestionIndex    int                                 `json:"question_index"`
	RemainingSeconds int                                 `json:"remaining_seconds"`
	Ledgers          datatypes.JSONSlice[LedgerSnapshot] `json:"ledgers"`

	EndReasons        datatypes.JSONSlice[EndReason] `json:"end_reasons"`
	ModuleRemaining   datatypes.JSONSlice[int]       `json:"module_remaining_seconds"`
	ModuleCompletedAt datatypes.JSONSlice[time.Time] `json:"module_completed_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Checkpoint) TableName() string {
	return "session_checkpoints"
}
