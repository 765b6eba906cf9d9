package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeUserInput      QuestionType = "user-input"
)

// Question is a single assessment item. The session engine reads it but never
// changes it.
type Question struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:64"`
	ModuleID      string                      `json:"module_id" gorm:"not null;index;size:64"`
	Position      int                         `json:"position" gorm:"not null;default:0"`
	Text          string                      `json:"text" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswer datatypes.JSON              `json:"correct_answer,omitempty"` // index, letter, literal or list of literals
	QuestionType  QuestionType                `json:"question_type,omitempty" gorm:"size:32" validate:"omitempty,question_type"`
	SubcategoryID string                      `json:"subcategory_id" gorm:"size:64;index"`

	GraphURL     *string `json:"graph_url,omitempty" gorm:"type:text"`
	Explanation  *string `json:"explanation,omitempty" gorm:"type:text"`
	InputType    *string `json:"input_type,omitempty" gorm:"size:32"`
	AnswerFormat *string `json:"answer_format,omitempty" gorm:"size:64"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Type returns the explicit question type, or infers it from the options.
func (q Question) Type() QuestionType {
	if q.QuestionType != "" {
		return q.QuestionType
	}
	if len(q.Options) == 0 {
		return QuestionTypeUserInput
	}
	return QuestionTypeMultipleChoice
}

// Clone returns a deep copy so snapshots do not share backing arrays.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append(datatypes.JSONSlice[string](nil), q.Options...)
	}
	if q.CorrectAnswer != nil {
		c.CorrectAnswer = append(datatypes.JSON(nil), q.CorrectAnswer...)
	}
	return c
}

// AcceptedAnswers resolves CorrectAnswer into the literal values a response
// must match. Unresolvable records yield nil.
func (q Question) AcceptedAnswers() []string {
	if len(q.CorrectAnswer) == 0 {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(q.CorrectAnswer, &raw); err != nil {
		return nil
	}

	var values []interface{}
	if list, ok := raw.([]interface{}); ok {
		values = list
	} else {
		values = []interface{}{raw}
	}

	accepted := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := q.resolve(v); ok {
			accepted = append(accepted, s)
		}
	}
	if len(accepted) == 0 {
		return nil
	}
	return accepted
}

func (q Question) resolve(v interface{}) (string, bool) {
	multipleChoice := q.Type() == QuestionTypeMultipleChoice

	switch value := v.(type) {
	case float64:
		if !multipleChoice {
			return strconv.FormatFloat(value, 'f', -1, 64), true
		}
		i := int(value)
		if float64(i) != value || i < 0 || i >= len(q.Options) {
			return "", false
		}
		return q.Options[i], true

	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return "", false
		}
		if !multipleChoice {
			return s, true
		}
		for _, opt := range q.Options {
			if strings.EqualFold(strings.TrimSpace(opt), s) {
				return opt, true
			}
		}
		if len(s) == 1 {
			if i := int(strings.ToUpper(s)[0]) - 'A'; i >= 0 && i < len(q.Options) {
				return q.Options[i], true
			}
		}
		if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(q.Options) {
			return q.Options[i], true
		}
		return "", false
	}

	return "", false
}

// Evaluate reports whether answer is correct along with the resolved correct
// answer. Records whose correct answer cannot be resolved are never correct.
func (q Question) Evaluate(answer string) (bool, string) {
	accepted := q.AcceptedAnswers()
	if len(accepted) == 0 {
		return false, ""
	}

	given := strings.TrimSpace(answer)
	if given == "" {
		return false, strings.Join(accepted, ", ")
	}

	for _, want := range accepted {
		if answersMatch(q.Type(), want, given) {
			return true, want
		}
	}
	return false, strings.Join(accepted, ", ")
}

func answersMatch(t QuestionType, want, got string) bool {
	want = strings.TrimSpace(want)
	if t == QuestionTypeMultipleChoice {
		return strings.EqualFold(want, got)
	}

	w := strings.ReplaceAll(want, " ", "")
	g := strings.ReplaceAll(got, " ", "")
	if strings.EqualFold(w, g) {
		return true
	}

	wn, okW := parseNumber(w)
	gn, okG := parseNumber(g)
	return okW && okG && math.Abs(wn-gn) < 1e-9
}

// parseNumber accepts decimals and simple fractions such as "3/4" or "-1/2".
func parseNumber(s string) (float64, bool) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
