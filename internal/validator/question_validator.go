package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
)

// QuestionValidator inspects question records as they are loaded. It never
// rejects a record: the session still runs and malformed questions score as
// incorrect. Issues are reported so they can be logged and fixed upstream.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// QuestionIssue describes one problem with a question record.
type QuestionIssue struct {
	QuestionID string `json:"question_id"`
	Index      int    `json:"index"`
	Problem    string `json:"problem"`
}

func (i QuestionIssue) String() string {
	return fmt.Sprintf("question %d (%s): %s", i.Index, i.QuestionID, i.Problem)
}

// CheckQuestion returns the problems found in one record.
func (v *QuestionValidator) CheckQuestion(index int, q models.Question) []QuestionIssue {
	var issues []QuestionIssue
	add := func(format string, args ...interface{}) {
		issues = append(issues, QuestionIssue{
			QuestionID: q.ID,
			Index:      index,
			Problem:    fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(q.Text) == "" {
		add("text is empty")
	}

	switch q.QuestionType {
	case "", models.QuestionTypeMultipleChoice, models.QuestionTypeUserInput:
	default:
		add("unknown question type %q", q.QuestionType)
	}

	if q.Type() == models.QuestionTypeMultipleChoice {
		if len(q.Options) < 2 {
			add("multiple choice needs at least 2 options, has %d", len(q.Options))
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				add("option %d is empty", i)
			}
		}
	}

	if len(q.CorrectAnswer) == 0 {
		add("correct answer is missing")
	} else if len(q.AcceptedAnswers()) == 0 {
		add("correct answer %s does not resolve", string(q.CorrectAnswer))
	}

	return issues
}

// CheckModule checks every question of a module.
func (v *QuestionValidator) CheckModule(m models.Module) []QuestionIssue {
	var issues []QuestionIssue
	for i, q := range m.Questions {
		issues = append(issues, v.CheckQuestion(i, q)...)
	}
	return issues
}
