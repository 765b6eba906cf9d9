package session

import "github.com/SAP-F-2025/sat-session-service/internal/models"

// QuestionView is a question as shown to the test taker: no correct answer
// and no explanation.
type QuestionView struct {
	ID           string              `json:"id"`
	Index        int                 `json:"index"`
	Text         string              `json:"text"`
	Options      []string            `json:"options,omitempty"`
	QuestionType models.QuestionType `json:"question_type"`
	GraphURL     *string             `json:"graph_url,omitempty"`
	InputType    *string             `json:"input_type,omitempty"`
	AnswerFormat *string             `json:"answer_format,omitempty"`
}

type ModuleView struct {
	ModuleID          string                `json:"module_id"`
	ModuleNumber      int                   `json:"module_number"`
	Title             string                `json:"title"`
	CalculatorAllowed bool                  `json:"calculator_allowed"`
	QuestionCount     int                   `json:"question_count"`
	CurrentIndex      int                   `json:"current_index"`
	Question          *QuestionView         `json:"question,omitempty"`
	DisplayedAnswer   string                `json:"displayed_answer"`
	Ledger            models.LedgerSnapshot `json:"ledger"`
	Clock             ClockState            `json:"clock"`
}

type IntermissionView struct {
	RemainingSeconds int `json:"remaining_seconds"`
	NextModuleNumber int `json:"next_module_number"`
}

// SessionView is the read model returned by the API after every action.
type SessionView struct {
	SessionID        string             `json:"session_id"`
	ExamID           string             `json:"exam_id"`
	Phase            models.Phase       `json:"phase"`
	Practice         bool               `json:"practice"`
	ModuleIndex      int                `json:"module_index"`
	ModuleCount      int                `json:"module_count"`
	CompletedModules int                `json:"completed_modules"`
	Module           *ModuleView        `json:"module,omitempty"`
	Intermission     *IntermissionView  `json:"intermission,omitempty"`
	Result           *models.ExamResult `json:"result,omitempty"`
}

func (r *Runner) View() ModuleView {
	v := ModuleView{
		ModuleID:          r.module.ID,
		ModuleNumber:      r.module.ModuleNumber,
		Title:             r.module.Title,
		CalculatorAllowed: r.module.CalculatorAllowed,
		QuestionCount:     len(r.module.Questions),
		CurrentIndex:      r.index,
		DisplayedAnswer:   r.DisplayedAnswer(),
		Ledger:            r.Snapshot(),
		Clock:             r.clock.State(),
	}
	if r.inRange(r.index) {
		q := r.module.Questions[r.index]
		v.Question = &QuestionView{
			ID:           q.ID,
			Index:        r.index,
			Text:         q.Text,
			Options:      append([]string(nil), q.Options...),
			QuestionType: q.Type(),
			GraphURL:     q.GraphURL,
			InputType:    q.InputType,
			AnswerFormat: q.AnswerFormat,
		}
	}
	return v
}

func (o *Orchestrator) View() SessionView {
	v := SessionView{
		SessionID:        o.sessionID,
		ExamID:           o.examID,
		Phase:            o.phase,
		Practice:         o.opts.Practice,
		ModuleIndex:      o.index,
		ModuleCount:      len(o.modules),
		CompletedModules: len(o.results),
	}

	switch o.phase {
	case models.PhaseInProgress:
		if o.runner != nil {
			mv := o.runner.View()
			v.Module = &mv
		}
	case models.PhaseIntermission:
		iv := &IntermissionView{}
		if o.intermission != nil {
			iv.RemainingSeconds = o.intermission.Remaining()
		}
		if o.index+1 < len(o.modules) {
			iv.NextModuleNumber = o.modules[o.index+1].ModuleNumber
		}
		v.Intermission = iv
	case models.PhaseCompleted:
		v.Result = o.result
	}

	return v
}
