package models

import "time"

// Module is one timed block of an exam. It is loaded once per session and not
// modified afterwards.
type Module struct {
	ID                string `json:"id" gorm:"primaryKey;size:64"`
	ExamID            string `json:"exam_id" gorm:"not null;size:64;uniqueIndex:idx_exam_module_number"`
	ModuleNumber      int    `json:"module_number" gorm:"not null;uniqueIndex:idx_exam_module_number" validate:"required,min=1"`
	Title             string `json:"title" gorm:"not null;size:200"`
	TimeLimitSeconds  int    `json:"time_limit_seconds" gorm:"not null" validate:"min=0"`
	CalculatorAllowed bool   `json:"calculator_allowed" gorm:"default:false"`

	Questions []Question `json:"questions" gorm:"foreignKey:ModuleID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Module) TableName() string {
	return "exam_modules"
}

// Clone returns a deep copy of the module and its questions.
func (m Module) Clone() Module {
	c := m
	if m.Questions != nil {
		c.Questions = make([]Question, len(m.Questions))
		for i, q := range m.Questions {
			c.Questions[i] = q.Clone()
		}
	}
	return c
}
