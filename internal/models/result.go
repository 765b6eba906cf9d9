package models

import (
	"time"

	"gorm.io/datatypes"
)

// SectionScores holds the scaled 200-800 section scores.
type SectionScores struct {
	ReadingWriting int `json:"reading_writing" gorm:"column:reading_writing"`
	Math           int `json:"math" gorm:"column:math"`
}

// ModuleSummary is the per-module metadata stored with an exam result.
type ModuleSummary struct {
	ModuleNumber     int       `json:"module_number"`
	ModuleID         string    `json:"module_id"`
	Title            string    `json:"title"`
	TotalQuestions   int       `json:"total_questions"`
	Answered         int       `json:"answered"`
	Correct          int       `json:"correct"`
	EndReason        EndReason `json:"end_reason"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// ExamResult is the scored outcome of one session. It is written once and
// never updated; a new attempt produces a new result.
type ExamResult struct {
	ID             string        `json:"id" gorm:"primaryKey;size:64"`
	SessionID      string        `json:"session_id" gorm:"not null;size:64;uniqueIndex"`
	UserID         string        `json:"user_id" gorm:"not null;size:255;index"`
	ExamID         string        `json:"exam_id" gorm:"not null;size:64;index"`
	OverallScore   int           `json:"overall_score"`
	Scores         SectionScores `json:"scores" gorm:"embedded;embeddedPrefix:score_"`
	TotalQuestions int           `json:"total_questions"`
	CorrectAnswers int           `json:"correct_answers"`

	Modules   datatypes.JSONSlice[ModuleSummary] `json:"modules"`
	Responses []QuestionResponse                 `json:"responses" gorm:"foreignKey:ResultID"`

	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Set when the final write failed; the scores are still valid.
	ProgressSaveFailed bool `json:"progress_save_failed" gorm:"-"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}

// QuestionResponse is the per-question outcome consumed by analytics.
type QuestionResponse struct {
	ID            uint      `json:"-" gorm:"primaryKey"`
	ResultID      string    `json:"-" gorm:"not null;size:64;index"`
	QuestionID    string    `json:"question_id" gorm:"not null;size:64;index"`
	UserAnswer    string    `json:"user_answer" gorm:"type:text"`
	CorrectAnswer string    `json:"correct_answer" gorm:"type:text"`
	IsCorrect     bool      `json:"is_correct"`
	ModuleID      string    `json:"module_id" gorm:"size:64"`
	ModuleNumber  int       `json:"module_number"`
	SubcategoryID string    `json:"subcategory_id" gorm:"size:64;index"`
	Timestamp     time.Time `json:"timestamp"`
}

func (QuestionResponse) TableName() string {
	return "question_responses"
}

// SubcategoryStat is the per-user rollup updated alongside each result.
type SubcategoryStat struct {
	UserID        string    `json:"user_id" gorm:"primaryKey;size:255"`
	SubcategoryID string    `json:"subcategory_id" gorm:"primaryKey;size:64"`
	Attempted     int       `json:"attempted"`
	Correct       int       `json:"correct"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SubcategoryStat) TableName() string {
	return "subcategory_stats"
}
