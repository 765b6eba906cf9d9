package session

import (
	"strings"
	"time"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/scoring"
)

// ResultMeta identifies the session an ExamResult belongs to.
type ResultMeta struct {
	ResultID  string
	SessionID string
	UserID    string
	ExamID    string
	At        time.Time
}

// BuildExamResult evaluates every question of every module result, in
// arrival order, and scores the attempt. Unanswered questions count as
// incorrect, and so do questions whose correct answer cannot be resolved.
func BuildExamResult(meta ResultMeta, results []models.ModuleResult) *models.ExamResult {
	var (
		outcomes  []scoring.Outcome
		responses []models.QuestionResponse
		summaries []models.ModuleSummary
	)

	for _, res := range results {
		summary := models.ModuleSummary{
			ModuleNumber:     res.ModuleNumber,
			ModuleID:         res.ModuleID,
			Title:            res.Title,
			TotalQuestions:   len(res.Questions),
			EndReason:        res.EndReason,
			RemainingSeconds: res.RemainingSeconds,
		}

		for i, q := range res.Questions {
			answer := res.Answers[i]
			if strings.TrimSpace(answer) != "" {
				summary.Answered++
			}

			correct, resolved := q.Evaluate(answer)
			if correct {
				summary.Correct++
			}

			outcomes = append(outcomes, scoring.Outcome{IsCorrect: correct, ModuleNumber: res.ModuleNumber})
			responses = append(responses, models.QuestionResponse{
				ResultID:      meta.ResultID,
				QuestionID:    q.ID,
				UserAnswer:    answer,
				CorrectAnswer: resolved,
				IsCorrect:     correct,
				ModuleID:      res.ModuleID,
				ModuleNumber:  res.ModuleNumber,
				SubcategoryID: q.SubcategoryID,
				Timestamp:     res.CompletedAt,
			})
		}

		summaries = append(summaries, summary)
	}

	summary := scoring.Score(outcomes)

	return &models.ExamResult{
		ID:           meta.ResultID,
		SessionID:    meta.SessionID,
		UserID:       meta.UserID,
		ExamID:       meta.ExamID,
		OverallScore: summary.OverallScore,
		Scores: models.SectionScores{
			ReadingWriting: summary.ReadingWriting,
			Math:           summary.Math,
		},
		TotalQuestions: summary.TotalQuestions,
		CorrectAnswers: summary.CorrectAnswers,
		Modules:        summaries,
		Responses:      responses,
		CompletedAt:    meta.At,
	}
}
