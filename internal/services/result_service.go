package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
)

type resultService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultService(repo repositories.Repository, logger *slog.Logger) ResultService {
	return &resultService{
		repo:   repo,
		logger: logger,
	}
}

func (s *resultService) Get(ctx context.Context, resultID, userID string) (*models.ExamResult, error) {
	result, err := s.repo.Result().GetResult(ctx, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result.UserID != userID {
		return nil, NewPermissionError(userID, resultID, "result", "read", "not owned by user")
	}
	return result, nil
}

func (s *resultService) List(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	filters = filters.Normalize()

	results, total, err := s.repo.Result().ListResultsByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return &ResultListResponse{
		Results: results,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *resultService) SubcategoryStats(ctx context.Context, userID string) ([]models.SubcategoryStat, error) {
	stats, err := s.repo.Result().GetSubcategoryStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory stats: %w", err)
	}
	return stats, nil
}

// ExportToExcel renders one result as a workbook with a summary sheet and a
// per-question responses sheet.
func (s *resultService) ExportToExcel(ctx context.Context, resultID, userID string) ([]byte, error) {
	result, err := s.Get(ctx, resultID, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "result_id", resultID, "error", err)
		}
	}()

	if err := writeSummarySheet(f, result); err != nil {
		return nil, err
	}
	if err := writeResponsesSheet(f, result); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Result exported", "result_id", resultID, "responses", len(result.Responses))
	return buf.Bytes(), nil
}

const (
	summarySheet   = "Summary"
	responsesSheet = "Responses"
)

func writeSummarySheet(f *excelize.File, result *models.ExamResult) error {
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Result ID", result.ID},
		{"Exam ID", result.ExamID},
		{"Completed At", result.CompletedAt.Format("2006-01-02 15:04:05")},
		{"Overall Score", result.OverallScore},
		{"Reading and Writing", result.Scores.ReadingWriting},
		{"Math", result.Scores.Math},
		{"Correct Answers", result.CorrectAnswers},
		{"Total Questions", result.TotalQuestions},
		{},
		{"Module", "Title", "Answered", "Correct", "Questions", "End Reason", "Seconds Left"},
	}
	for _, m := range result.Modules {
		rows = append(rows, []interface{}{
			m.ModuleNumber, m.Title, m.Answered, m.Correct, m.TotalQuestions, string(m.EndReason), m.RemainingSeconds,
		})
	}

	return writeRows(f, summarySheet, rows)
}

func writeResponsesSheet(f *excelize.File, result *models.ExamResult) error {
	if _, err := f.NewSheet(responsesSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Module", "Question ID", "Subcategory", "Your Answer", "Correct Answer", "Correct"},
	}
	for _, r := range result.Responses {
		rows = append(rows, []interface{}{
			r.ModuleNumber, r.QuestionID, r.SubcategoryID, r.UserAnswer, r.CorrectAnswer, r.IsCorrect,
		})
	}

	return writeRows(f, responsesSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
