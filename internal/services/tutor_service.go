package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/sat-session-service/internal/tutor"
)

// TutorClient is the slice of the tutor client the service needs.
type TutorClient interface {
	Chat(ctx context.Context, req tutor.Request) (*tutor.Response, error)
}

type tutorService struct {
	client TutorClient
	logger *slog.Logger
}

// NewTutorService accepts a nil client; every call then fails with
// ErrTutorUnavailable.
func NewTutorService(client TutorClient, logger *slog.Logger) TutorService {
	return &tutorService{
		client: client,
		logger: logger,
	}
}

func (s *tutorService) Chat(ctx context.Context, req *tutor.Request, userID string) (*tutor.Response, error) {
	if s.client == nil {
		return nil, ErrTutorUnavailable
	}

	resp, err := s.client.Chat(ctx, *req)
	if err != nil {
		if errors.Is(err, tutor.ErrEmptyRequest) {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		s.logger.ErrorContext(ctx, "Tutor request failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("tutor chat failed: %w", err)
	}

	s.logger.InfoContext(ctx, "Tutor reply",
		"user_id", userID,
		"tip", req.Flags.TipRequested,
		"summarise", req.Flags.SummariseRequested,
		"total_tokens", resp.UsageMetrics.TotalTokens)
	return resp, nil
}
