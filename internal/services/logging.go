package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// Logger returns the component-scoped slog logger.
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// ===== OPERATION LOGGING =====

// LogOperation records the outcome of one session operation. The level
// follows the error class: expected client mistakes are not errors.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID, sessionID string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsConflict(err):
			level = slog.LevelWarn
			status = "conflict"
		case IsNotFound(err):
			status = "not_found"
		}
	}

	if level == slog.LevelInfo && err == nil && !l.config.EnableDebug && isChatty(operation) {
		level = slog.LevelDebug
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var ve ValidationErrors
		var pe *PermissionError
		if errors.As(err, &ve) {
			attrs = append(attrs, slog.Int("validation_errors_count", len(ve)))
		} else if errors.As(err, &pe) {
			attrs = append(attrs, slog.String("permission_action", pe.Action))
		}

		if level == slog.LevelError {
			if pc, file, line, ok := runtime.Caller(2); ok {
				if fn := runtime.FuncForPC(pc); fn != nil {
					attrs = append(attrs,
						slog.String("caller_func", fn.Name()),
						slog.String("caller_file", file),
						slog.Int("caller_line", line),
					)
				}
			}
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// Answer and navigation calls arrive once per click.
func isChatty(operation string) bool {
	switch operation {
	case "answer", "navigate", "cross_out", "mark", "view":
		return true
	}
	return false
}

// ===== HELPERS =====

// OperationLogger times one operation and logs it on completion.
type OperationLogger struct {
	logger    *ServiceLogger
	ctx       context.Context
	operation string
	userID    string
	sessionID string
	startTime time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, userID, sessionID string) *OperationLogger {
	return &OperationLogger{
		logger:    l,
		ctx:       ctx,
		operation: operation,
		userID:    userID,
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

func (ol *OperationLogger) Done(err error) {
	ol.logger.LogOperation(ol.ctx, ol.operation, ol.userID, ol.sessionID, time.Since(ol.startTime), err)
}
