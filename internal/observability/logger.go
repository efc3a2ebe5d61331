// Package observability provides structured logging with request ID
// propagation.
package observability

import (
	"context"
	"io"
	"log/slog"
)

// Logger wraps slog.Logger with request ID support.
type Logger struct {
	*slog.Logger
}

// LoggerConfig contains configuration for the logger.
type LoggerConfig struct {
	Level      slog.Level
	Output     io.Writer
	JSONFormat bool
}

// NewLogger creates a new logger.
func NewLogger(cfg LoggerConfig) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithRequestID returns a logger carrying the request ID from context.
func (l *Logger) WithRequestID(ctx context.Context) *Logger {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		return l
	}
	return &Logger{Logger: l.Logger.With("request_id", requestID)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
