package percolator

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with percolator-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRequestID adds a request_id field to the logger.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(mode Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode.String()),
	}
}

// LogPercolate logs a percolation request.
func (l *Logger) LogPercolate(ctx context.Context, res *Result, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "percolate failed",
			"took", took,
			"error", err,
		)
		return
	}
	if len(res.Faults) > 0 {
		l.WarnContext(ctx, "percolate completed with faults",
			"total", res.Total,
			"matches", len(res.Matches),
			"faults", len(res.Faults),
			"took", took,
		)
		return
	}
	l.DebugContext(ctx, "percolate completed",
		"total", res.Total,
		"matches", len(res.Matches),
		"took", took,
	)
}

// LogBatch logs a batch percolation.
func (l *Logger) LogBatch(ctx context.Context, count, failed int, took time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch percolate completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
			"took", took,
		)
	} else {
		l.InfoContext(ctx, "batch percolate completed",
			"count", count,
			"took", took,
		)
	}
}

// LogSnapshot logs a registry snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, queries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot "+op+" completed",
			"name", name,
			"queries", queries,
		)
	}
}
