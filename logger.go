package entigo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with entigo-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRun adds a run identifier field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// WithMatcher adds a matcher name field to the logger.
func (l *Logger) WithMatcher(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("matcher", name),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogClean logs the cleansing step.
func (l *Logger) LogClean(ctx context.Context, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cleanse failed",
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cleanse completed",
			"records", records,
		)
	}
}

// LogMatch logs a matcher run.
func (l *Logger) LogMatch(ctx context.Context, matcher string, pairs, skipped, failed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matcher failed",
			"matcher", matcher,
			"pairs", pairs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "matcher completed",
			"matcher", matcher,
			"pairs", pairs,
			"skipped", skipped,
			"failed", failed,
		)
	}
}

// LogMerge logs the cluster merge step.
func (l *Logger) LogMerge(ctx context.Context, pairs, clusters int) {
	l.DebugContext(ctx, "merge completed",
		"pairs", pairs,
		"clusters", clusters,
	)
}

// LogRun logs a full pipeline run.
func (l *Logger) LogRun(ctx context.Context, records, pairs, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"records", records,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "run completed",
			"records", records,
			"pairs", pairs,
			"clusters", clusters,
			"duration", duration,
		)
	}
}

// LogPersist logs a report artifact write.
func (l *Logger) LogPersist(ctx context.Context, key string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact write failed",
			"key", key,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifact written",
			"key", key,
		)
	}
}
