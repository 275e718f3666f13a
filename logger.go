package hypervec

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hypervec-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithKind adds an event kind field to the logger.
func (l *Logger) WithKind(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind),
	}
}

// WithComponent tags records with the emitting subsystem.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogInteraction logs a profile update.
func (l *Logger) LogInteraction(ctx context.Context, kind string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "profile update failed",
			"kind", kind,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "profile updated",
			"kind", kind,
		)
	}
}

// LogLearn logs a clustering pass.
func (l *Logger) LogLearn(ctx context.Context, events, created, reinforced, rejected int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "clustering pass failed",
			"events", events,
			"error", err,
		)
	case rejected > 0:
		l.WarnContext(ctx, "clustering pass completed with rejected vectors",
			"events", events,
			"created", created,
			"reinforced", reinforced,
			"rejected", rejected,
		)
	default:
		l.DebugContext(ctx, "clustering pass completed",
			"events", events,
			"created", created,
			"reinforced", reinforced,
		)
	}
}

// LogQuery logs a nearest neighbor query.
func (l *Logger) LogQuery(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogPersist logs a persist or restore operation.
func (l *Logger) LogPersist(ctx context.Context, op string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op+" completed")
	}
}
