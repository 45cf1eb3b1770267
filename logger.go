package subclust

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with subclust-specific context.
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

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithDest adds a destination field to the logger.
func (l *Logger) WithDest(dest string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dest", dest),
	}
}

// WithCluster adds a cluster identifier field to the logger.
func (l *Logger) WithCluster(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("cluster", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogExtract logs a hierarchy extraction.
func (l *Logger) LogExtract(ctx context.Context, dimension, clusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "extract failed",
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "extract completed",
			"dimension", dimension,
			"clusters", clusters,
		)
	}
}

// LogClusterWrite logs one written cluster unit.
func (l *Logger) LogClusterWrite(ctx context.Context, id string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cluster write failed",
			"cluster", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cluster written",
			"cluster", id,
			"rows", rows,
		)
	}
}

// LogWrite logs a materialization.
func (l *Logger) LogWrite(ctx context.Context, dest string, units int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"dest", dest,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "write completed",
			"dest", dest,
			"units", units,
		)
	}
}

// LogManifest logs a manifest save.
func (l *Logger) LogManifest(ctx context.Context, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "manifest save failed",
			"manifest_id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "manifest saved",
			"manifest_id", id,
		)
	}
}
