// Package observability carries run-scoped logging context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/mediaindex/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RunID    string
	Stage    string
	MediaDir string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMediaDir adds the media root to the context.
func WithMediaDir(ctx context.Context, dir string) context.Context {
	lc := extractLogContext(ctx)
	lc.MediaDir = dir
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Attrs returns slog attributes for the non-empty fields of ctx's LogContext.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 3)
	if lc.RunID != "" {
		attrs = append(attrs, logfields.RunID(lc.RunID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.MediaDir != "" {
		attrs = append(attrs, logfields.MediaDir(lc.MediaDir))
	}
	return attrs
}

// Logger returns base enriched with ctx's run, stage and media dir.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := Attrs(ctx)
	if len(attrs) == 0 {
		return base
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return base.With(args...)
}

// InfoContext logs through base with ctx's attributes prepended.
func InfoContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, base, slog.LevelInfo, msg, attrs)
}

// WarnContext logs through base with ctx's attributes prepended.
func WarnContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, base, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs through base with ctx's attributes prepended.
func ErrorContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, base, slog.LevelError, msg, attrs)
}

// DebugContext logs through base with ctx's attributes prepended.
func DebugContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, base, slog.LevelDebug, msg, attrs)
}

func logAttrs(ctx context.Context, base *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if base == nil {
		base = slog.Default()
	}
	all := append(Attrs(ctx), attrs...)
	base.LogAttrs(ctx, level, msg, all...)
}
