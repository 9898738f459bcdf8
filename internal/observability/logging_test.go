package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithMediaDir(ctx, "/srv/media")
	ctx = WithStage(ctx, "seed")
	ctx = WithStage(ctx, "collect")

	lc := GetContext(ctx)
	assert.Equal(t, LogContext{RunID: "run-1", Stage: "collect", MediaDir: "/srv/media"}, lc)
}

func TestEmptyContext(t *testing.T) {
	assert.Empty(t, Attrs(context.Background()))
	base := slog.Default()
	assert.Same(t, base, Logger(context.Background(), base))
}

func TestInfoContextIncludesAttrs(t *testing.T) {
	logger, buf := bufferLogger()
	ctx := WithStage(WithRunID(context.Background(), "abc"), "compose")

	InfoContext(ctx, logger, "Stage finished", slog.Int("count", 3))

	out := buf.String()
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "stage=compose")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "level=INFO")
}

func TestLevels(t *testing.T) {
	logger, buf := bufferLogger()
	ctx := context.Background()

	DebugContext(ctx, logger, "d")
	WarnContext(ctx, logger, "w")
	ErrorContext(ctx, logger, "e")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

func TestLoggerWithContext(t *testing.T) {
	logger, buf := bufferLogger()
	Logger(WithRunID(context.Background(), "xyz"), logger).Info("hello")
	assert.Contains(t, buf.String(), "run_id=xyz")
}
