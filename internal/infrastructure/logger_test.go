package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bearwave/internal/config"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	assert.Equal(t, "run-123", GetRunID(ctx))
	assert.Equal(t, "", GetRunID(context.Background()))
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEnsureRunID(t *testing.T) {
	ctx := EnsureRunID(context.Background())
	assert.NotEmpty(t, GetRunID(ctx))

	again := EnsureRunID(ctx)
	assert.Equal(t, GetRunID(ctx), GetRunID(again))
}

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	first, err := InitializeLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := InitializeLogger(config.LoggingConfig{Level: "error", Format: "text"})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestRunIDHandlerInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&runIDHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := WithRunID(context.Background(), "run-abc")
	logger.InfoContext(ctx, "analysis started")
	assert.Contains(t, buf.String(), `"run_id":"run-abc"`)

	buf.Reset()
	logger.InfoContext(context.Background(), "no run")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestRunIDHandlerSurvivesWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&runIDHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := WithRunID(context.Background(), "run-abc")
	logger.With(slog.String("station", "Guam")).WithGroup("batch").InfoContext(ctx, "x")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-abc"`)
	assert.Contains(t, out, `"station":"Guam"`)
}

func TestLoggerWithContext(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })

	ctx := WithRunID(context.Background(), "run-xyz")
	LoggerWithContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"run_id":"run-xyz"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "level %q", tt.in)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithComponent(logger, "pipeline").Info("x")
	assert.Contains(t, buf.String(), `"component":"pipeline"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithError(logger, errors.New("boom")).Info("x")
	assert.Contains(t, buf.String(), `"error":"boom"`)

	assert.Same(t, logger, WithError(logger, nil))
}
