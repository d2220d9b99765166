package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		environment string
		want        string
	}{
		{"production defaults to json", "", "production", `"msg":"table loaded"`},
		{"development defaults to pretty", "", "development", "INF"},
		{"explicit text", "text", "production", "msg=\"table loaded\""},
		{"explicit json is case-insensitive", "JSON", "development", `"level":"INFO"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Writer: &buf, Format: tt.format, Environment: tt.environment, Level: slog.LevelInfo})

			l.Info("table loaded", "version", 3)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	defaults := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, defaults.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, defaults.Enabled(context.Background(), slog.LevelInfo))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil))

	l.Warn("seed row conflicts with table", "kind", "COLOR", "canonical", "navy blue", "id", 9)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "seed row conflicts with table")
	assert.Contains(t, out, "kind=COLOR")
	assert.Contains(t, out, `canonical="navy blue"`)
	assert.Contains(t, out, "id=9")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil)).
		With("session_id", "abc").
		WithGroup("run").
		With("attempt", 2)

	l.Info("resolved", slog.Group("counts", "resolved", 7, "partial", 1))

	out := buf.String()
	assert.Contains(t, out, "session_id=abc")
	assert.Contains(t, out, "run.attempt=2")
	assert.Contains(t, out, "run.counts.resolved=7")
	assert.Contains(t, out, "run.counts.partial=1")
}

func TestPrettyHandler_WithGroupEmptyName(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.Same(t, h, h.WithGroup(""))
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	l.Info("with source")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
		{slog.LevelError + 4, "ERROR+4"},
	}

	for _, tt := range tests {
		got, color := formatLevel(tt.level)
		assert.Equal(t, tt.want, got)
		assert.NotEmpty(t, color)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, `""`, formatValue(slog.StringValue("")))
	assert.Equal(t, `"two words"`, formatValue(slog.StringValue("two words")))
	assert.Equal(t, "2025-04-01T09:00:00Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "true", formatValue(slog.BoolValue(true)))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	l.WithError(errors.New("disk full")).Error("save failed")
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "json", Level: slog.LevelDebug})

	l.Component("resolver").Debug("batch resolved")
	assert.Contains(t, buf.String(), `"component":"resolver"`)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	l.Info("hidden")
	l.Warn("shown")

	require.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
