package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		format      string
		wantJSON    bool
	}{
		{"production defaults to json", "production", "", true},
		{"development defaults to pretty", "development", "", false},
		{"explicit json wins", "development", FormatJSON, true},
		{"explicit pretty wins", "production", FormatPretty, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Format: tt.format})
			log.Info("hello", "album_id", 7)

			var decoded map[string]any
			err := json.Unmarshal(buf.Bytes(), &decoded)
			if tt.wantJSON {
				require.NoError(t, err)
				assert.Equal(t, "hello", decoded["msg"])
				assert.InDelta(t, 7.0, decoded["album_id"], 0)
			} else {
				assert.Error(t, err)
				assert.Contains(t, buf.String(), "album_id=7")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Level: slog.LevelWarn})

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "ERR")
}

func TestPrettyHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("merged duplicate albums",
		"canonical_id", 3,
		"title", "OK Computer",
		"elapsed", 1500*time.Millisecond,
		"error", errors.New("boom"),
	)

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "merged duplicate albums")
	assert.Contains(t, out, "canonical_id=3")
	assert.Contains(t, out, `title="OK Computer"`)
	assert.Contains(t, out, "elapsed=1.5s")
	assert.Contains(t, out, colorRed+"error=boom")
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil)).
		With("user_id", "u1").
		WithGroup("reconcile").
		With("pass", 2)

	log.Info("done", slog.Group("counts", "merged", 4), "status", "ok")

	out := buf.String()
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "reconcile.pass=2")
	assert.Contains(t, out, "reconcile.counts.merged=4")
	assert.Contains(t, out, "reconcile.status=ok")
}

func TestPrettyHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewPrettyHandler(&buf, nil))
	_ = base.With("leak", "yes")

	base.Info("plain")
	assert.NotContains(t, buf.String(), "leak")
}

func TestPrettyHandler_Source(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	log.Info("with source")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Writer: &buf, Format: FormatJSON}), "reconcile")

	log.Info("tick")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "reconcile", decoded["component"])
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01T12:00:00Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, `""`, formatValue(slog.StringValue("")))
	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, "true", formatValue(slog.BoolValue(true)))
	assert.Equal(t, "1.5", formatValue(slog.Float64Value(1.5)))
}
