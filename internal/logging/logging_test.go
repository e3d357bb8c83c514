package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("JSONFormat", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("info", "json", &buf)

		logger.Info("hello")

		assert.Contains(t, buf.String(), `"level":"INFO"`)
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("TextFormat", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("info", "text", &buf)

		logger.Info("hello")

		assert.Contains(t, buf.String(), "level=INFO")
	})

	t.Run("LevelFiltersDebug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("warn", "json", &buf)

		logger.Info("dropped")

		assert.Zero(t, buf.Len())
	})

	t.Run("RedactsSensitiveFields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("info", "json", &buf)

		logger.Info("registrar call",
			slog.String("api_key", "sk-live-123"),
			slog.String("auth_code", "EPP-999"),
			slog.String("domain", "example.com"),
		)

		out := buf.String()
		assert.NotContains(t, out, "sk-live-123")
		assert.NotContains(t, out, "EPP-999")
		assert.Contains(t, out, "example.com")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "json", &buf)

	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
