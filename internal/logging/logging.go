// Package logging builds the application's structured logger and carries it through contexts.
//
// Every logger created by New redacts credential-shaped attributes through masq, so registrar
// credentials that slip past call-site sanitization never reach the output.
package logging

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/m-mizutani/masq"
)

// contextKey is the unexported key type for storing loggers in context.
type contextKey struct{}

// SensitiveFields lists attribute names whose values are always redacted.
var SensitiveFields = []string{
	"api_key",
	"apikey",
	"password",
	"passwd",
	"auth_code",
	"authcode",
	"epp_code",
	"secret",
	"api_secret",
	"client_secret",
	"token",
	"access_token",
	"authorization",
	"credentials",
}

// apiKeyInlinePattern matches "api_key=<value>" fragments inside free-form strings.
var apiKeyInlinePattern = regexp.MustCompile(`(?i)(api[_\-]?key|auth[_\-]?code)\s*[:=]\s*\S+`)

// New creates a configured *slog.Logger. Unknown levels default to info and any
// format other than "text" produces JSON.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: newRedactAttr(),
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ParseLevel converts a level string to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newRedactAttr() func([]string, slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(SensitiveFields)+3)
	for _, name := range SensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	opts = append(opts,
		masq.WithFieldPrefix("secret_"),
		masq.WithFieldPrefix("api_key"),
		masq.WithRegex(apiKeyInlinePattern),
	)

	return masq.New(opts...)
}
