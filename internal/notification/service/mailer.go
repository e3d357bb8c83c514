package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/httpclient"
	"github.com/md-riaz/domaindesk/internal/notification/domain"
)

// Mailer delivers a notification message to its recipients.
type Mailer interface {
	Send(ctx context.Context, msg domain.Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send logs msg.
func (m *LogMailer) Send(ctx context.Context, msg domain.Message) error {
	m.logger.InfoContext(ctx, "notification delivered",
		slog.String("type", string(msg.Type)),
		slog.Any("recipients", msg.Recipients),
		slog.String("domain", msg.DomainName),
		slog.Any("data", msg.Data),
		slog.String("error", msg.Error),
	)
	return nil
}

// Doer executes HTTP requests; *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// WebhookMailer POSTs each message as JSON to a webhook.
type WebhookMailer struct {
	client Doer
	url    string
}

var _ Doer = (*httpclient.Client)(nil)

// NewWebhookMailer creates a WebhookMailer posting to url through client.
func NewWebhookMailer(client Doer, url string) *WebhookMailer {
	return &WebhookMailer{client: client, url: url}
}

// Send posts msg. Any non-2xx response is an error so the outbox retries the delivery.
func (m *WebhookMailer) Send(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, "failed to build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Type", string(msg.Type))

	resp, err := m.client.Do(ctx, req)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	if err != nil {
		return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrUpstream, err), "notification webhook failed")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apperrors.Wrapf(apperrors.ErrUpstream, "notification webhook returned %d", resp.StatusCode)
	}
	return nil
}
