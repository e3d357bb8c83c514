// Package service queues notifications on the outbox and delivers them to a Mailer.
package service

import (
	"context"
	"log/slog"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/notification/domain"
	outboxDomain "github.com/md-riaz/domaindesk/internal/outbox/domain"
)

// EventWriter stores outbox events. Writes join the transaction carried by ctx.
type EventWriter interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// Notifier queues notification messages.
type Notifier interface {
	Notify(ctx context.Context, msg domain.Message) error
}

type outboxNotifier struct {
	events EventWriter
	logger *slog.Logger
}

// NewNotifier returns a Notifier that writes each message as a notification.{type} outbox event.
func NewNotifier(events EventWriter, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &outboxNotifier{events: events, logger: logger}
}

func (n *outboxNotifier) Notify(ctx context.Context, msg domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	event, err := outboxDomain.NewOutboxEvent(domain.EventType(msg.Type), msg)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode notification")
	}

	if err := n.events.Create(ctx, event); err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "notification queued",
		slog.String("type", string(msg.Type)),
		slog.String("domain", msg.DomainName),
		slog.Int("recipients", len(msg.Recipients)),
		slog.String("event_id", event.ID.String()),
	)
	return nil
}
