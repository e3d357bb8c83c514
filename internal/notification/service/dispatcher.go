package service

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/notification/domain"
	outboxDomain "github.com/md-riaz/domaindesk/internal/outbox/domain"
)

// Dispatcher is the outbox EventProcessor for notification events.
type Dispatcher struct {
	mailer Mailer
}

// NewDispatcher creates a Dispatcher delivering through mailer.
func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

// Process decodes event and sends it. Events outside the notification namespace
// or with an unreadable payload are rejected.
func (d *Dispatcher) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	typ, ok := domain.TypeFromEvent(event.EventType)
	if !ok {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported outbox event %q", event.EventType)
	}

	var msg domain.Message
	if err := json.Unmarshal([]byte(event.Payload), &msg); err != nil {
		return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err), "failed to decode notification")
	}
	if msg.Type == "" {
		msg.Type = typ
	}

	return d.mailer.Send(ctx, msg)
}
