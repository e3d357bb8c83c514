// Package domain defines notification messages carried through the outbox.
package domain

import (
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appvalidation "github.com/md-riaz/domaindesk/internal/validation"
)

// Type identifies what a notification is about.
type Type string

const (
	TypeRegistrationSucceeded Type = "registration_succeeded"
	TypeRegistrationFailed    Type = "registration_failed"
	TypeRenewalSucceeded      Type = "renewal_succeeded"
	TypeAutoRenewalFailed     Type = "auto_renewal_failed"
	TypeExpiryWarning         Type = "expiry_warning"
)

// eventTypePrefix namespaces notification events in the outbox.
const eventTypePrefix = "notification."

var knownTypes = []any{
	TypeRegistrationSucceeded,
	TypeRegistrationFailed,
	TypeRenewalSucceeded,
	TypeAutoRenewalFailed,
	TypeExpiryWarning,
}

// Message is the plain-data notification handed to a Mailer.
type Message struct {
	Type       Type           `json:"type"`
	Recipients []string       `json:"recipients"`
	DomainID   uuid.UUID      `json:"domain_id"`
	DomainName string         `json:"domain_name"`
	PartnerID  *uuid.UUID     `json:"partner_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Validate checks that the message has a known type and deliverable recipients.
func (m Message) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(knownTypes...)),
		validation.Field(&m.Recipients, validation.Required, validation.Each(validation.Required, appvalidation.Email)),
		validation.Field(&m.DomainName, validation.Required),
	)
	return appvalidation.WrapValidationError(err)
}

// FilterRecipients splits addresses into deliverable and rejected ones.
func FilterRecipients(addresses []string) (valid, rejected []string) {
	for _, address := range addresses {
		if validation.Validate(address, validation.Required, appvalidation.Email) != nil {
			rejected = append(rejected, address)
			continue
		}
		valid = append(valid, address)
	}
	return valid, rejected
}

// EventType returns the outbox event type carrying messages of type t.
func EventType(t Type) string {
	return eventTypePrefix + string(t)
}

// TypeFromEvent extracts the notification type from an outbox event type.
func TypeFromEvent(eventType string) (Type, bool) {
	name, ok := strings.CutPrefix(eventType, eventTypePrefix)
	if !ok || name == "" {
		return "", false
	}
	return Type(name), true
}
