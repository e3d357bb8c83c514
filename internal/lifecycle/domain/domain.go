// Package domain defines registered domains, their lifecycle state machine and the
// payloads of the registration and renewal workflows.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a domain.
type Status string

const (
	StatusPendingRegistration Status = "pending_registration"
	StatusActive              Status = "active"
	StatusExpired             Status = "expired"
	StatusGracePeriod         Status = "grace_period"
	StatusRedemption          Status = "redemption"
	StatusSuspended           Status = "suspended"
	StatusTransferredOut      Status = "transferred_out"
	StatusRegistrationFailed  Status = "registration_failed"
	StatusTransferInitiated   Status = "transfer_initiated"
	StatusTransferPending     Status = "transfer_pending"
	StatusTransferFailed      Status = "transfer_failed"
)

var transitions = map[Status][]Status{
	StatusPendingRegistration: {StatusActive, StatusRegistrationFailed},
	StatusActive:              {StatusActive, StatusExpired, StatusSuspended, StatusTransferInitiated, StatusTransferredOut},
	StatusExpired:             {StatusActive, StatusGracePeriod, StatusRedemption},
	StatusGracePeriod:         {StatusActive, StatusRedemption},
	StatusRedemption:          {StatusActive},
	StatusSuspended:           {StatusActive, StatusExpired},
	StatusTransferInitiated:   {StatusTransferPending, StatusTransferFailed, StatusActive},
	StatusTransferPending:     {StatusTransferredOut, StatusTransferFailed, StatusActive},
	StatusTransferFailed:      {StatusActive, StatusTransferInitiated},
	StatusRegistrationFailed:  {StatusPendingRegistration},
	StatusTransferredOut:      nil,
}

var nonRenewable = []Status{
	StatusRegistrationFailed,
	StatusTransferredOut,
	StatusRedemption,
	StatusPendingRegistration,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Renewable reports whether a domain in state s can be renewed.
func (s Status) Renewable() bool {
	return s.Valid() && !slices.Contains(nonRenewable, s)
}

// Domain is a domain name owned by a partner, optionally on behalf of one of its clients.
type Domain struct {
	ID           uuid.UUID
	PartnerID    uuid.UUID
	ClientID     *uuid.UUID
	RegistrarID  *uuid.UUID
	Name         string
	Status       Status
	Years        int
	Nameservers  []string
	AutoRenew    bool
	RegisteredAt *time.Time
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TLD returns the last label of the name.
func (d *Domain) TLD() string {
	if i := strings.LastIndex(d.Name, "."); i >= 0 {
		return strings.ToLower(d.Name[i+1:])
	}
	return ""
}

// Term returns the purchased registration term in years, at least one.
func (d *Domain) Term() int {
	if d.Years < 1 {
		return 1
	}
	return d.Years
}

// MarkRegistered moves a pending domain to active with a term starting at now.
func (d *Domain) MarkRegistered(now time.Time) error {
	if err := d.transition(StatusActive); err != nil {
		return err
	}
	registeredAt := now
	expiresAt := now.AddDate(d.Term(), 0, 0)
	d.RegisteredAt = &registeredAt
	d.ExpiresAt = &expiresAt
	return nil
}

// MarkRegistrationFailed records that registration will not be attempted again.
func (d *Domain) MarkRegistrationFailed() error {
	return d.transition(StatusRegistrationFailed)
}

// MarkRenewed extends the expiry by years from the later of the current expiry and now.
func (d *Domain) MarkRenewed(now time.Time, years int) error {
	if err := d.transition(StatusActive); err != nil {
		return err
	}
	base := now
	if d.ExpiresAt != nil && d.ExpiresAt.After(now) {
		base = *d.ExpiresAt
	}
	expiresAt := base.AddDate(years, 0, 0)
	d.ExpiresAt = &expiresAt
	return nil
}

// DaysUntilExpiry returns whole days left before expiry, negative once expired.
func (d *Domain) DaysUntilExpiry(now time.Time) int {
	if d.ExpiresAt == nil {
		return 0
	}
	return int(d.ExpiresAt.Sub(now) / (24 * time.Hour))
}

func (d *Domain) transition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return NewInvalidTransitionError(d.Status, next)
	}
	d.Status = next
	return nil
}
