// Package domain defines registrar audit log entries.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit entry.
type EventType string

const (
	EventRegistrarError   EventType = "registrar_error"
	EventStatusTransition EventType = "status_transition"
)

// Entry is one row of the registrar audit log. Which optional fields are set
// depends on EventType.
type Entry struct {
	ID         uuid.UUID
	EventType  EventType
	Registrar  string
	Operation  string
	ErrorKind  string
	ErrorCode  string
	Message    string
	DomainID   *uuid.UUID
	DomainName string
	PartnerID  *uuid.UUID
	FromStatus string
	ToStatus   string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Transition describes a domain status change worth auditing.
type Transition struct {
	DomainID   uuid.UUID
	DomainName string
	PartnerID  *uuid.UUID
	Registrar  string
	From       string
	To         string
	Reason     string
	Metadata   map[string]any
}

// Filter narrows List results.
type Filter struct {
	DomainID  *uuid.UUID
	EventType EventType
	Offset    int
	Limit     int
}
