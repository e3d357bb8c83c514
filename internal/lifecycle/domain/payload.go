package domain

import (
	"github.com/google/uuid"
)

// Job types handled by the lifecycle workflows.
const (
	JobTypeRegistration = "domain.register"
	JobTypeRenewal      = "domain.renew"
)

// RegistrationPayload is the job payload of a registration.
type RegistrationPayload struct {
	DomainID  uuid.UUID `json:"domain_id"`
	PartnerID uuid.UUID `json:"partner_id"`
}

// RenewalPayload is the job payload of a renewal. Force renews even when auto-renew is off.
type RenewalPayload struct {
	DomainID  uuid.UUID `json:"domain_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Years     int       `json:"years"`
	Force     bool      `json:"force"`
}

// UniqueKey serializes jobs of one type per domain.
func UniqueKey(jobType string, domainID uuid.UUID) string {
	return jobType + ":" + domainID.String()
}
