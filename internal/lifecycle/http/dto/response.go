package dto

import (
	"time"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
)

// DomainResponse represents a domain in API responses.
type DomainResponse struct {
	ID           string     `json:"id"`
	PartnerID    string     `json:"partner_id"`
	ClientID     *string    `json:"client_id,omitempty"`
	RegistrarID  *string    `json:"registrar_id,omitempty"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Years        int        `json:"years"`
	Nameservers  []string   `json:"nameservers"`
	AutoRenew    bool       `json:"auto_renew"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MapDomainToResponse converts a domain to an API response.
func MapDomainToResponse(d *lifecycleDomain.Domain) DomainResponse {
	nameservers := d.Nameservers
	if nameservers == nil {
		nameservers = []string{}
	}

	response := DomainResponse{
		ID:           d.ID.String(),
		PartnerID:    d.PartnerID.String(),
		Name:         d.Name,
		Status:       string(d.Status),
		Years:        d.Years,
		Nameservers:  nameservers,
		AutoRenew:    d.AutoRenew,
		RegisteredAt: d.RegisteredAt,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.ClientID != nil {
		id := d.ClientID.String()
		response.ClientID = &id
	}
	if d.RegistrarID != nil {
		id := d.RegistrarID.String()
		response.RegistrarID = &id
	}
	return response
}

// JobResponse acknowledges a queued lifecycle job.
type JobResponse struct {
	JobID       string    `json:"job_id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	MaxTries    int       `json:"max_tries"`
	AvailableAt time.Time `json:"available_at"`
}

// MapJobToResponse converts a queued job to an API response.
func MapJobToResponse(job *jobsDomain.Job) JobResponse {
	return JobResponse{
		JobID:       job.ID.String(),
		Type:        job.Type,
		Status:      string(job.Status),
		MaxTries:    job.MaxTries,
		AvailableAt: job.AvailableAt,
	}
}
