package dto

import (
	"time"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// AvailabilityResponse reports whether a domain can be registered.
type AvailabilityResponse struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

// ResultResponse is the registrar result envelope without the raw registrar payload.
type ResultResponse struct {
	Success       bool              `json:"success"`
	Data          map[string]any    `json:"data"`
	Message       string            `json:"message,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	RegistrarName string            `json:"registrar_name"`
}

// MapResultToResponse converts an operation result to an API response.
func MapResultToResponse(r *domain.OperationResult) ResultResponse {
	return ResultResponse{
		Success:       r.Success(),
		Data:          r.Data(),
		Message:       r.Message(),
		Errors:        r.Errors(),
		RegistrarName: r.RegistrarName(),
	}
}

// ConnectionResponse reports the outcome of a connection test.
type ConnectionResponse struct {
	Connected bool `json:"connected"`
}

// RegistrarResponse represents a registrar configuration. Credentials are never exposed.
type RegistrarResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Backend    string     `json:"backend"`
	IsActive   bool       `json:"is_active"`
	IsDefault  bool       `json:"is_default"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// ListRegistrarsResponse is the list of configured registrars.
type ListRegistrarsResponse struct {
	Data []RegistrarResponse `json:"data"`
}

// MapRegistrarsToListResponse converts registrar records to a list API response.
func MapRegistrarsToListResponse(registrars []*domain.Registrar) ListRegistrarsResponse {
	data := make([]RegistrarResponse, 0, len(registrars))
	for _, r := range registrars {
		data = append(data, RegistrarResponse{
			ID:         r.ID.String(),
			Name:       r.Name,
			Slug:       r.Slug,
			Backend:    r.Backend,
			IsActive:   r.IsActive,
			IsDefault:  r.IsDefault,
			LastSyncAt: r.LastSyncAt,
		})
	}
	return ListRegistrarsResponse{Data: data}
}
