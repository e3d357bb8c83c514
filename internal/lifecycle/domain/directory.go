package domain

import (
	"github.com/google/uuid"

	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// Partner is a reseller account. Partners own wallets, clients and domains.
type Partner struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	DefaultRegistrarID *uuid.UUID
}

// Client is an end customer of a partner.
type Client struct {
	ID           uuid.UUID
	PartnerID    uuid.UUID
	Name         string
	Organization string
	Email        string
	Phone        string
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// Contact returns the client as a registrar contact handle.
func (c *Client) Contact() registrarDomain.Contact {
	return registrarDomain.Contact{
		Name:         c.Name,
		Organization: c.Organization,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		City:         c.City,
		State:        c.State,
		PostalCode:   c.PostalCode,
		Country:      c.Country,
	}
}
