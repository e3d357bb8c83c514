package domain

import "context"

// Client is the capability set every registrar backend implements. Operations that
// fail because of the registrar return a *RegistrarError; boolean operations never
// report a connectivity fault as false.
type Client interface {
	CheckAvailability(ctx context.Context, domain string) (bool, error)
	Register(ctx context.Context, req RegisterRequest) (*OperationResult, error)
	Renew(ctx context.Context, domain string, years int) (*OperationResult, error)
	Transfer(ctx context.Context, domain, authCode string) (*OperationResult, error)
	UpdateNameservers(ctx context.Context, domain string, nameservers []string) (*OperationResult, error)
	GetContacts(ctx context.Context, domain string) (*OperationResult, error)
	UpdateContacts(ctx context.Context, domain string, contacts map[ContactType]Contact) (*OperationResult, error)
	GetDNSRecords(ctx context.Context, domain string) (*OperationResult, error)
	UpdateDNSRecords(ctx context.Context, domain string, records []DNSRecord) (*OperationResult, error)
	GetInfo(ctx context.Context, domain string) (*OperationResult, error)
	Lock(ctx context.Context, domain string) (bool, error)
	Unlock(ctx context.Context, domain string) (bool, error)
	Name() string
	TestConnection(ctx context.Context) (bool, error)
}

// ContactType identifies a WHOIS contact role.
type ContactType string

const (
	ContactRegistrant ContactType = "registrant"
	ContactAdmin      ContactType = "admin"
	ContactTech       ContactType = "tech"
	ContactBilling    ContactType = "billing"
)

// Contact is a WHOIS contact handle.
type Contact struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// DNSRecord is a single resource record managed at the registrar.
type DNSRecord struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	TTL      int    `json:"ttl"`
	Priority int    `json:"priority,omitempty"`
}

// RegisterRequest carries everything a backend needs to register a domain.
type RegisterRequest struct {
	Domain      string
	Years       int
	Nameservers []string
	Contacts    map[ContactType]Contact
	Privacy     bool
}

// Params returns the request as loggable parameters.
func (r RegisterRequest) Params() map[string]any {
	contacts := make(map[string]any, len(r.Contacts))
	for role, c := range r.Contacts {
		contacts[string(role)] = c.Email
	}
	return map[string]any{
		"domain":      r.Domain,
		"years":       r.Years,
		"nameservers": r.Nameservers,
		"contacts":    contacts,
		"privacy":     r.Privacy,
	}
}
