// Package mock implements an in-memory registrar backend for development and tests.
// It keeps a registry of the domains it registered so every operation stays
// consistent, and it can simulate latency and random failures.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
	"github.com/md-riaz/domaindesk/internal/registrar/service"
)

// Backend is the backend id of this registrar in the factory registry.
const Backend = "mock"

// DefaultName is the registrar name stamped on results.
const DefaultName = "Mock"

const maxYears = 10

// Pricing holds per-year prices in cents.
type Pricing struct {
	Register int64
	Renew    int64
	Transfer int64
}

// DefaultPricing is the price table used when Config.Pricing is empty.
var DefaultPricing = map[string]Pricing{
	"com": {Register: 1200, Renew: 1200, Transfer: 1200},
	"net": {Register: 1400, Renew: 1400, Transfer: 1400},
	"org": {Register: 1300, Renew: 1300, Transfer: 1300},
	"io":  {Register: 3900, Renew: 3900, Transfer: 3900},
	"dev": {Register: 1500, Renew: 1500, Transfer: 1500},
}

// DefaultNameservers are assigned when a registration names none.
var DefaultNameservers = []string{"ns1.mock-registrar.test", "ns2.mock-registrar.test"}

// Config configures the mock backend.
type Config struct {
	Pricing map[string]Pricing
	// UnavailablePatterns are path.Match globs of names reported as taken.
	UnavailablePatterns []string
	Latency             time.Duration
	// FailureRate is the probability in [0,1] that a call fails with ConnectionFailed.
	FailureRate float64
	HistorySize int
	// Rand returns a value in [0,1). Defaults to math/rand/v2.
	Rand func() float64
	Now  func() time.Time
}

// HistoryEntry records one call made to the mock.
type HistoryEntry struct {
	Operation string
	Domain    string
	Success   bool
	At        time.Time
}

type record struct {
	name         string
	status       string
	registeredAt time.Time
	expiresAt    time.Time
	nameservers  []string
	contacts     map[domain.ContactType]domain.Contact
	dnsRecords   []domain.DNSRecord
	locked       bool
	privacy      bool
}

// Client is the mock registrar backend.
type Client struct {
	rt  *service.Runtime
	cfg Config

	mu      sync.Mutex
	domains map[string]*record
	history []HistoryEntry
}

var _ domain.Client = (*Client)(nil)

// New creates a mock backend running through rt.
func New(rt *service.Runtime, cfg Config) *Client {
	if len(cfg.Pricing) == 0 {
		cfg.Pricing = DefaultPricing
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		rt:      rt,
		cfg:     cfg,
		domains: make(map[string]*record),
	}
}

// Name implements domain.Client.
func (c *Client) Name() string { return c.rt.Name() }

// Seed adds an already registered domain to the registry.
func (c *Client) Seed(name string, registeredAt, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.domains[strings.ToLower(name)] = &record{
		name:         strings.ToLower(name),
		status:       "active",
		registeredAt: registeredAt,
		expiresAt:    expiresAt,
		nameservers:  slices.Clone(DefaultNameservers),
		contacts:     map[domain.ContactType]domain.Contact{},
	}
}

// History returns a copy of the recorded calls, oldest first.
func (c *Client) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Price returns the per-year pricing of the TLD of name.
func (c *Client) Price(name string) (Pricing, bool) {
	p, ok := c.cfg.Pricing[tldOf(name)]
	return p, ok
}

// CheckAvailability implements domain.Client.
func (c *Client) CheckAvailability(ctx context.Context, name string) (bool, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(service.CategoryAvailability, name)

	return service.Remember(ctx, c.rt.Cache(), service.CategoryAvailability, key,
		func(ctx context.Context) (bool, error) {
			return service.Execute(ctx, c.rt, "check_availability", map[string]any{"domain": name},
				func(ctx context.Context) (bool, error) {
					if err := c.begin(ctx, "check_availability", name); err != nil {
						return false, err
					}
					if err := c.rt.ValidateDomainName(name); err != nil {
						return false, err
					}

					c.mu.Lock()
					defer c.mu.Unlock()
					_, registered := c.domains[name]
					_, priced := c.cfg.Pricing[tldOf(name)]
					return priced && !registered && !c.matchesUnavailable(name), nil
				})
		})
}

// Register implements domain.Client.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.OperationResult, error) {
	name := strings.ToLower(req.Domain)

	result, err := service.Execute(ctx, c.rt, "register", req.Params(),
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "register", name); err != nil {
				return nil, err
			}
			if err := c.validateTerm(name, req.Years); err != nil {
				return nil, err
			}

			pricing, ok := c.Price(name)
			if !ok {
				return nil, domain.NewValidationError(c.Name(),
					map[string]string{"domain": "TLD ." + tldOf(name) + " is not supported"}, nil)
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			if _, exists := c.domains[name]; exists || c.matchesUnavailable(name) {
				return nil, domain.NewUnknown(c.Name(), "domain_unavailable", "domain "+name+" is not available", nil)
			}

			now := c.cfg.Now().UTC()
			nameservers := req.Nameservers
			if len(nameservers) == 0 {
				nameservers = DefaultNameservers
			}
			rec := &record{
				name:         name,
				status:       "active",
				registeredAt: now,
				expiresAt:    now.AddDate(req.Years, 0, 0),
				nameservers:  slices.Clone(nameservers),
				contacts:     cloneContacts(req.Contacts),
				privacy:      req.Privacy,
			}
			c.domains[name] = rec

			return c.rt.Success(map[string]any{
				"domain":        name,
				"order_id":      uuid.NewString(),
				"status":        rec.status,
				"years":         req.Years,
				"price":         pricing.Register * int64(req.Years),
				"registered_at": rec.registeredAt.Format(time.RFC3339),
				"expires_at":    rec.expiresAt.Format(time.RFC3339),
				"nameservers":   slices.Clone(rec.nameservers),
			}, "domain registered", nil), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryAvailability, service.CategoryDomainInfo)
	}
	return result, err
}

// Renew implements domain.Client.
func (c *Client) Renew(ctx context.Context, name string, years int) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "renew", map[string]any{"domain": name, "years": years},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "renew", name); err != nil {
				return nil, err
			}
			if err := c.validateTerm(name, years); err != nil {
				return nil, err
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			rec, err := c.lookup(name)
			if err != nil {
				return nil, err
			}
			pricing, _ := c.Price(name)

			base := rec.expiresAt
			if now := c.cfg.Now().UTC(); base.Before(now) {
				base = now
			}
			rec.expiresAt = base.AddDate(years, 0, 0)
			rec.status = "active"

			return c.rt.Success(map[string]any{
				"domain":     name,
				"order_id":   uuid.NewString(),
				"years":      years,
				"price":      pricing.Renew * int64(years),
				"expires_at": rec.expiresAt.Format(time.RFC3339),
			}, "domain renewed", nil), nil
		})
	// A renew that timed out may still have been applied upstream.
	c.rt.Forget(context.WithoutCancel(ctx), name, service.CategoryDomainInfo)
	return result, err
}

// Transfer implements domain.Client.
func (c *Client) Transfer(ctx context.Context, name, authCode string) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "transfer", map[string]any{"domain": name, "auth_code": authCode},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "transfer", name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateRequired(map[string]any{"auth_code": authCode}, "auth_code"); err != nil {
				return nil, err
			}

			pricing, ok := c.Price(name)
			if !ok {
				return nil, domain.NewValidationError(c.Name(),
					map[string]string{"domain": "TLD ." + tldOf(name) + " is not supported"}, nil)
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			if _, exists := c.domains[name]; exists {
				return nil, domain.NewUnknown(c.Name(), "already_in_account", "domain "+name+" is already in this account", nil)
			}

			now := c.cfg.Now().UTC()
			rec := &record{
				name:         name,
				status:       "transfer_pending",
				registeredAt: now,
				expiresAt:    now.AddDate(1, 0, 0),
				nameservers:  slices.Clone(DefaultNameservers),
				contacts:     map[domain.ContactType]domain.Contact{},
			}
			c.domains[name] = rec

			return c.rt.Success(map[string]any{
				"domain":   name,
				"order_id": uuid.NewString(),
				"status":   rec.status,
				"price":    pricing.Transfer,
			}, "transfer initiated", nil), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryAvailability, service.CategoryDomainInfo)
	}
	return result, err
}

// UpdateNameservers implements domain.Client.
func (c *Client) UpdateNameservers(ctx context.Context, name string, nameservers []string) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "update_nameservers",
		map[string]any{"domain": name, "nameservers": nameservers},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "update_nameservers", name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if err := validateNameservers(c.Name(), nameservers); err != nil {
				return nil, err
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			rec, err := c.lookup(name)
			if err != nil {
				return nil, err
			}
			rec.nameservers = slices.Clone(nameservers)

			return c.rt.Success(map[string]any{
				"domain":      name,
				"nameservers": slices.Clone(rec.nameservers),
			}, "nameservers updated", nil), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDomainInfo)
	}
	return result, err
}

// GetContacts implements domain.Client.
func (c *Client) GetContacts(ctx context.Context, name string) (*domain.OperationResult, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(service.CategoryContacts, name)

	return service.Remember(ctx, c.rt.Cache(), service.CategoryContacts, key,
		func(ctx context.Context) (*domain.OperationResult, error) {
			return service.Execute(ctx, c.rt, "get_contacts", map[string]any{"domain": name},
				func(ctx context.Context) (*domain.OperationResult, error) {
					if err := c.begin(ctx, "get_contacts", name); err != nil {
						return nil, err
					}
					if err := c.rt.ValidateDomainName(name); err != nil {
						return nil, err
					}

					c.mu.Lock()
					defer c.mu.Unlock()

					rec, err := c.lookup(name)
					if err != nil {
						return nil, err
					}

					contacts := make(map[string]any, len(rec.contacts))
					for role, contact := range rec.contacts {
						contacts[string(role)] = contact
					}
					return c.rt.Success(map[string]any{"domain": name, "contacts": contacts}, "", nil), nil
				})
		})
}

// UpdateContacts implements domain.Client.
func (c *Client) UpdateContacts(
	ctx context.Context,
	name string,
	contacts map[domain.ContactType]domain.Contact,
) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "update_contacts", map[string]any{"domain": name},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "update_contacts", name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if err := validateContacts(c.Name(), contacts); err != nil {
				return nil, err
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			rec, err := c.lookup(name)
			if err != nil {
				return nil, err
			}
			for role, contact := range contacts {
				rec.contacts[role] = contact
			}

			return c.rt.Success(map[string]any{"domain": name, "updated": len(contacts)}, "contacts updated", nil), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryContacts)
	}
	return result, err
}

// GetDNSRecords implements domain.Client.
func (c *Client) GetDNSRecords(ctx context.Context, name string) (*domain.OperationResult, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(service.CategoryDNSRecords, name)

	return service.Remember(ctx, c.rt.Cache(), service.CategoryDNSRecords, key,
		func(ctx context.Context) (*domain.OperationResult, error) {
			return service.Execute(ctx, c.rt, "get_dns_records", map[string]any{"domain": name},
				func(ctx context.Context) (*domain.OperationResult, error) {
					if err := c.begin(ctx, "get_dns_records", name); err != nil {
						return nil, err
					}
					if err := c.rt.ValidateDomainName(name); err != nil {
						return nil, err
					}

					c.mu.Lock()
					defer c.mu.Unlock()

					rec, err := c.lookup(name)
					if err != nil {
						return nil, err
					}
					return c.rt.Success(map[string]any{
						"domain":  name,
						"records": slices.Clone(rec.dnsRecords),
					}, "", nil), nil
				})
		})
}

// UpdateDNSRecords implements domain.Client.
func (c *Client) UpdateDNSRecords(ctx context.Context, name string, records []domain.DNSRecord) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "update_dns_records",
		map[string]any{"domain": name, "records": len(records)},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.begin(ctx, "update_dns_records", name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if err := validateDNSRecords(c.Name(), records); err != nil {
				return nil, err
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			rec, err := c.lookup(name)
			if err != nil {
				return nil, err
			}
			rec.dnsRecords = slices.Clone(records)

			return c.rt.Success(map[string]any{"domain": name, "records": len(records)}, "dns records updated", nil), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDNSRecords)
	}
	return result, err
}

// GetInfo implements domain.Client.
func (c *Client) GetInfo(ctx context.Context, name string) (*domain.OperationResult, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(service.CategoryDomainInfo, name)

	return service.Remember(ctx, c.rt.Cache(), service.CategoryDomainInfo, key,
		func(ctx context.Context) (*domain.OperationResult, error) {
			return service.Execute(ctx, c.rt, "get_info", map[string]any{"domain": name},
				func(ctx context.Context) (*domain.OperationResult, error) {
					if err := c.begin(ctx, "get_info", name); err != nil {
						return nil, err
					}
					if err := c.rt.ValidateDomainName(name); err != nil {
						return nil, err
					}

					c.mu.Lock()
					defer c.mu.Unlock()

					rec, err := c.lookup(name)
					if err != nil {
						return nil, err
					}
					return c.rt.Success(map[string]any{
						"domain":        name,
						"status":        rec.status,
						"registered_at": rec.registeredAt.Format(time.RFC3339),
						"expires_at":    rec.expiresAt.Format(time.RFC3339),
						"nameservers":   slices.Clone(rec.nameservers),
						"locked":        rec.locked,
						"privacy":       rec.privacy,
					}, "", nil), nil
				})
		})
}

// Lock implements domain.Client.
func (c *Client) Lock(ctx context.Context, name string) (bool, error) {
	return c.setLock(ctx, "lock", name, true)
}

// Unlock implements domain.Client.
func (c *Client) Unlock(ctx context.Context, name string) (bool, error) {
	return c.setLock(ctx, "unlock", name, false)
}

func (c *Client) setLock(ctx context.Context, operation, name string, locked bool) (bool, error) {
	name = strings.ToLower(name)

	ok, err := service.Execute(ctx, c.rt, operation, map[string]any{"domain": name},
		func(ctx context.Context) (bool, error) {
			if err := c.begin(ctx, operation, name); err != nil {
				return false, err
			}
			if err := c.rt.ValidateDomainName(name); err != nil {
				return false, err
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			rec, err := c.lookup(name)
			if err != nil {
				return false, err
			}
			rec.locked = locked
			return true, nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDomainInfo)
	}
	return ok, err
}

// TestConnection implements domain.Client.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	return service.Execute(ctx, c.rt, "test_connection", nil,
		func(ctx context.Context) (bool, error) {
			if err := c.begin(ctx, "test_connection", ""); err != nil {
				return false, err
			}
			return true, nil
		})
}

// begin simulates latency and random failure, and records the call.
func (c *Client) begin(ctx context.Context, operation, name string) error {
	if c.cfg.Latency > 0 {
		timer := time.NewTimer(c.cfg.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.record(operation, name, false)
			return ctx.Err()
		case <-timer.C:
		}
	}

	if c.cfg.FailureRate > 0 && c.cfg.Rand() < c.cfg.FailureRate {
		c.record(operation, name, false)
		return domain.NewConnectionFailed(c.Name(), errors.New("simulated registrar failure"))
	}

	c.record(operation, name, true)
	return nil
}

func (c *Client) record(operation, name string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, HistoryEntry{
		Operation: operation,
		Domain:    name,
		Success:   success,
		At:        c.cfg.Now(),
	})
	if over := len(c.history) - c.cfg.HistorySize; over > 0 {
		c.history = slices.Delete(c.history, 0, over)
	}
}

// lookup must be called with c.mu held.
func (c *Client) lookup(name string) (*record, error) {
	rec, ok := c.domains[name]
	if !ok {
		return nil, domain.NewDomainNotFound(c.Name(), name, nil)
	}
	return rec, nil
}

func (c *Client) matchesUnavailable(name string) bool {
	for _, pattern := range c.cfg.UnavailablePatterns {
		if ok, err := path.Match(strings.ToLower(pattern), name); err == nil && ok {
			return true
		}
	}
	return false
}

func (c *Client) validateTerm(name string, years int) error {
	if err := c.rt.ValidateDomainName(name); err != nil {
		return err
	}
	if years < 1 || years > maxYears {
		return domain.NewValidationError(c.Name(),
			map[string]string{"years": fmt.Sprintf("must be between 1 and %d", maxYears)}, nil)
	}
	return nil
}

func validateNameservers(registrar string, nameservers []string) error {
	if len(nameservers) < 2 || len(nameservers) > 13 {
		return domain.NewValidationError(registrar,
			map[string]string{"nameservers": "between 2 and 13 nameservers are required"}, nil)
	}
	errs := make(map[string]string)
	for i, ns := range nameservers {
		if service.ValidateDomainName(registrar, ns) != nil {
			errs[fmt.Sprintf("nameservers.%d", i)] = "must be a valid hostname"
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationError(registrar, errs, nil)
	}
	return nil
}

func validateContacts(registrar string, contacts map[domain.ContactType]domain.Contact) error {
	errs := make(map[string]string)
	for role, contact := range contacts {
		if strings.TrimSpace(contact.Name) == "" {
			errs[string(role)+".name"] = "The name field is required."
		}
		if strings.TrimSpace(contact.Email) == "" {
			errs[string(role)+".email"] = "The email field is required."
		}
	}
	if len(contacts) == 0 {
		errs["contacts"] = "at least one contact is required"
	}
	if len(errs) > 0 {
		return domain.NewValidationError(registrar, errs, nil)
	}
	return nil
}

var dnsRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS", "SRV", "CAA"}

func validateDNSRecords(registrar string, records []domain.DNSRecord) error {
	errs := make(map[string]string)
	for i, r := range records {
		if !slices.Contains(dnsRecordTypes, strings.ToUpper(r.Type)) {
			errs[fmt.Sprintf("records.%d.type", i)] = "unsupported record type"
		}
		if strings.TrimSpace(r.Value) == "" {
			errs[fmt.Sprintf("records.%d.value", i)] = "The value field is required."
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationError(registrar, errs, nil)
	}
	return nil
}

func cloneContacts(contacts map[domain.ContactType]domain.Contact) map[domain.ContactType]domain.Contact {
	out := make(map[domain.ContactType]domain.Contact, len(contacts))
	for role, contact := range contacts {
		out[role] = contact
	}
	return out
}

func tldOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return strings.ToLower(name[i+1:])
	}
	return ""
}
