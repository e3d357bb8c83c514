// Package resellerapi implements a live registrar backend speaking a JSON-over-HTTPS
// reseller API. Calls go through the instrumented HTTP client, so every request is
// circuit broken, throttled, retried and traced.
package resellerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/md-riaz/domaindesk/internal/httpclient"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
	"github.com/md-riaz/domaindesk/internal/registrar/service"
)

// Backend is the backend id of this registrar in the factory registry.
const Backend = "resellerapi"

// Credential keys read from the registrar configuration record.
const (
	CredentialResellerID = "reseller_id"
	CredentialAPIKey     = "api_key"
	CredentialBaseURL    = "base_url"
)

// Client is the reseller API backend.
type Client struct {
	rt         *service.Runtime
	http       *httpclient.Client
	resellerID string
	apiKey     string
}

var _ domain.Client = (*Client)(nil)

// New creates a reseller API backend. The HTTP client's BaseURL is the API root.
func New(rt *service.Runtime, httpClient *httpclient.Client, resellerID, apiKey string) *Client {
	return &Client{
		rt:         rt,
		http:       httpClient,
		resellerID: resellerID,
		apiKey:     apiKey,
	}
}

// Name implements domain.Client.
func (c *Client) Name() string { return c.rt.Name() }

type availabilityResponse struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

// CheckAvailability implements domain.Client.
func (c *Client) CheckAvailability(ctx context.Context, name string) (bool, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(service.CategoryAvailability, name)

	return service.Remember(ctx, c.rt.Cache(), service.CategoryAvailability, key,
		func(ctx context.Context) (bool, error) {
			return service.Execute(ctx, c.rt, "check_availability", map[string]any{"domain": name},
				func(ctx context.Context) (bool, error) {
					if err := c.rt.ValidateDomainName(name); err != nil {
						return false, err
					}

					var resp availabilityResponse
					path := "/v1/domains/availability?domain=" + url.QueryEscape(name)
					if err := c.do(ctx, "check_availability", name, http.MethodGet, path, nil, &resp); err != nil {
						return false, err
					}
					return resp.Available, nil
				})
		})
}

type registerRequest struct {
	Domain      string                    `json:"domain"`
	Years       int                       `json:"years"`
	Nameservers []string                  `json:"nameservers,omitempty"`
	Contacts    map[string]domain.Contact `json:"contacts,omitempty"`
	Privacy     bool                      `json:"privacy"`
}

// Register implements domain.Client.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.OperationResult, error) {
	name := strings.ToLower(req.Domain)

	result, err := service.Execute(ctx, c.rt, "register", req.Params(),
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := validateTerm(c.rt, name, req.Years); err != nil {
				return nil, err
			}

			contacts := make(map[string]domain.Contact, len(req.Contacts))
			for role, contact := range req.Contacts {
				contacts[string(role)] = contact
			}
			body := registerRequest{
				Domain:      name,
				Years:       req.Years,
				Nameservers: req.Nameservers,
				Contacts:    contacts,
				Privacy:     req.Privacy,
			}

			var resp map[string]any
			if err := c.do(ctx, "register", name, http.MethodPost, "/v1/domains", body, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "domain registered", resp), nil
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
			if err := validateTerm(c.rt, name, years); err != nil {
				return nil, err
			}

			var resp map[string]any
			path := "/v1/domains/" + url.PathEscape(name) + "/renew"
			if err := c.do(ctx, "renew", name, http.MethodPost, path, map[string]any{"years": years}, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "domain renewed", resp), nil
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
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if err := c.rt.ValidateRequired(map[string]any{"auth_code": authCode}, "auth_code"); err != nil {
				return nil, err
			}

			var resp map[string]any
			path := "/v1/domains/" + url.PathEscape(name) + "/transfer"
			if err := c.do(ctx, "transfer", name, http.MethodPost, path, map[string]any{"auth_code": authCode}, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "transfer initiated", nil), nil
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
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			if len(nameservers) < 2 {
				return nil, domain.NewValidationError(c.Name(),
					map[string]string{"nameservers": "at least 2 nameservers are required"}, nil)
			}

			var resp map[string]any
			path := "/v1/domains/" + url.PathEscape(name) + "/nameservers"
			if err := c.do(ctx, "update_nameservers", name, http.MethodPut, path,
				map[string]any{"nameservers": nameservers}, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "nameservers updated", resp), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDomainInfo)
	}
	return result, err
}

// GetContacts implements domain.Client.
func (c *Client) GetContacts(ctx context.Context, name string) (*domain.OperationResult, error) {
	return c.lookup(ctx, service.CategoryContacts, "get_contacts", name, "/contacts")
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
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}
			body := make(map[string]domain.Contact, len(contacts))
			for role, contact := range contacts {
				body[string(role)] = contact
			}

			var resp map[string]any
			path := "/v1/domains/" + url.PathEscape(name) + "/contacts"
			if err := c.do(ctx, "update_contacts", name, http.MethodPut, path,
				map[string]any{"contacts": body}, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "contacts updated", resp), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryContacts)
	}
	return result, err
}

// GetDNSRecords implements domain.Client.
func (c *Client) GetDNSRecords(ctx context.Context, name string) (*domain.OperationResult, error) {
	return c.lookup(ctx, service.CategoryDNSRecords, "get_dns_records", name, "/dns")
}

// UpdateDNSRecords implements domain.Client.
func (c *Client) UpdateDNSRecords(ctx context.Context, name string, records []domain.DNSRecord) (*domain.OperationResult, error) {
	name = strings.ToLower(name)

	result, err := service.Execute(ctx, c.rt, "update_dns_records",
		map[string]any{"domain": name, "records": len(records)},
		func(ctx context.Context) (*domain.OperationResult, error) {
			if err := c.rt.ValidateDomainName(name); err != nil {
				return nil, err
			}

			var resp map[string]any
			path := "/v1/domains/" + url.PathEscape(name) + "/dns"
			if err := c.do(ctx, "update_dns_records", name, http.MethodPut, path,
				map[string]any{"records": records}, &resp); err != nil {
				return nil, err
			}
			return c.rt.Success(resp, "dns records updated", resp), nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDNSRecords)
	}
	return result, err
}

// GetInfo implements domain.Client.
func (c *Client) GetInfo(ctx context.Context, name string) (*domain.OperationResult, error) {
	return c.lookup(ctx, service.CategoryDomainInfo, "get_info", name, "")
}

// Lock implements domain.Client.
func (c *Client) Lock(ctx context.Context, name string) (bool, error) {
	return c.setLock(ctx, "lock", http.MethodPost, name)
}

// Unlock implements domain.Client.
func (c *Client) Unlock(ctx context.Context, name string) (bool, error) {
	return c.setLock(ctx, "unlock", http.MethodDelete, name)
}

// TestConnection implements domain.Client.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	return service.Execute(ctx, c.rt, "test_connection", nil,
		func(ctx context.Context) (bool, error) {
			if err := c.do(ctx, "test_connection", "", http.MethodGet, "/v1/ping", nil, nil); err != nil {
				return false, err
			}
			return true, nil
		})
}

func (c *Client) lookup(
	ctx context.Context,
	category service.Category,
	operation, name, suffix string,
) (*domain.OperationResult, error) {
	name = strings.ToLower(name)
	key := c.rt.CacheKey(category, name)

	return service.Remember(ctx, c.rt.Cache(), category, key,
		func(ctx context.Context) (*domain.OperationResult, error) {
			return service.Execute(ctx, c.rt, operation, map[string]any{"domain": name},
				func(ctx context.Context) (*domain.OperationResult, error) {
					if err := c.rt.ValidateDomainName(name); err != nil {
						return nil, err
					}

					var resp map[string]any
					path := "/v1/domains/" + url.PathEscape(name) + suffix
					if err := c.do(ctx, operation, name, http.MethodGet, path, nil, &resp); err != nil {
						return nil, err
					}
					return c.rt.Success(resp, "", nil), nil
				})
		})
}

func (c *Client) setLock(ctx context.Context, operation, method, name string) (bool, error) {
	name = strings.ToLower(name)

	ok, err := service.Execute(ctx, c.rt, operation, map[string]any{"domain": name},
		func(ctx context.Context) (bool, error) {
			if err := c.rt.ValidateDomainName(name); err != nil {
				return false, err
			}
			path := "/v1/domains/" + url.PathEscape(name) + "/lock"
			if err := c.do(ctx, operation, name, method, path, nil, nil); err != nil {
				return false, err
			}
			return true, nil
		})
	if err == nil {
		c.rt.Forget(ctx, name, service.CategoryDomainInfo)
	}
	return ok, err
}

// do sends one API request and decodes a 2xx JSON body into out. Non-2xx responses
// are translated into registrar errors; transport errors are returned as-is so the
// runtime classifies them. A mutating call that ends in a 5xx or a lost connection
// is reported as an unknown outcome, since the registrar may have applied it.
func (c *Client) do(ctx context.Context, operation, domainName, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s body: %w", operation, err)
		}
		reader = bytes.NewReader(b)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.http.BaseURL()+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.http.BaseURL()+path, http.NoBody)
	}
	if err != nil {
		return fmt.Errorf("creating %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Reseller-ID", c.resellerID)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(ctx, req)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		regErr := translateHTTPError(c.Name(), operation, domainName, resp)
		if resp.StatusCode >= http.StatusInternalServerError && !httpclient.IsIdempotent(method) {
			return domain.NewOutcomeUnknown(c.Name(), operation, regErr)
		}
		return regErr
	}
	if errors.Is(err, httpclient.ErrOutcomeUnknown) {
		return domain.NewOutcomeUnknown(c.Name(), operation, err)
	}
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUnknown(c.Name(), "invalid_response", "could not decode registrar response: "+err.Error(), nil)
	}
	return nil
}

func validateTerm(rt *service.Runtime, name string, years int) error {
	if err := rt.ValidateDomainName(name); err != nil {
		return err
	}
	if years < 1 || years > 10 {
		return domain.NewValidationError(rt.Name(), map[string]string{"years": "must be between 1 and 10"}, nil)
	}
	return nil
}
