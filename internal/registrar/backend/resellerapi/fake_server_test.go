package resellerapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeAPI is an in-memory reseller API used by the backend tests.
type fakeAPI struct {
	mu      sync.Mutex
	apiKey  string
	domains map[string]*fakeDomain
}

type fakeDomain struct {
	ExpiresAt   time.Time
	Nameservers []string
	Contacts    map[string]any
	Records     []any
	Locked      bool
}

func newFakeAPI(t *testing.T, apiKey string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{apiKey: apiKey, domains: map[string]*fakeDomain{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) seed(name string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.domains[name] = &fakeDomain{ExpiresAt: expiresAt, Contacts: map[string]any{}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	body := map[string]any{"code": code, "message": message}
	if fields != nil {
		body["fields"] = fields
	}
	writeJSON(w, status, map[string]any{"error": body})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.apiKey {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid api key", nil)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1")
	switch {
	case path == "/ping":
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})

	case path == "/domains/availability":
		name := r.URL.Query().Get("domain")
		_, taken := f.domains[name]
		writeJSON(w, http.StatusOK, map[string]any{"domain": name, "available": !taken})

	case path == "/domains" && r.Method == http.MethodPost:
		var req struct {
			Domain string `json:"domain"`
			Years  int    `json:"years"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, exists := f.domains[req.Domain]; exists {
			writeError(w, http.StatusConflict, "domain_taken", "domain is not available", nil)
			return
		}
		expires := time.Now().UTC().AddDate(req.Years, 0, 0)
		f.domains[req.Domain] = &fakeDomain{ExpiresAt: expires, Contacts: map[string]any{}}
		writeJSON(w, http.StatusCreated, map[string]any{
			"domain":     req.Domain,
			"order_id":   "ord-1",
			"price":      1200 * req.Years,
			"expires_at": expires.Format(time.RFC3339),
		})

	default:
		f.serveDomain(w, r, strings.TrimPrefix(path, "/domains/"))
	}
}

func (f *fakeAPI) serveDomain(w http.ResponseWriter, r *http.Request, rest string) {
	name, action, _ := strings.Cut(rest, "/")

	if action == "transfer" {
		writeJSON(w, http.StatusAccepted, map[string]any{"domain": name, "status": "pending"})
		return
	}

	d, ok := f.domains[name]
	if !ok {
		writeError(w, http.StatusNotFound, "domain_not_found", "domain not found", nil)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"domain":      name,
			"status":      "active",
			"expires_at":  d.ExpiresAt.Format(time.RFC3339),
			"nameservers": d.Nameservers,
			"locked":      d.Locked,
		})
	case action == "renew":
		var req struct {
			Years int `json:"years"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		d.ExpiresAt = d.ExpiresAt.AddDate(req.Years, 0, 0)
		writeJSON(w, http.StatusOK, map[string]any{
			"domain":     name,
			"price":      1200 * req.Years,
			"expires_at": d.ExpiresAt.Format(time.RFC3339),
		})
	case action == "nameservers":
		var req struct {
			Nameservers []string `json:"nameservers"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		d.Nameservers = req.Nameservers
		writeJSON(w, http.StatusOK, map[string]any{"domain": name, "nameservers": d.Nameservers})
	case action == "contacts" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"domain": name, "contacts": d.Contacts})
	case action == "contacts":
		var req struct {
			Contacts map[string]any `json:"contacts"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for role, c := range req.Contacts {
			d.Contacts[role] = c
		}
		writeJSON(w, http.StatusOK, map[string]any{"domain": name})
	case action == "dns" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"domain": name, "records": d.Records})
	case action == "dns":
		var req struct {
			Records []any `json:"records"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		d.Records = req.Records
		writeJSON(w, http.StatusOK, map[string]any{"domain": name, "records": len(d.Records)})
	case action == "lock":
		d.Locked = r.Method == http.MethodPost
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "unsupported action", nil)
	}
}
