package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Registrar is a persisted registrar configuration. It is administered elsewhere and
// only read by this service.
type Registrar struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Backend        string
	Credentials    map[string]string
	// RawCredentials is the stored credentials column: plain JSON, or keeper
	// ciphertext when a credentials keeper is configured.
	RawCredentials []byte
	IsActive       bool
	IsDefault      bool
	LastSyncAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fingerprint identifies a configuration version; cached clients are rebuilt when it changes.
func (r *Registrar) Fingerprint() string {
	return fmt.Sprintf("%s:%s:%t:%d", r.Backend, r.Slug, r.IsActive, r.UpdatedAt.UnixNano())
}

// Credential returns a credential value or "".
func (r *Registrar) Credential(key string) string {
	return r.Credentials[key]
}
