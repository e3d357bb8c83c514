// Package contracttest holds the behavioural contract every registrar backend must
// satisfy. Backend test packages call Run with a harness for their implementation.
package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// Harness is a backend prepared for the contract run.
type Harness struct {
	Client domain.Client
	// RegisteredDomain already exists at the backend.
	RegisteredDomain string
	// AvailableDomain can be registered.
	AvailableDomain string
	// MissingDomain is valid but unknown to the backend.
	MissingDomain string
}

// Run executes the contract. newHarness is called once per subtest so state does not leak.
func Run(t *testing.T, newHarness func(t *testing.T) Harness) {
	t.Helper()
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		h := newHarness(t)
		assert.NotEmpty(t, h.Client.Name())
	})

	t.Run("TestConnection", func(t *testing.T) {
		h := newHarness(t)

		ok, err := h.Client.TestConnection(ctx)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CheckAvailability", func(t *testing.T) {
		h := newHarness(t)

		available, err := h.Client.CheckAvailability(ctx, h.AvailableDomain)
		require.NoError(t, err)
		assert.True(t, available)

		taken, err := h.Client.CheckAvailability(ctx, h.RegisteredDomain)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("CheckAvailabilityRejectsInvalidName", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.CheckAvailability(ctx, "not a domain")

		assertKind(t, err, domain.KindValidationError)
	})

	t.Run("Register", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.Client.Register(ctx, domain.RegisterRequest{
			Domain:      h.AvailableDomain,
			Years:       1,
			Nameservers: []string{"ns1.example.net", "ns2.example.net"},
			Contacts: map[domain.ContactType]domain.Contact{
				domain.ContactRegistrant: {Name: "Jane Doe", Email: "jane@example.net"},
			},
		})

		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
		assertExpiry(t, result)
		_, hasPrice := result.Get("price")
		assert.True(t, hasPrice)
	})

	t.Run("RegisterRejectsInvalidYears", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.Register(ctx, domain.RegisterRequest{Domain: h.AvailableDomain, Years: 0})

		assertKind(t, err, domain.KindValidationError)
	})

	t.Run("Renew", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.Client.Renew(ctx, h.RegisteredDomain, 1)

		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
		assertExpiry(t, result)
	})

	t.Run("RenewUnknownDomain", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.Renew(ctx, h.MissingDomain, 1)

		assertKind(t, err, domain.KindDomainNotFound)
	})

	t.Run("GetInfo", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.Client.GetInfo(ctx, h.RegisteredDomain)

		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
		assertExpiry(t, result)
	})

	t.Run("GetInfoUnknownDomain", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.GetInfo(ctx, h.MissingDomain)

		assertKind(t, err, domain.KindDomainNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("UpdateNameservers", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.Client.UpdateNameservers(ctx, h.RegisteredDomain,
			[]string{"ns1.example.net", "ns2.example.net"})

		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
	})

	t.Run("UpdateNameserversRejectsSingleServer", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.UpdateNameservers(ctx, h.RegisteredDomain, []string{"ns1.example.net"})

		assertKind(t, err, domain.KindValidationError)
	})

	t.Run("Contacts", func(t *testing.T) {
		h := newHarness(t)

		updated, err := h.Client.UpdateContacts(ctx, h.RegisteredDomain, map[domain.ContactType]domain.Contact{
			domain.ContactAdmin: {Name: "Admin", Email: "admin@example.net"},
		})
		require.NoError(t, err)
		assertSuccess(t, h.Client, updated)

		result, err := h.Client.GetContacts(ctx, h.RegisteredDomain)
		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
		_, ok := result.Get("contacts")
		assert.True(t, ok)
	})

	t.Run("DNSRecords", func(t *testing.T) {
		h := newHarness(t)

		updated, err := h.Client.UpdateDNSRecords(ctx, h.RegisteredDomain, []domain.DNSRecord{
			{Type: "A", Name: "@", Value: "192.0.2.10", TTL: 3600},
		})
		require.NoError(t, err)
		assertSuccess(t, h.Client, updated)

		result, err := h.Client.GetDNSRecords(ctx, h.RegisteredDomain)
		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
		_, ok := result.Get("records")
		assert.True(t, ok)
	})

	t.Run("LockAndUnlock", func(t *testing.T) {
		h := newHarness(t)

		locked, err := h.Client.Lock(ctx, h.RegisteredDomain)
		require.NoError(t, err)
		assert.True(t, locked)

		unlocked, err := h.Client.Unlock(ctx, h.RegisteredDomain)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("LockUnknownDomainIsNotFalse", func(t *testing.T) {
		h := newHarness(t)

		ok, err := h.Client.Lock(ctx, h.MissingDomain)

		assert.False(t, ok)
		assertKind(t, err, domain.KindDomainNotFound)
	})

	t.Run("Transfer", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.Client.Transfer(ctx, h.AvailableDomain, "EPP-CODE-123")

		require.NoError(t, err)
		assertSuccess(t, h.Client, result)
	})

	t.Run("TransferRequiresAuthCode", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.Client.Transfer(ctx, h.AvailableDomain, "")

		assertKind(t, err, domain.KindValidationError)
	})
}

func assertSuccess(t *testing.T, client domain.Client, result *domain.OperationResult) {
	t.Helper()
	require.NotNil(t, result)
	assert.True(t, result.Success())
	assert.Equal(t, client.Name(), result.RegistrarName())
}

func assertExpiry(t *testing.T, result *domain.OperationResult) {
	t.Helper()
	_, err := time.Parse(time.RFC3339, result.String("expires_at"))
	assert.NoError(t, err, "expires_at must be RFC3339")
}

func assertKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	regErr, ok := domain.AsRegistrarError(err)
	require.True(t, ok, "expected *RegistrarError, got %T", err)
	assert.Equal(t, kind, regErr.Kind)
	assert.NotEmpty(t, regErr.Registrar)
}
