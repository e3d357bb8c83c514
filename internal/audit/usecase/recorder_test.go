package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	registrarService "github.com/md-riaz/domaindesk/internal/registrar/service"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

func TestRecorder_RecordRegistrarError(t *testing.T) {
	repo := &MockAuditRepository{}
	recorder := NewRecorder(repo, slog.New(slog.DiscardHandler))

	var captured *auditDomain.Entry
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Entry")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*auditDomain.Entry)
		}).
		Return(nil).Once()

	regErr := registrarDomain.NewUnknown("mock", "E42", "registry rejected the request", nil)
	recorder.RecordRegistrarError(context.Background(), "mock", "register", map[string]any{
		"domain":  "example.com",
		"api_key": "super-secret",
		"years":   1,
	}, regErr)

	require.NotNil(t, captured)
	assert.NotEqual(t, uuid.Nil, captured.ID)
	assert.False(t, captured.CreatedAt.IsZero())
	assert.Equal(t, auditDomain.EventRegistrarError, captured.EventType)
	assert.Equal(t, "mock", captured.Registrar)
	assert.Equal(t, "register", captured.Operation)
	assert.Equal(t, string(registrarDomain.KindUnknown), captured.ErrorKind)
	assert.Equal(t, "E42", captured.ErrorCode)
	assert.Equal(t, "example.com", captured.DomainName)

	params := captured.Metadata["params"].(map[string]any)
	assert.Equal(t, registrarService.Redacted, params["api_key"])
	assert.Equal(t, 1, params["years"])
	repo.AssertExpectations(t)
}

func TestRecorder_RecordTransition(t *testing.T) {
	repo := &MockAuditRepository{}
	recorder := NewRecorder(repo, slog.New(slog.DiscardHandler))
	domainID := uuid.New()
	partnerID := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *auditDomain.Entry) bool {
		return e.EventType == auditDomain.EventStatusTransition &&
			*e.DomainID == domainID &&
			*e.PartnerID == partnerID &&
			e.FromStatus == "pending_registration" &&
			e.ToStatus == "active" &&
			e.Message == "registered"
	})).Return(nil).Once()

	recorder.RecordTransition(context.Background(), auditDomain.Transition{
		DomainID:   domainID,
		DomainName: "example.com",
		PartnerID:  &partnerID,
		Registrar:  "mock",
		From:       "pending_registration",
		To:         "active",
		Reason:     "registered",
	})

	repo.AssertExpectations(t)
}

func TestRecorder_WriteFailureIsLoggedNotReturned(t *testing.T) {
	repo := &MockAuditRepository{}
	var buf bytes.Buffer
	recorder := NewRecorder(repo, slog.New(slog.NewJSONHandler(&buf, nil)))

	var writeErr error
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			writeErr = args.Get(0).(context.Context).Err()
		}).
		Return(errors.New("disk full"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		recorder.RecordTransition(ctx, auditDomain.Transition{DomainID: uuid.New(), From: "active", To: "expired"})
	})

	assert.NoError(t, writeErr)
	assert.Contains(t, buf.String(), "failed to write audit entry")
	assert.Contains(t, buf.String(), "disk full")
}

func TestRecorder_ListDefaultsLimit(t *testing.T) {
	repo := &MockAuditRepository{}
	recorder := NewRecorder(repo, nil)
	entries := []*auditDomain.Entry{{EventType: auditDomain.EventRegistrarError}}

	repo.On("List", mock.Anything, auditDomain.Filter{Limit: 50}).Return(entries, nil)

	got, err := recorder.List(context.Background(), auditDomain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
