package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// MockTxManager runs fn inline unless an error is configured.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error) {
	args := m.Called(ctx, partnerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Workflows mutate the domain; hand out a copy like a repository would.
	dom := *args.Get(0).(*lifecycleDomain.Domain)
	return &dom, args.Error(1)
}

func (m *MockDomainRepository) UpdateLifecycle(
	ctx context.Context,
	d *lifecycleDomain.Domain,
	from lifecycleDomain.Status,
) error {
	args := m.Called(ctx, d, from)
	return args.Error(0)
}

func (m *MockDomainRepository) ListExpiring(
	ctx context.Context,
	partnerID uuid.UUID,
	before time.Time,
	limit int,
) ([]*lifecycleDomain.Domain, error) {
	args := m.Called(ctx, partnerID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lifecycleDomain.Domain), args.Error(1)
}

type MockDirectoryRepository struct {
	mock.Mock
}

func (m *MockDirectoryRepository) GetPartner(ctx context.Context, partnerID uuid.UUID) (*lifecycleDomain.Partner, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycleDomain.Partner), args.Error(1)
}

func (m *MockDirectoryRepository) GetClient(
	ctx context.Context,
	partnerID, clientID uuid.UUID,
) (*lifecycleDomain.Client, error) {
	args := m.Called(ctx, partnerID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycleDomain.Client), args.Error(1)
}

func (m *MockDirectoryRepository) ListPartners(ctx context.Context) ([]*lifecycleDomain.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lifecycleDomain.Partner), args.Error(1)
}

type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) RenewalPrice(ctx context.Context, partnerID uuid.UUID, tld string, years int) (Price, error) {
	args := m.Called(ctx, partnerID, tld, years)
	return args.Get(0).(Price), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Debit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*walletDomain.Transaction), args.Error(1)
}

func (m *MockLedger) Refund(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*walletDomain.Transaction), args.Error(1)
}

// staticResolver always resolves to the same client.
type staticResolver struct {
	client registrarDomain.Client
	err    error
}

func (r *staticResolver) Resolve(ctx context.Context, registrarID uuid.UUID) (registrarDomain.Client, error) {
	return r.client, r.err
}

func (r *staticResolver) ResolveDefault(
	ctx context.Context,
) (registrarDomain.Client, *registrarDomain.Registrar, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	return r.client, &registrarDomain.Registrar{Name: r.client.Name()}, nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notificationDomain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockTransitionRecorder struct {
	mock.Mock
}

func (m *MockTransitionRecorder) RecordTransition(ctx context.Context, transition auditDomain.Transition) {
	m.Called(ctx, transition)
}

type MockJobEnqueuer struct {
	mock.Mock
}

func (m *MockJobEnqueuer) Enqueue(ctx context.Context, req jobsDomain.EnqueueRequest) (*jobsDomain.Job, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobsDomain.Job), args.Error(1)
}

type MockDomainUseCase struct {
	mock.Mock
}

func (m *MockDomainUseCase) Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error) {
	args := m.Called(ctx, partnerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycleDomain.Domain), args.Error(1)
}

func (m *MockDomainUseCase) EnqueueRegistration(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*jobsDomain.Job, error) {
	args := m.Called(ctx, partnerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobsDomain.Job), args.Error(1)
}

func (m *MockDomainUseCase) EnqueueRenewal(
	ctx context.Context,
	payload lifecycleDomain.RenewalPayload,
) (*jobsDomain.Job, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobsDomain.Job), args.Error(1)
}

type MockBusinessMetrics struct {
	mock.Mock
}

func (m *MockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *MockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

// fixture bundles the collaborators of a workflow under test.
type fixture struct {
	tx        *MockTxManager
	domains   *MockDomainRepository
	directory *MockDirectoryRepository
	prices    *MockPriceRepository
	ledger    *MockLedger
	notifier  *MockNotifier
	audit     *MockTransitionRecorder
	resolver  *staticResolver
	now       time.Time
}

func newFixture(client registrarDomain.Client, now time.Time) *fixture {
	return &fixture{
		tx:        &MockTxManager{},
		domains:   &MockDomainRepository{},
		directory: &MockDirectoryRepository{},
		prices:    &MockPriceRepository{},
		ledger:    &MockLedger{},
		notifier:  &MockNotifier{},
		audit:     &MockTransitionRecorder{},
		resolver:  &staticResolver{client: client},
		now:       now,
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		TxManager:  f.tx,
		Domains:    f.domains,
		Directory:  f.directory,
		Prices:     f.prices,
		Ledger:     f.ledger,
		Registrars: f.resolver,
		Notifier:   f.notifier,
		Audit:      f.audit,
		Now:        func() time.Time { return f.now },
	}
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.tx.AssertExpectations(t)
	f.domains.AssertExpectations(t)
	f.directory.AssertExpectations(t)
	f.prices.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}
