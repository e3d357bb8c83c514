package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

type mockDomainUseCase struct {
	mock.Mock
}

func (m *mockDomainUseCase) Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error) {
	args := m.Called(ctx, partnerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycleDomain.Domain), args.Error(1)
}

func (m *mockDomainUseCase) EnqueueRegistration(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*jobsDomain.Job, error) {
	args := m.Called(ctx, partnerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobsDomain.Job), args.Error(1)
}

func (m *mockDomainUseCase) EnqueueRenewal(
	ctx context.Context,
	payload lifecycleDomain.RenewalPayload,
) (*jobsDomain.Job, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobsDomain.Job), args.Error(1)
}

type mockRegistrarUseCase struct {
	mock.Mock
}

func (m *mockRegistrarUseCase) CheckAvailability(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (bool, error) {
	args := m.Called(ctx, registrarID, domainName)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistrarUseCase) GetInfo(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (*registrarDomain.OperationResult, error) {
	args := m.Called(ctx, registrarID, domainName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registrarDomain.OperationResult), args.Error(1)
}

func (m *mockRegistrarUseCase) TestConnection(ctx context.Context, registrarID uuid.UUID) (bool, error) {
	args := m.Called(ctx, registrarID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistrarUseCase) List(ctx context.Context) ([]*registrarDomain.Registrar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*registrarDomain.Registrar), args.Error(1)
}

type mockWalletUseCase struct {
	mock.Mock
}

func (m *mockWalletUseCase) Balance(ctx context.Context, partnerID uuid.UUID) (*walletDomain.Wallet, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*walletDomain.Wallet), args.Error(1)
}

func (m *mockWalletUseCase) Debit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return m.transaction(m.Called(ctx, entry))
}

func (m *mockWalletUseCase) Credit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return m.transaction(m.Called(ctx, entry))
}

func (m *mockWalletUseCase) Refund(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return m.transaction(m.Called(ctx, entry))
}

func (m *mockWalletUseCase) ListTransactions(
	ctx context.Context,
	partnerID uuid.UUID,
	offset, limit int,
) ([]*walletDomain.Transaction, error) {
	args := m.Called(ctx, partnerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*walletDomain.Transaction), args.Error(1)
}

func (m *mockWalletUseCase) transaction(args mock.Arguments) (*walletDomain.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*walletDomain.Transaction), args.Error(1)
}

type mockScanner struct {
	mock.Mock
}

func (m *mockScanner) Scan(ctx context.Context) (lifecycleUseCase.ScanResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(lifecycleUseCase.ScanResult), args.Error(1)
}
