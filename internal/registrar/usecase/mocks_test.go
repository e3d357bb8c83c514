package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

type MockRegistrarRepository struct {
	mock.Mock
}

func (m *MockRegistrarRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Registrar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registrar), args.Error(1)
}

func (m *MockRegistrarRepository) GetDefault(ctx context.Context) (*domain.Registrar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registrar), args.Error(1)
}

func (m *MockRegistrarRepository) List(ctx context.Context) ([]*domain.Registrar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Registrar), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, registrarID uuid.UUID) (domain.Client, error) {
	args := m.Called(ctx, registrarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Client), args.Error(1)
}

func (m *MockResolver) ResolveDefault(ctx context.Context) (domain.Client, *domain.Registrar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(domain.Client), args.Get(1).(*domain.Registrar), args.Error(2)
}
