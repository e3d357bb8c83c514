package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

type registrarUseCase struct {
	repo     RegistrarRepository
	resolver Resolver
}

// NewRegistrarUseCase creates a RegistrarUseCase.
func NewRegistrarUseCase(repo RegistrarRepository, resolver Resolver) RegistrarUseCase {
	return &registrarUseCase{repo: repo, resolver: resolver}
}

func (r *registrarUseCase) CheckAvailability(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (bool, error) {
	client, err := r.resolver.Resolve(ctx, registrarID)
	if err != nil {
		return false, err
	}
	return client.CheckAvailability(ctx, domainName)
}

func (r *registrarUseCase) GetInfo(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (*domain.OperationResult, error) {
	client, err := r.resolver.Resolve(ctx, registrarID)
	if err != nil {
		return nil, err
	}
	return client.GetInfo(ctx, domainName)
}

func (r *registrarUseCase) TestConnection(ctx context.Context, registrarID uuid.UUID) (bool, error) {
	client, err := r.resolver.Resolve(ctx, registrarID)
	if err != nil {
		return false, err
	}
	return client.TestConnection(ctx)
}

func (r *registrarUseCase) List(ctx context.Context) ([]*domain.Registrar, error) {
	return r.repo.List(ctx)
}
