// Package usecase resolves registrar configuration records into ready-to-use
// registrar clients and exposes registrar lookups to the API and CLI.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// RegistrarRepository reads registrar configuration records.
type RegistrarRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Registrar, error)
	GetDefault(ctx context.Context) (*domain.Registrar, error)
	List(ctx context.Context) ([]*domain.Registrar, error)
}

// Resolver turns registrar ids into clients.
type Resolver interface {
	Resolve(ctx context.Context, registrarID uuid.UUID) (domain.Client, error)
	ResolveDefault(ctx context.Context) (domain.Client, *domain.Registrar, error)
}

// RegistrarUseCase exposes registrar lookups.
type RegistrarUseCase interface {
	CheckAvailability(ctx context.Context, registrarID uuid.UUID, domainName string) (bool, error)
	GetInfo(ctx context.Context, registrarID uuid.UUID, domainName string) (*domain.OperationResult, error)
	TestConnection(ctx context.Context, registrarID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*domain.Registrar, error)
}
