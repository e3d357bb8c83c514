package usecase

import (
	"context"
	"fmt"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// featureGuard rejects calls to optional capabilities the backend lacks without
// reaching the backend.
type featureGuard struct {
	domain.Client
	features domain.Features
}

// NewFeatureGuard wraps client so unsupported features fail with ErrFeatureNotSupported.
func NewFeatureGuard(client domain.Client, features domain.Features) domain.Client {
	return &featureGuard{Client: client, features: features}
}

// Features reports the capabilities the guard enforces.
func (g *featureGuard) Features() domain.Features {
	return g.features
}

func (g *featureGuard) require(feature domain.Feature) error {
	if g.features.Supports(feature) {
		return nil
	}
	return fmt.Errorf("%s does not support %s: %w", g.Name(), feature, domain.ErrFeatureNotSupported)
}

func (g *featureGuard) Register(ctx context.Context, req domain.RegisterRequest) (*domain.OperationResult, error) {
	if req.Privacy {
		if err := g.require(domain.FeaturePrivacy); err != nil {
			return nil, err
		}
	}
	return g.Client.Register(ctx, req)
}

func (g *featureGuard) Transfer(ctx context.Context, name, authCode string) (*domain.OperationResult, error) {
	if err := g.require(domain.FeatureTransfers); err != nil {
		return nil, err
	}
	return g.Client.Transfer(ctx, name, authCode)
}

func (g *featureGuard) GetDNSRecords(ctx context.Context, name string) (*domain.OperationResult, error) {
	if err := g.require(domain.FeatureDNS); err != nil {
		return nil, err
	}
	return g.Client.GetDNSRecords(ctx, name)
}

func (g *featureGuard) UpdateDNSRecords(
	ctx context.Context,
	name string,
	records []domain.DNSRecord,
) (*domain.OperationResult, error) {
	if err := g.require(domain.FeatureDNS); err != nil {
		return nil, err
	}
	return g.Client.UpdateDNSRecords(ctx, name, records)
}

func (g *featureGuard) Lock(ctx context.Context, name string) (bool, error) {
	if err := g.require(domain.FeatureLocking); err != nil {
		return false, err
	}
	return g.Client.Lock(ctx, name)
}

func (g *featureGuard) Unlock(ctx context.Context, name string) (bool, error) {
	if err := g.require(domain.FeatureLocking); err != nil {
		return false, err
	}
	return g.Client.Unlock(ctx, name)
}
