package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/config"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/metrics"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
	"github.com/md-riaz/domaindesk/internal/registrar/service"
)

// Constructor builds a backend client for a registrar record whose credentials are decoded.
type Constructor func(reg *domain.Registrar, rt *service.Runtime) (domain.Client, error)

// RuntimeBuilder builds the cross-cutting runtime of a registrar, applying per-slug
// overrides to the configured defaults.
type RuntimeBuilder struct {
	Settings func(slug string) config.RegistrarSettings
	Windows  service.WindowStore
	Cache    *service.Cache
	Logger   *slog.Logger
	Metrics  metrics.BusinessMetrics
	Recorder service.ErrorRecorder
}

// Build creates the runtime of reg.
func (b *RuntimeBuilder) Build(reg *domain.Registrar) *service.Runtime {
	opts := []service.Option{service.WithScope(reg.Slug)}

	if b.Settings != nil {
		settings := b.Settings(reg.Slug)
		opts = append(opts, service.WithTimeout(settings.Timeout))
		if b.Windows != nil {
			opts = append(opts, service.WithRateLimiter(
				service.NewRateLimiter(b.Windows, settings.RateLimitMaxAttempts, settings.RateLimitDecay),
			))
		}
	}
	if b.Cache != nil {
		opts = append(opts, service.WithCache(b.Cache))
	}
	if b.Logger != nil {
		opts = append(opts, service.WithLogger(b.Logger))
	}
	if b.Metrics != nil {
		opts = append(opts, service.WithMetrics(b.Metrics))
	}
	if b.Recorder != nil {
		opts = append(opts, service.WithErrorRecorder(b.Recorder))
	}

	return service.NewRuntime(reg.Name, opts...)
}

type resolvedClient struct {
	fingerprint string
	client      domain.Client
}

// Factory resolves registrar ids into feature-guarded clients. Clients are cached per
// registrar and rebuilt when the record's fingerprint changes.
type Factory struct {
	repo         RegistrarRepository
	decoder      CredentialDecoder
	runtimes     *RuntimeBuilder
	constructors map[string]Constructor
	logger       *slog.Logger

	mu      sync.Mutex
	clients map[uuid.UUID]resolvedClient
}

// NewFactory creates a Factory. constructors maps backend ids to their constructor.
func NewFactory(
	repo RegistrarRepository,
	decoder CredentialDecoder,
	runtimes *RuntimeBuilder,
	constructors map[string]Constructor,
	logger *slog.Logger,
) *Factory {
	if decoder == nil {
		decoder = PlainCredentialDecoder{}
	}
	if runtimes == nil {
		runtimes = &RuntimeBuilder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		repo:         repo,
		decoder:      decoder,
		runtimes:     runtimes,
		constructors: maps.Clone(constructors),
		logger:       logger,
		clients:      make(map[uuid.UUID]resolvedClient),
	}
}

// Backends returns the registered backend ids, sorted.
func (f *Factory) Backends() []string {
	return slices.Sorted(maps.Keys(f.constructors))
}

// Resolve returns the client of the registrar registrarID.
func (f *Factory) Resolve(ctx context.Context, registrarID uuid.UUID) (domain.Client, error) {
	reg, err := f.repo.Get(ctx, registrarID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrMissingRegistrarConfiguration, domain.ErrRegistrarNotFound)
		}
		return nil, err
	}
	return f.ResolveRegistrar(ctx, reg)
}

// ResolveDefault returns the client of the default registrar.
func (f *Factory) ResolveDefault(ctx context.Context) (domain.Client, *domain.Registrar, error) {
	reg, err := f.repo.GetDefault(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: no default registrar", domain.ErrMissingRegistrarConfiguration)
		}
		return nil, nil, err
	}

	client, err := f.ResolveRegistrar(ctx, reg)
	if err != nil {
		return nil, nil, err
	}
	return client, reg, nil
}

// ResolveRegistrar returns the client of an already loaded registrar record.
func (f *Factory) ResolveRegistrar(ctx context.Context, reg *domain.Registrar) (domain.Client, error) {
	if !reg.IsActive {
		return nil, fmt.Errorf("%w: %w", domain.ErrMissingRegistrarConfiguration, domain.ErrRegistrarInactive)
	}

	fingerprint := reg.Fingerprint()

	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.clients[reg.ID]; ok && cached.fingerprint == fingerprint {
		return cached.client, nil
	}

	client, err := f.build(ctx, reg)
	if err != nil {
		return nil, err
	}

	f.clients[reg.ID] = resolvedClient{fingerprint: fingerprint, client: client}
	f.logger.InfoContext(ctx, "registrar client built",
		slog.String("registrar_id", reg.ID.String()),
		slog.String("backend", reg.Backend),
		slog.String("slug", reg.Slug),
	)
	return client, nil
}

// Invalidate drops the cached client of registrarID.
func (f *Factory) Invalidate(registrarID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, registrarID)
}

func (f *Factory) build(ctx context.Context, reg *domain.Registrar) (domain.Client, error) {
	constructor, ok := f.constructors[reg.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", domain.ErrMissingRegistrarConfiguration, domain.ErrUnknownBackend, reg.Backend)
	}

	if reg.Credentials == nil {
		creds, err := f.decoder.Decode(ctx, reg.RawCredentials)
		if err != nil {
			return nil, err
		}
		decoded := *reg
		decoded.Credentials = creds
		reg = &decoded
	}

	client, err := constructor(reg, f.runtimes.Build(reg))
	if err != nil {
		return nil, err
	}
	return NewFeatureGuard(client, domain.FeaturesFor(reg.Backend)), nil
}
