package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/metrics"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// registrarUseCaseWithMetrics decorates RegistrarUseCase with metrics instrumentation.
type registrarUseCaseWithMetrics struct {
	next    RegistrarUseCase
	metrics metrics.BusinessMetrics
}

// NewRegistrarUseCaseWithMetrics wraps a RegistrarUseCase with metrics recording.
func NewRegistrarUseCaseWithMetrics(useCase RegistrarUseCase, m metrics.BusinessMetrics) RegistrarUseCase {
	return &registrarUseCaseWithMetrics{next: useCase, metrics: m}
}

func (r *registrarUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "registrar_api", operation, status)
	r.metrics.RecordDuration(ctx, "registrar_api", operation, time.Since(start), status)
}

// CheckAvailability records metrics for availability lookups.
func (r *registrarUseCaseWithMetrics) CheckAvailability(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (bool, error) {
	start := time.Now()
	available, err := r.next.CheckAvailability(ctx, registrarID, domainName)
	r.record(ctx, "check_availability", start, err)
	return available, err
}

// GetInfo records metrics for domain info lookups.
func (r *registrarUseCaseWithMetrics) GetInfo(
	ctx context.Context,
	registrarID uuid.UUID,
	domainName string,
) (*domain.OperationResult, error) {
	start := time.Now()
	result, err := r.next.GetInfo(ctx, registrarID, domainName)
	r.record(ctx, "get_info", start, err)
	return result, err
}

// TestConnection records metrics for connection tests.
func (r *registrarUseCaseWithMetrics) TestConnection(ctx context.Context, registrarID uuid.UUID) (bool, error) {
	start := time.Now()
	ok, err := r.next.TestConnection(ctx, registrarID)
	r.record(ctx, "test_connection", start, err)
	return ok, err
}

// List records metrics for registrar listing.
func (r *registrarUseCaseWithMetrics) List(ctx context.Context) ([]*domain.Registrar, error) {
	start := time.Now()
	registrars, err := r.next.List(ctx)
	r.record(ctx, "list", start, err)
	return registrars, err
}
