package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	"github.com/md-riaz/domaindesk/internal/metrics"
)

const metricsDomain = "lifecycle"

func recordOperation(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// workflowWithMetrics decorates a Workflow with metrics instrumentation.
type workflowWithMetrics struct {
	next      Workflow
	operation string
	metrics   metrics.BusinessMetrics
}

// NewWorkflowWithMetrics wraps a Workflow, recording every attempt under operation.
func NewWorkflowWithMetrics(workflow Workflow, operation string, m metrics.BusinessMetrics) Workflow {
	return &workflowWithMetrics{next: workflow, operation: operation, metrics: m}
}

func (w *workflowWithMetrics) Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error {
	start := time.Now()
	err := w.next.Handle(ctx, payload, attempt)
	recordOperation(ctx, w.metrics, w.operation, start, err)
	return err
}

// domainUseCaseWithMetrics decorates DomainUseCase with metrics instrumentation.
type domainUseCaseWithMetrics struct {
	next    DomainUseCase
	metrics metrics.BusinessMetrics
}

// NewDomainUseCaseWithMetrics wraps a DomainUseCase with metrics recording.
func NewDomainUseCaseWithMetrics(useCase DomainUseCase, m metrics.BusinessMetrics) DomainUseCase {
	return &domainUseCaseWithMetrics{next: useCase, metrics: m}
}

func (d *domainUseCaseWithMetrics) Get(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*lifecycleDomain.Domain, error) {
	start := time.Now()
	dom, err := d.next.Get(ctx, partnerID, domainID)
	recordOperation(ctx, d.metrics, "domain_get", start, err)
	return dom, err
}

func (d *domainUseCaseWithMetrics) EnqueueRegistration(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*jobsDomain.Job, error) {
	start := time.Now()
	job, err := d.next.EnqueueRegistration(ctx, partnerID, domainID)
	recordOperation(ctx, d.metrics, "enqueue_registration", start, err)
	return job, err
}

func (d *domainUseCaseWithMetrics) EnqueueRenewal(
	ctx context.Context,
	payload lifecycleDomain.RenewalPayload,
) (*jobsDomain.Job, error) {
	start := time.Now()
	job, err := d.next.EnqueueRenewal(ctx, payload)
	recordOperation(ctx, d.metrics, "enqueue_renewal", start, err)
	return job, err
}
