package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/config"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
)

// JobPolicies holds the retry budgets of the lifecycle jobs.
type JobPolicies struct {
	Registration config.JobSettings
	Renewal      config.JobSettings
}

type domainUseCase struct {
	domains  DomainRepository
	enqueuer JobEnqueuer
	policies JobPolicies
}

// NewDomainUseCase creates a DomainUseCase.
func NewDomainUseCase(domains DomainRepository, enqueuer JobEnqueuer, policies JobPolicies) DomainUseCase {
	return &domainUseCase{
		domains:  domains,
		enqueuer: enqueuer,
		policies: policies,
	}
}

func (d *domainUseCase) Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error) {
	return d.domains.Get(ctx, partnerID, domainID)
}

// EnqueueRegistration queues the registration of a pending domain.
func (d *domainUseCase) EnqueueRegistration(ctx context.Context, partnerID, domainID uuid.UUID) (*jobsDomain.Job, error) {
	dom, err := d.domains.Get(ctx, partnerID, domainID)
	if err != nil {
		return nil, err
	}
	if dom.Status != lifecycleDomain.StatusPendingRegistration {
		return nil, lifecycleDomain.NewInvalidTransitionError(dom.Status, lifecycleDomain.StatusActive)
	}

	return d.enqueuer.Enqueue(ctx, jobsDomain.EnqueueRequest{
		Type: lifecycleDomain.JobTypeRegistration,
		Payload: lifecycleDomain.RegistrationPayload{
			DomainID:  dom.ID,
			PartnerID: dom.PartnerID,
		},
		MaxTries:  d.policies.Registration.MaxTries,
		Timeout:   d.policies.Registration.Timeout,
		Backoff:   d.policies.Registration.Backoff,
		UniqueKey: lifecycleDomain.UniqueKey(lifecycleDomain.JobTypeRegistration, dom.ID),
	})
}

// EnqueueRenewal queues the renewal of a renewable domain. A zero Years renews for one year.
func (d *domainUseCase) EnqueueRenewal(
	ctx context.Context,
	payload lifecycleDomain.RenewalPayload,
) (*jobsDomain.Job, error) {
	dom, err := d.domains.Get(ctx, payload.PartnerID, payload.DomainID)
	if err != nil {
		return nil, err
	}
	if !dom.Status.Renewable() {
		return nil, fmt.Errorf("%w: status %s", lifecycleDomain.ErrNotRenewable, dom.Status)
	}
	if payload.Years < 0 || payload.Years > 10 {
		return nil, lifecycleDomain.ErrInvalidYears
	}
	if payload.Years == 0 {
		payload.Years = 1
	}

	return d.enqueuer.Enqueue(ctx, jobsDomain.EnqueueRequest{
		Type:      lifecycleDomain.JobTypeRenewal,
		Payload:   payload,
		MaxTries:  d.policies.Renewal.MaxTries,
		Timeout:   d.policies.Renewal.Timeout,
		Backoff:   d.policies.Renewal.Backoff,
		UniqueKey: lifecycleDomain.UniqueKey(lifecycleDomain.JobTypeRenewal, dom.ID),
	})
}
