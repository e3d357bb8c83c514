// Package usecase implements the domain lifecycle: the registration and renewal
// workflows run by the job worker, the expiry scanner and the enqueueing API.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// DomainRepository persists domains. Every method is scoped to a partner.
type DomainRepository interface {
	Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error)

	// UpdateLifecycle stores status, registered_at and expires_at of d provided the
	// stored status still equals from. Returns ErrStaleDomain otherwise.
	UpdateLifecycle(ctx context.Context, d *lifecycleDomain.Domain, from lifecycleDomain.Status) error

	// ListExpiring returns renewable domains of the partner expiring before the given time,
	// soonest first.
	ListExpiring(
		ctx context.Context,
		partnerID uuid.UUID,
		before time.Time,
		limit int,
	) ([]*lifecycleDomain.Domain, error)
}

// DirectoryRepository reads partners and their clients.
type DirectoryRepository interface {
	GetPartner(ctx context.Context, partnerID uuid.UUID) (*lifecycleDomain.Partner, error)
	GetClient(ctx context.Context, partnerID, clientID uuid.UUID) (*lifecycleDomain.Client, error)
	ListPartners(ctx context.Context) ([]*lifecycleDomain.Partner, error)
}

// Price is a quote in the wallet currency.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// PriceRepository quotes TLD prices for a partner.
type PriceRepository interface {
	// RenewalPrice returns the cost of renewing a domain under tld for years.
	// Returns ErrPriceNotFound when no price is configured.
	RenewalPrice(ctx context.Context, partnerID uuid.UUID, tld string, years int) (Price, error)
}

// Ledger moves money for the workflows.
type Ledger interface {
	Debit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error)
	Refund(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error)
}

// RegistrarResolver returns registrar clients.
type RegistrarResolver interface {
	Resolve(ctx context.Context, registrarID uuid.UUID) (registrarDomain.Client, error)
	ResolveDefault(ctx context.Context) (registrarDomain.Client, *registrarDomain.Registrar, error)
}

// TransitionRecorder audits status changes.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, transition auditDomain.Transition)
}

// JobEnqueuer adds jobs to the queue.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, req jobsDomain.EnqueueRequest) (*jobsDomain.Job, error)
}

// Workflow is a job handler driving one domain through a lifecycle step.
type Workflow interface {
	Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error
}

// DomainUseCase enqueues lifecycle work and reads domains for the API and CLI.
type DomainUseCase interface {
	Get(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error)
	EnqueueRegistration(ctx context.Context, partnerID, domainID uuid.UUID) (*jobsDomain.Job, error)
	EnqueueRenewal(
		ctx context.Context,
		payload lifecycleDomain.RenewalPayload,
	) (*jobsDomain.Job, error)
}

// Notifier queues notifications. Writes join the transaction carried by ctx.
type Notifier interface {
	Notify(ctx context.Context, msg notificationDomain.Message) error
}
