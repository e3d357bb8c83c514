package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// settleTimeout bounds the bookkeeping done after a registrar call, which runs even
// when the attempt's own deadline has passed.
const settleTimeout = 15 * time.Second

// Dependencies are the collaborators shared by the lifecycle workflows.
type Dependencies struct {
	TxManager  database.TxManager
	Domains    DomainRepository
	Directory  DirectoryRepository
	Prices     PriceRepository
	Ledger     Ledger
	Registrars RegistrarResolver
	Notifier   Notifier
	Audit      TransitionRecorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// resolveRegistrar picks the domain's registrar, then the partner default, then the
// platform default.
func (d Dependencies) resolveRegistrar(
	ctx context.Context,
	dom *lifecycleDomain.Domain,
) (registrarDomain.Client, error) {
	if dom.RegistrarID != nil {
		return d.Registrars.Resolve(ctx, *dom.RegistrarID)
	}

	partner, err := d.Directory.GetPartner(ctx, dom.PartnerID)
	if err != nil {
		return nil, err
	}
	if partner.DefaultRegistrarID != nil {
		return d.Registrars.Resolve(ctx, *partner.DefaultRegistrarID)
	}

	client, _, err := d.Registrars.ResolveDefault(ctx)
	return client, err
}

// owner loads the client the domain belongs to, nil when none is attached.
func (d Dependencies) owner(ctx context.Context, dom *lifecycleDomain.Domain) (*lifecycleDomain.Client, error) {
	if dom.ClientID == nil {
		return nil, nil
	}
	return d.Directory.GetClient(ctx, dom.PartnerID, *dom.ClientID)
}

// ownerEmail is owner without failing: a missing client only means nobody is notified.
func (d Dependencies) ownerEmail(ctx context.Context, dom *lifecycleDomain.Domain) string {
	client, err := d.owner(ctx, dom)
	if err != nil {
		d.Logger.WarnContext(ctx, "failed to load domain owner",
			slog.String("domain_id", dom.ID.String()),
			slog.Any("error", err),
		)
		return ""
	}
	if client == nil {
		return ""
	}
	return client.Email
}

// notify queues msg once the transition it reports is committed. Undeliverable
// recipients are dropped and a failed enqueue is only logged: the transition stands.
func (d Dependencies) notify(ctx context.Context, logger *slog.Logger, msg notificationDomain.Message) {
	valid, rejected := notificationDomain.FilterRecipients(msg.Recipients)
	if len(rejected) > 0 {
		logger.WarnContext(ctx, "dropping undeliverable notification recipients",
			slog.String("type", string(msg.Type)),
			slog.Int("rejected", len(rejected)),
		)
	}
	if len(valid) == 0 {
		return
	}
	msg.Recipients = valid

	if err := d.Notifier.Notify(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "failed to queue notification",
			slog.String("type", string(msg.Type)),
			slog.String("domain", msg.DomainName),
			slog.Any("error", err),
		)
	}
}

// loadDomain reads the domain of a job. A missing domain can never succeed and is permanent.
func (d Dependencies) loadDomain(ctx context.Context, partnerID, domainID uuid.UUID) (*lifecycleDomain.Domain, error) {
	dom, err := d.Domains.Get(ctx, partnerID, domainID)
	if err != nil {
		if apperrors.Is(err, lifecycleDomain.ErrDomainNotFound) {
			return nil, jobsDomain.Permanent(err)
		}
		return nil, err
	}
	return dom, nil
}

// settleContext detaches ctx from the attempt deadline for post-call bookkeeping.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	if jobsDomain.IsPermanent(err) {
		return true
	}
	return registrarDomain.KindOf(err) == registrarDomain.KindValidationError
}

// resultError turns an unsuccessful result without an error into one.
func resultError(client registrarDomain.Client, result *registrarDomain.OperationResult) error {
	if result == nil {
		return registrarDomain.NewUnknown(client.Name(), "", "registrar returned no result", nil)
	}
	if result.Success() {
		return nil
	}
	return registrarDomain.NewUnknown(client.Name(), "", result.Message(), result.RawResponse())
}

func joinErrors(primary, secondary error) error {
	if secondary == nil {
		return primary
	}
	return errors.Join(primary, secondary)
}
