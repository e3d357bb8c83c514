package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// ReferenceDomainRenewal tags ledger entries produced by renewals.
const ReferenceDomainRenewal = "domain_renewal"

// RenewalWorkflow renews a domain and charges the partner's wallet for it.
//
// The wallet is debited before the registrar is called. A failed registrar call is
// compensated with a refund of the same amount, except for a timeout, which is first
// reconciled against the registrar's view of the expiry date.
type RenewalWorkflow struct {
	deps Dependencies
}

// NewRenewalWorkflow creates a RenewalWorkflow.
func NewRenewalWorkflow(deps Dependencies) *RenewalWorkflow {
	return &RenewalWorkflow{deps: deps.withDefaults()}
}

// Handle runs one attempt.
func (w *RenewalWorkflow) Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error {
	var p lifecycleDomain.RenewalPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return jobsDomain.Permanent(apperrors.Wrap(err, "invalid renewal payload"))
	}
	years := p.Years
	if years < 1 {
		years = 1
	}

	logger := w.deps.Logger.With(
		slog.String("workflow", "renewal"),
		slog.String("domain_id", p.DomainID.String()),
		slog.String("partner_id", p.PartnerID.String()),
		slog.Int("attempt", attempt.Number),
		slog.Int("max_attempts", attempt.Max),
	)

	dom, err := w.deps.loadDomain(ctx, p.PartnerID, p.DomainID)
	if err != nil {
		return err
	}

	if !dom.Status.Renewable() {
		err := fmt.Errorf("%w: status %s", lifecycleDomain.ErrNotRenewable, dom.Status)
		return w.fail(ctx, logger, dom, attempt, jobsDomain.Permanent(err))
	}
	if !dom.AutoRenew && !p.Force {
		logger.InfoContext(ctx, "auto-renew disabled, skipping renewal", slog.String("domain", dom.Name))
		return nil
	}

	if err := w.renew(ctx, logger, dom, years); err != nil {
		return w.fail(ctx, logger, dom, attempt, err)
	}
	return nil
}

func (w *RenewalWorkflow) renew(ctx context.Context, logger *slog.Logger, dom *lifecycleDomain.Domain, years int) error {
	client, err := w.deps.resolveRegistrar(ctx, dom)
	if err != nil {
		return err
	}

	price, err := w.deps.Prices.RenewalPrice(ctx, dom.PartnerID, dom.TLD(), years)
	if err != nil {
		if apperrors.Is(err, lifecycleDomain.ErrPriceNotFound) {
			return jobsDomain.Permanent(err)
		}
		return err
	}

	entry := walletDomain.Entry{
		PartnerID:   dom.PartnerID,
		Amount:      price.Amount,
		Description: fmt.Sprintf("Renewal of %s for %d year(s)", dom.Name, years),
		Reference:   &walletDomain.Reference{Type: ReferenceDomainRenewal, ID: dom.ID},
	}

	debit, err := w.deps.Ledger.Debit(ctx, entry)
	if err != nil {
		if apperrors.Is(err, walletDomain.ErrInsufficientFunds) || apperrors.Is(err, walletDomain.ErrWalletNotFound) {
			return fmt.Errorf("%w: %w", lifecycleDomain.ErrMissingOrUnderfundedWallet, err)
		}
		return err
	}

	baseline := w.registrarExpiry(ctx, client, dom.Name)
	if baseline == nil {
		logger.WarnContext(ctx, "registrar expiry unavailable before renewal", slog.String("domain", dom.Name))
	}

	result, err := client.Renew(ctx, dom.Name, years)
	if err == nil {
		err = resultError(client, result)
	}
	if err != nil {
		if registrarDomain.KindOf(err) != registrarDomain.KindTimeout {
			return w.compensate(ctx, logger, entry, err)
		}

		renewed, reconcileErr := w.reconcile(ctx, client, dom.Name, baseline)
		if reconcileErr != nil {
			logger.ErrorContext(ctx, "renewal timed out and could not be verified, debit kept",
				slog.String("domain", dom.Name),
				slog.String("transaction_id", debit.ID.String()),
				slog.Any("error", reconcileErr),
			)
			return jobsDomain.Permanent(fmt.Errorf("%w: renewal timed out and could not be verified: %w",
				lifecycleDomain.ErrInconsistentRenewalState, joinErrors(err, reconcileErr)))
		}
		if !renewed {
			return w.compensate(ctx, logger, entry, err)
		}
		logger.WarnContext(ctx, "renewal timed out but was applied by the registrar", slog.String("domain", dom.Name))
	}

	return w.complete(ctx, logger, dom, client.Name(), years, price, debit)
}

// registrarExpiry reads the expiry the registrar holds before the renewal is sent.
// It is nil when the registrar cannot tell.
func (w *RenewalWorkflow) registrarExpiry(
	ctx context.Context,
	client registrarDomain.Client,
	name string,
) *time.Time {
	expiresAt, err := fetchExpiry(ctx, client, name)
	if err != nil {
		return nil
	}
	return &expiresAt
}

// reconcile asks the registrar whether a timed-out renewal was applied, by comparing
// its expiry against the one it reported before the call.
func (w *RenewalWorkflow) reconcile(
	ctx context.Context,
	client registrarDomain.Client,
	name string,
	baseline *time.Time,
) (bool, error) {
	ctx, cancel := settleContext(ctx)
	defer cancel()

	expiresAt, err := fetchExpiry(ctx, client, name)
	if err != nil {
		return false, err
	}
	if baseline == nil {
		return false, apperrors.New("no registrar expiry recorded before the renewal")
	}
	return expiresAt.After(*baseline), nil
}

func fetchExpiry(ctx context.Context, client registrarDomain.Client, name string) (time.Time, error) {
	info, err := client.GetInfo(ctx, name)
	if err == nil {
		err = resultError(client, info)
	}
	if err != nil {
		return time.Time{}, err
	}

	expiresAt, err := time.Parse(time.RFC3339, info.String("expires_at"))
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, "registrar returned no usable expiry")
	}
	return expiresAt, nil
}

// compensate refunds a debit after the registrar refused the renewal.
func (w *RenewalWorkflow) compensate(
	ctx context.Context,
	logger *slog.Logger,
	debit walletDomain.Entry,
	cause error,
) error {
	ctx, cancel := settleContext(ctx)
	defer cancel()

	refund := debit
	refund.Description = "Refund: " + debit.Description

	if _, err := w.deps.Ledger.Refund(ctx, refund); err != nil {
		logger.ErrorContext(ctx, "failed to refund renewal debit",
			slog.String("amount", debit.Amount.String()),
			slog.Any("cause", cause),
			slog.Any("error", err),
		)
		return jobsDomain.Permanent(fmt.Errorf("%w: refund after failed renewal: %w",
			lifecycleDomain.ErrInconsistentRenewalState, joinErrors(cause, err)))
	}

	logger.WarnContext(ctx, "renewal failed, debit refunded",
		slog.String("amount", debit.Amount.String()),
		slog.String("error_kind", string(registrarDomain.KindOf(cause))),
		slog.Any("error", cause),
	)
	return cause
}

func (w *RenewalWorkflow) complete(
	ctx context.Context,
	logger *slog.Logger,
	dom *lifecycleDomain.Domain,
	registrar string,
	years int,
	price Price,
	debit *walletDomain.Transaction,
) error {
	ctx, cancel := settleContext(ctx)
	defer cancel()

	from := dom.Status
	if err := dom.MarkRenewed(w.deps.Now().UTC(), years); err != nil {
		return jobsDomain.Permanent(fmt.Errorf("%w: %w", lifecycleDomain.ErrInconsistentRenewalState, err))
	}

	err := w.deps.TxManager.WithTx(ctx, func(ctx context.Context) error {
		if err := w.deps.Domains.UpdateLifecycle(ctx, dom, from); err != nil {
			return err
		}

		w.deps.Audit.RecordTransition(ctx, auditDomain.Transition{
			DomainID:   dom.ID,
			DomainName: dom.Name,
			PartnerID:  &dom.PartnerID,
			Registrar:  registrar,
			From:       string(from),
			To:         string(dom.Status),
			Reason:     "renewed",
			Metadata: map[string]any{
				"years":          years,
				"amount":         price.Amount.String(),
				"transaction_id": debit.ID.String(),
			},
		})
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "domain renewed and charged but state not stored",
			slog.String("domain", dom.Name),
			slog.String("transaction_id", debit.ID.String()),
			slog.Any("error", err),
		)
		return jobsDomain.Permanent(fmt.Errorf("%w: %w", lifecycleDomain.ErrInconsistentRenewalState, err))
	}

	logger.InfoContext(ctx, "domain renewed",
		slog.String("domain", dom.Name),
		slog.String("registrar", registrar),
		slog.String("cost", price.Amount.String()),
		slog.Time("expires_at", *dom.ExpiresAt),
	)

	if email := w.deps.ownerEmail(ctx, dom); email != "" {
		w.deps.notify(ctx, logger, notificationDomain.Message{
			Type:       notificationDomain.TypeRenewalSucceeded,
			Recipients: []string{email},
			DomainID:   dom.ID,
			DomainName: dom.Name,
			PartnerID:  &dom.PartnerID,
			Data: map[string]any{
				"years":      years,
				"expires_at": dom.ExpiresAt.Format(time.RFC3339),
				"cost":       price.Amount.StringFixed(2),
				"currency":   price.Currency,
			},
		})
	}
	return nil
}

// fail returns cause for a retry, or on the final attempt notifies the client and
// the partner that the renewal will not happen.
func (w *RenewalWorkflow) fail(
	ctx context.Context,
	logger *slog.Logger,
	dom *lifecycleDomain.Domain,
	attempt jobsDomain.Attempt,
	cause error,
) error {
	if !isPermanent(cause) && !attempt.IsFinal() {
		logger.WarnContext(ctx, "renewal attempt failed, will retry",
			slog.String("domain", dom.Name),
			slog.Any("error", cause),
		)
		return cause
	}

	ctx, cancel := settleContext(ctx)
	defer cancel()

	logger.ErrorContext(ctx, "domain renewal failed",
		slog.String("domain", dom.Name),
		slog.String("error_kind", string(registrarDomain.KindOf(cause))),
		slog.Any("error", cause),
	)

	recipients := w.failureRecipients(ctx, dom)
	if len(recipients) == 0 {
		return jobsDomain.Permanent(cause)
	}

	w.deps.notify(ctx, logger, notificationDomain.Message{
		Type:       notificationDomain.TypeAutoRenewalFailed,
		Recipients: recipients,
		DomainID:   dom.ID,
		DomainName: dom.Name,
		PartnerID:  &dom.PartnerID,
		Data:       map[string]any{"attempts": attempt.Number},
		Error:      cause.Error(),
	})
	return jobsDomain.Permanent(cause)
}

func (w *RenewalWorkflow) failureRecipients(ctx context.Context, dom *lifecycleDomain.Domain) []string {
	var recipients []string
	if email := w.deps.ownerEmail(ctx, dom); email != "" {
		recipients = append(recipients, email)
	}

	partner, err := w.deps.Directory.GetPartner(ctx, dom.PartnerID)
	if err != nil {
		w.deps.Logger.WarnContext(ctx, "failed to load partner",
			slog.String("partner_id", dom.PartnerID.String()),
			slog.Any("error", err),
		)
		return recipients
	}
	if partner.Email != "" && !slices.Contains(recipients, partner.Email) {
		recipients = append(recipients, partner.Email)
	}
	return recipients
}
