package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// RegistrationWorkflow registers a pending domain at its registrar.
type RegistrationWorkflow struct {
	deps Dependencies
}

// NewRegistrationWorkflow creates a RegistrationWorkflow.
func NewRegistrationWorkflow(deps Dependencies) *RegistrationWorkflow {
	return &RegistrationWorkflow{deps: deps.withDefaults()}
}

// Handle runs one attempt. A domain that is already active is a no-op, so redelivery
// of a completed job is harmless. On the final attempt, or a failure no retry can fix,
// the domain is marked registration_failed and its owner is notified once.
func (w *RegistrationWorkflow) Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error {
	var p lifecycleDomain.RegistrationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return jobsDomain.Permanent(apperrors.Wrap(err, "invalid registration payload"))
	}

	logger := w.deps.Logger.With(
		slog.String("workflow", "registration"),
		slog.String("domain_id", p.DomainID.String()),
		slog.String("partner_id", p.PartnerID.String()),
		slog.Int("attempt", attempt.Number),
		slog.Int("max_attempts", attempt.Max),
	)

	dom, err := w.deps.loadDomain(ctx, p.PartnerID, p.DomainID)
	if err != nil {
		return err
	}

	switch dom.Status {
	case lifecycleDomain.StatusActive:
		logger.InfoContext(ctx, "domain already registered")
		return nil
	case lifecycleDomain.StatusPendingRegistration:
	default:
		return jobsDomain.Permanent(lifecycleDomain.NewInvalidTransitionError(dom.Status, lifecycleDomain.StatusActive))
	}

	result, registrar, err := w.register(ctx, logger, dom, attempt)
	if err != nil {
		return w.fail(ctx, logger, dom, registrar, attempt, err)
	}
	return w.succeed(ctx, logger, dom, registrar, result)
}

// register submits the domain. A registration whose outcome is unknown, or a retry of
// one, is first checked against the registrar: the domain may already be ours.
func (w *RegistrationWorkflow) register(
	ctx context.Context,
	logger *slog.Logger,
	dom *lifecycleDomain.Domain,
	attempt jobsDomain.Attempt,
) (*registrarDomain.OperationResult, string, error) {
	client, err := w.deps.resolveRegistrar(ctx, dom)
	if err != nil {
		return nil, "", err
	}

	if attempt.Number > 1 {
		if info, ok := w.heldByRegistrar(ctx, client, dom.Name); ok {
			logger.WarnContext(ctx, "domain already held at the registrar, completing registration",
				slog.String("domain", dom.Name))
			return info, client.Name(), nil
		}
	}

	owner, err := w.deps.owner(ctx, dom)
	if err != nil {
		return nil, client.Name(), err
	}

	contacts := map[registrarDomain.ContactType]registrarDomain.Contact{}
	if owner != nil {
		contact := owner.Contact()
		for _, role := range []registrarDomain.ContactType{
			registrarDomain.ContactRegistrant,
			registrarDomain.ContactAdmin,
			registrarDomain.ContactTech,
			registrarDomain.ContactBilling,
		} {
			contacts[role] = contact
		}
	}

	result, err := client.Register(ctx, registrarDomain.RegisterRequest{
		Domain:      dom.Name,
		Years:       dom.Term(),
		Nameservers: dom.Nameservers,
		Contacts:    contacts,
	})
	if err == nil {
		err = resultError(client, result)
	}
	if registrarDomain.KindOf(err) == registrarDomain.KindTimeout {
		if info, ok := w.heldByRegistrar(ctx, client, dom.Name); ok {
			logger.WarnContext(ctx, "registration timed out but was applied by the registrar",
				slog.String("domain", dom.Name))
			return info, client.Name(), nil
		}
	}
	return result, client.Name(), err
}

// heldByRegistrar looks the domain up at the registrar. Any failure counts as not held.
func (w *RegistrationWorkflow) heldByRegistrar(
	ctx context.Context,
	client registrarDomain.Client,
	name string,
) (*registrarDomain.OperationResult, bool) {
	ctx, cancel := settleContext(ctx)
	defer cancel()

	info, err := client.GetInfo(ctx, name)
	if err != nil || info == nil || !info.Success() {
		return nil, false
	}
	return info, true
}

func (w *RegistrationWorkflow) succeed(
	ctx context.Context,
	logger *slog.Logger,
	dom *lifecycleDomain.Domain,
	registrar string,
	result *registrarDomain.OperationResult,
) error {
	ctx, cancel := settleContext(ctx)
	defer cancel()

	from := dom.Status
	if err := dom.MarkRegistered(w.deps.Now().UTC()); err != nil {
		return jobsDomain.Permanent(err)
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
			Reason:     "registered",
		})
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "domain registered but state not stored", slog.Any("error", err))
		return jobsDomain.Permanent(fmt.Errorf("%w: %w", lifecycleDomain.ErrInconsistentRegistrationState, err))
	}

	logger.InfoContext(ctx, "domain registered",
		slog.String("domain", dom.Name),
		slog.String("registrar", registrar),
		slog.Time("expires_at", *dom.ExpiresAt),
	)

	if email := w.deps.ownerEmail(ctx, dom); email != "" {
		w.deps.notify(ctx, logger, notificationDomain.Message{
			Type:       notificationDomain.TypeRegistrationSucceeded,
			Recipients: []string{email},
			DomainID:   dom.ID,
			DomainName: dom.Name,
			PartnerID:  &dom.PartnerID,
			Data: map[string]any{
				"registrar":     registrar,
				"years":         dom.Term(),
				"registered_at": dom.RegisteredAt.Format(time.RFC3339),
				"expires_at":    dom.ExpiresAt.Format(time.RFC3339),
				"price":         result.Data()["price"],
			},
		})
	}
	return nil
}

func (w *RegistrationWorkflow) fail(
	ctx context.Context,
	logger *slog.Logger,
	dom *lifecycleDomain.Domain,
	registrar string,
	attempt jobsDomain.Attempt,
	cause error,
) error {
	permanent := isPermanent(cause)
	if !permanent && !attempt.IsFinal() {
		logger.WarnContext(ctx, "registration attempt failed, will retry",
			slog.String("domain", dom.Name),
			slog.String("error_kind", string(registrarDomain.KindOf(cause))),
			slog.Any("error", cause),
		)
		return cause
	}

	ctx, cancel := settleContext(ctx)
	defer cancel()

	from := dom.Status
	if err := dom.MarkRegistrationFailed(); err != nil {
		return jobsDomain.Permanent(joinErrors(cause, err))
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
			Reason:     cause.Error(),
		})
		return nil
	})

	logger.ErrorContext(ctx, "domain registration failed",
		slog.String("domain", dom.Name),
		slog.String("error_kind", string(registrarDomain.KindOf(cause))),
		slog.Any("error", cause),
	)
	if err != nil {
		logger.ErrorContext(ctx, "failed to record registration failure", slog.Any("error", err))
		return jobsDomain.Permanent(joinErrors(cause, err))
	}

	if email := w.deps.ownerEmail(ctx, dom); email != "" {
		w.deps.notify(ctx, logger, notificationDomain.Message{
			Type:       notificationDomain.TypeRegistrationFailed,
			Recipients: []string{email},
			DomainID:   dom.ID,
			DomainName: dom.Name,
			PartnerID:  &dom.PartnerID,
			Data:       map[string]any{"attempts": attempt.Number},
			Error:      cause.Error(),
		})
	}
	return jobsDomain.Permanent(cause)
}
