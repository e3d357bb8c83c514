package domain

import (
	"fmt"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// Lifecycle errors.
var (
	// ErrDomainNotFound indicates the partner owns no domain with the given id.
	ErrDomainNotFound = apperrors.Wrap(apperrors.ErrNotFound, "domain not found")

	// ErrClientNotFound indicates the partner has no client with the given id.
	ErrClientNotFound = apperrors.Wrap(apperrors.ErrNotFound, "client not found")

	// ErrPartnerNotFound indicates no partner with the given id exists.
	ErrPartnerNotFound = apperrors.Wrap(apperrors.ErrNotFound, "partner not found")

	// ErrPriceNotFound indicates no price is configured for the TLD.
	ErrPriceNotFound = apperrors.Wrap(apperrors.ErrNotFound, "price not found")

	// ErrInvalidTransition indicates the state machine forbids the requested status change.
	ErrInvalidTransition = apperrors.Wrap(apperrors.ErrConflict, "invalid status transition")

	// ErrNotRenewable indicates the domain's status does not allow renewal.
	ErrNotRenewable = apperrors.Wrap(apperrors.ErrConflict, "domain is not renewable")

	// ErrInvalidYears indicates a term outside 1..10 years.
	ErrInvalidYears = apperrors.Wrap(apperrors.ErrInvalidInput, "years must be between 1 and 10")

	// ErrStaleDomain indicates the domain changed status while a workflow was running.
	ErrStaleDomain = apperrors.Wrap(apperrors.ErrConflict, "domain status changed concurrently")

	// ErrMissingRegistrarConfiguration indicates no usable registrar could be resolved for the domain.
	ErrMissingRegistrarConfiguration = registrarDomain.ErrMissingRegistrarConfiguration

	// ErrMissingOrUnderfundedWallet indicates the partner has no wallet or cannot pay.
	ErrMissingOrUnderfundedWallet = apperrors.Wrap(walletDomain.ErrInsufficientFunds, "missing or underfunded wallet")

	// ErrInconsistentRenewalState indicates the registrar and the ledger may disagree
	// about a renewal and an operator must reconcile them.
	ErrInconsistentRenewalState = apperrors.Wrap(apperrors.ErrConflict, "inconsistent renewal state")

	// ErrInconsistentRegistrationState indicates the registrar registered the domain
	// but the new state could not be stored.
	ErrInconsistentRegistrationState = apperrors.Wrap(apperrors.ErrConflict, "inconsistent registration state")
)

// NewInvalidTransitionError describes a forbidden status change.
func NewInvalidTransitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
