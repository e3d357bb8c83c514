package usecase

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	notificationDomain "github.com/md-riaz/domaindesk/internal/notification/domain"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
)

const day = 24 * time.Hour

// ScannerConfig holds expiry scanner configuration.
type ScannerConfig struct {
	WarningDays       int
	AutoRenewLeadDays int
	// BatchSize caps the domains read per partner and scan.
	BatchSize int
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Partners        int
	Domains         int
	Warnings        int
	RenewalsQueued  int
	RenewalsSkipped int

	// RenewalsUnsupported counts due renewals whose registrar has no auto-renewal.
	RenewalsUnsupported int
	Failures            int
}

// ExpiryScanner warns owners of expiring domains and queues auto-renewals on
// registrars that support them.
type ExpiryScanner struct {
	config  ScannerConfig
	deps    Dependencies
	domains DomainUseCase
}

// NewExpiryScanner creates an ExpiryScanner. Renewals go through domains so they get
// the same checks and de-duplication as API requests.
func NewExpiryScanner(config ScannerConfig, deps Dependencies, domains DomainUseCase) *ExpiryScanner {
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	return &ExpiryScanner{config: config, deps: deps.withDefaults(), domains: domains}
}

// Scan runs once over every partner. Per-domain failures are logged and counted;
// only failing to list partners aborts the scan.
func (s *ExpiryScanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult
	now := s.deps.Now().UTC()
	horizon := max(s.config.WarningDays, s.config.AutoRenewLeadDays)

	partners, err := s.deps.Directory.ListPartners(ctx)
	if err != nil {
		return result, err
	}

	for _, partner := range partners {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Partners++

		domains, err := s.deps.Domains.ListExpiring(ctx, partner.ID, now.Add(time.Duration(horizon)*day), s.config.BatchSize)
		if err != nil {
			s.deps.Logger.ErrorContext(ctx, "failed to list expiring domains",
				slog.String("partner_id", partner.ID.String()),
				slog.Any("error", err),
			)
			result.Failures++
			continue
		}

		for _, dom := range domains {
			result.Domains++
			s.scanDomain(ctx, partner, dom, now, &result)
		}
	}

	s.deps.Logger.InfoContext(ctx, "expiry scan finished",
		slog.Int("partners", result.Partners),
		slog.Int("domains", result.Domains),
		slog.Int("warnings", result.Warnings),
		slog.Int("renewals_queued", result.RenewalsQueued),
		slog.Int("renewals_skipped", result.RenewalsSkipped),
		slog.Int("renewals_unsupported", result.RenewalsUnsupported),
		slog.Int("failures", result.Failures),
	)
	return result, nil
}

func (s *ExpiryScanner) scanDomain(
	ctx context.Context,
	partner *lifecycleDomain.Partner,
	dom *lifecycleDomain.Domain,
	now time.Time,
	result *ScanResult,
) {
	days := dom.DaysUntilExpiry(now)
	logger := s.deps.Logger.With(
		slog.String("domain_id", dom.ID.String()),
		slog.String("domain", dom.Name),
		slog.Int("days_left", days),
	)

	if days <= s.config.WarningDays {
		if err := s.warn(ctx, partner, dom, days); err != nil {
			logger.ErrorContext(ctx, "failed to queue expiry warning", slog.Any("error", err))
			result.Failures++
		} else {
			result.Warnings++
		}
	}

	if !dom.AutoRenew || days > s.config.AutoRenewLeadDays {
		return
	}

	client, err := s.deps.resolveRegistrar(ctx, dom)
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve registrar for auto-renewal", slog.Any("error", err))
		result.Failures++
		return
	}
	if !registrarDomain.ClientSupports(client, registrarDomain.FeatureAutoRenew) {
		logger.WarnContext(ctx, "registrar does not support auto-renewal, renewal not queued",
			slog.String("registrar", client.Name()))
		result.RenewalsUnsupported++
		return
	}

	job, err := s.domains.EnqueueRenewal(ctx, lifecycleDomain.RenewalPayload{
		DomainID:  dom.ID,
		PartnerID: dom.PartnerID,
		Years:     1,
	})
	switch {
	case apperrors.Is(err, jobsDomain.ErrDuplicateJob):
		result.RenewalsSkipped++
	case err != nil:
		logger.ErrorContext(ctx, "failed to queue auto-renewal", slog.Any("error", err))
		result.Failures++
	default:
		logger.InfoContext(ctx, "auto-renewal queued", slog.String("job_id", job.ID.String()))
		result.RenewalsQueued++
	}
}

// warn notifies the domain owner, or the partner when the domain has no client.
func (s *ExpiryScanner) warn(
	ctx context.Context,
	partner *lifecycleDomain.Partner,
	dom *lifecycleDomain.Domain,
	days int,
) error {
	recipient := s.deps.ownerEmail(ctx, dom)
	if recipient == "" {
		recipient = partner.Email
	}
	if recipient == "" {
		return nil
	}

	return s.deps.Notifier.Notify(ctx, notificationDomain.Message{
		Type:       notificationDomain.TypeExpiryWarning,
		Recipients: []string{recipient},
		DomainID:   dom.ID,
		DomainName: dom.Name,
		PartnerID:  &dom.PartnerID,
		Data: map[string]any{
			"days_left":  days,
			"expires_at": dom.ExpiresAt.Format(time.RFC3339),
			"auto_renew": dom.AutoRenew,
		},
	})
}
