package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
)

// Scanner runs one expiry scan.
type Scanner interface {
	Scan(ctx context.Context) (lifecycleUseCase.ScanResult, error)
}

// RunScanExpiring sends expiry warnings and enqueues auto-renewals for every partner.
// Meant to be run from cron.
func RunScanExpiring(
	ctx context.Context,
	scanner Scanner,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("scanning expiring domains")

	result, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan expiring domains: %w", err)
	}

	logger.Info("scan completed",
		slog.Int("partners", result.Partners),
		slog.Int("domains", result.Domains),
		slog.Int("warnings", result.Warnings),
		slog.Int("renewals_queued", result.RenewalsQueued),
		slog.Int("renewals_unsupported", result.RenewalsUnsupported),
		slog.Int("failures", result.Failures),
	)

	if format == "json" {
		return writeJSON(writer, map[string]int{
			"partners":             result.Partners,
			"domains":              result.Domains,
			"warnings":             result.Warnings,
			"renewals_queued":      result.RenewalsQueued,
			"renewals_skipped":     result.RenewalsSkipped,
			"renewals_unsupported": result.RenewalsUnsupported,
			"failures":             result.Failures,
		})
	}

	_, err = fmt.Fprintf(writer,
		"Scanned %d domain(s) across %d partner(s): %d warning(s), %d renewal(s) queued, %d skipped, %d failure(s)\n",
		result.Domains, result.Partners, result.Warnings,
		result.RenewalsQueued, result.RenewalsSkipped, result.Failures,
	)
	return err
}
