package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
)

// RunEnqueueRegistration queues the registration of a pending domain.
func RunEnqueueRegistration(
	ctx context.Context,
	domainUseCase lifecycleUseCase.DomainUseCase,
	logger *slog.Logger,
	writer io.Writer,
	partnerIDStr, domainIDStr, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	partnerID, err := parseID("partner ID", partnerIDStr)
	if err != nil {
		return err
	}

	domainID, err := parseID("domain ID", domainIDStr)
	if err != nil {
		return err
	}

	job, err := domainUseCase.EnqueueRegistration(ctx, partnerID, domainID)
	if err != nil {
		return fmt.Errorf("failed to enqueue registration: %w", err)
	}

	logger.Info("registration enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("domain_id", domainID.String()),
	)

	return outputJob(writer, job, format)
}

// RunEnqueueRenewal queues a renewal. years 0 means one year.
func RunEnqueueRenewal(
	ctx context.Context,
	domainUseCase lifecycleUseCase.DomainUseCase,
	logger *slog.Logger,
	writer io.Writer,
	partnerIDStr, domainIDStr string,
	years int,
	force bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	partnerID, err := parseID("partner ID", partnerIDStr)
	if err != nil {
		return err
	}

	domainID, err := parseID("domain ID", domainIDStr)
	if err != nil {
		return err
	}

	job, err := domainUseCase.EnqueueRenewal(ctx, lifecycleDomain.RenewalPayload{
		DomainID:  domainID,
		PartnerID: partnerID,
		Years:     years,
		Force:     force,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue renewal: %w", err)
	}

	logger.Info("renewal enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("domain_id", domainID.String()),
		slog.Bool("force", force),
	)

	return outputJob(writer, job, format)
}

func outputJob(w io.Writer, job *jobsDomain.Job, format string) error {
	if format == "json" {
		return writeJSON(w, map[string]any{
			"job_id":       job.ID.String(),
			"type":         job.Type,
			"status":       string(job.Status),
			"max_tries":    job.MaxTries,
			"available_at": job.AvailableAt.UTC().Format(time.RFC3339),
		})
	}

	_, err := fmt.Fprintf(w, "Job %s (%s) queued, available at %s\n",
		job.ID, job.Type, job.AvailableAt.UTC().Format(time.RFC3339))
	return err
}
