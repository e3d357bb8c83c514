package usecase

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

type enqueuer struct {
	repo   JobRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewEnqueuer creates an Enqueuer writing to repo. Enqueueing inside a caller's
// transaction makes the job visible only once that transaction commits.
func NewEnqueuer(repo JobRepository, logger *slog.Logger) Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &enqueuer{repo: repo, logger: logger, now: time.Now}
}

func (e *enqueuer) Enqueue(ctx context.Context, req jobsDomain.EnqueueRequest) (*jobsDomain.Job, error) {
	job, err := jobsDomain.NewJob(req, e.now().UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode job payload")
	}

	if err := e.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.String("queue", job.Queue),
		slog.Int("max_tries", job.MaxTries),
	)
	return job, nil
}
