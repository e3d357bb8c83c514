// Package usecase runs the durable job queue: enqueueing, claiming, executing and
// settling jobs with at-least-once delivery.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

// JobRepository defines persistence operations for jobs.
// Implementations must support transaction-aware operations via context propagation.
type JobRepository interface {
	// Create stores a pending job. Returns ErrDuplicateJob when its unique key is
	// already held by a pending or running job.
	Create(ctx context.Context, job *jobsDomain.Job) error

	// Get retrieves a job by ID. Returns ErrJobNotFound if not found.
	Get(ctx context.Context, id uuid.UUID) (*jobsDomain.Job, error)

	// Claim locks up to limit available jobs of queue, skipping rows locked by other
	// workers, and marks them running with one more attempt.
	Claim(ctx context.Context, queue string, limit int, now time.Time) ([]*jobsDomain.Job, error)

	// Reclaim returns running jobs whose reservation outlived their timeout plus
	// grace to pending. Returns the number of reclaimed jobs.
	Reclaim(ctx context.Context, now time.Time, grace time.Duration) (int64, error)

	// Complete marks a job completed.
	Complete(ctx context.Context, id uuid.UUID, now time.Time) error

	// Release returns a job to pending for another attempt at availableAt.
	Release(ctx context.Context, id uuid.UUID, availableAt time.Time, lastError string) error

	// Fail marks a job failed for good.
	Fail(ctx context.Context, id uuid.UUID, now time.Time, lastError string) error
}

// Handler executes the jobs of one type.
type Handler interface {
	Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, payload []byte, attempt jobsDomain.Attempt) error {
	return f(ctx, payload, attempt)
}

// Enqueuer adds jobs to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, req jobsDomain.EnqueueRequest) (*jobsDomain.Job, error)
}
