package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryJobRepository is an in-memory JobRepository honoring unique keys and claims.
type memoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobsDomain.Job
}

func newMemoryJobRepository() *memoryJobRepository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]*jobsDomain.Job)}
}

func (r *memoryJobRepository) Create(_ context.Context, job *jobsDomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.UniqueKey != nil {
		for _, existing := range r.jobs {
			active := existing.Status == jobsDomain.StatusPending || existing.Status == jobsDomain.StatusRunning
			if active && existing.UniqueKey != nil && *existing.UniqueKey == *job.UniqueKey {
				return jobsDomain.ErrDuplicateJob
			}
		}
	}
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *memoryJobRepository) Get(_ context.Context, id uuid.UUID) (*jobsDomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, jobsDomain.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (r *memoryJobRepository) Claim(
	_ context.Context,
	queue string,
	limit int,
	now time.Time,
) ([]*jobsDomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var available []*jobsDomain.Job
	for _, job := range r.jobs {
		if job.Queue == queue && job.Status == jobsDomain.StatusPending && !job.AvailableAt.After(now) {
			available = append(available, job)
		}
	}
	slices.SortFunc(available, func(a, b *jobsDomain.Job) int { return a.AvailableAt.Compare(b.AvailableAt) })
	if len(available) > limit {
		available = available[:limit]
	}

	claimed := make([]*jobsDomain.Job, 0, len(available))
	for _, job := range available {
		reservedAt := now
		job.Status = jobsDomain.StatusRunning
		job.Attempts++
		job.ReservedAt = &reservedAt
		clone := *job
		claimed = append(claimed, &clone)
	}
	return claimed, nil
}

func (r *memoryJobRepository) Reclaim(_ context.Context, now time.Time, grace time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, job := range r.jobs {
		if job.Status != jobsDomain.StatusRunning || job.ReservedAt == nil {
			continue
		}
		if !job.ReservedAt.Add(job.Timeout + grace).Before(now) {
			continue
		}
		job.ReservedAt = nil
		job.AvailableAt = now
		job.Status = jobsDomain.StatusPending
		if job.Attempts > job.MaxTries {
			job.Status = jobsDomain.StatusFailed
			job.FailedAt = &now
		}
		count++
	}
	return count, nil
}

func (r *memoryJobRepository) Complete(_ context.Context, id uuid.UUID, now time.Time) error {
	return r.update(id, func(job *jobsDomain.Job) {
		job.Status = jobsDomain.StatusCompleted
		job.CompletedAt = &now
		job.ReservedAt = nil
	})
}

func (r *memoryJobRepository) Release(_ context.Context, id uuid.UUID, availableAt time.Time, lastError string) error {
	return r.update(id, func(job *jobsDomain.Job) {
		job.Status = jobsDomain.StatusPending
		job.AvailableAt = availableAt
		job.LastError = &lastError
		job.ReservedAt = nil
	})
}

func (r *memoryJobRepository) Fail(_ context.Context, id uuid.UUID, now time.Time, lastError string) error {
	return r.update(id, func(job *jobsDomain.Job) {
		job.Status = jobsDomain.StatusFailed
		job.FailedAt = &now
		job.LastError = &lastError
		job.ReservedAt = nil
	})
}

func (r *memoryJobRepository) update(id uuid.UUID, fn func(job *jobsDomain.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return jobsDomain.ErrJobNotFound
	}
	fn(job)
	return nil
}

// forceReserve marks a job running as if a crashed worker had claimed it at reservedAt.
func (r *memoryJobRepository) forceReserve(id uuid.UUID, reservedAt time.Time) {
	_ = r.update(id, func(job *jobsDomain.Job) {
		job.Status = jobsDomain.StatusRunning
		job.Attempts++
		job.ReservedAt = &reservedAt
	})
}
