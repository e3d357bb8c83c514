package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/md-riaz/domaindesk/internal/database"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
	"github.com/md-riaz/domaindesk/internal/metrics"
)

// settleTimeout bounds the bookkeeping that follows an attempt, which must run even
// when the attempt itself timed out.
const settleTimeout = 10 * time.Second

// WorkerConfig holds job worker configuration.
type WorkerConfig struct {
	Queue        string
	Interval     time.Duration
	BatchSize    int
	Concurrency  int
	ReclaimGrace time.Duration
}

// Worker polls a queue and executes claimed jobs concurrently.
type Worker struct {
	config    WorkerConfig
	txManager database.TxManager
	repo      JobRepository
	logger    *slog.Logger
	metrics   metrics.BusinessMetrics
	now       func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewWorker creates a Worker.
func NewWorker(
	config WorkerConfig,
	txManager database.TxManager,
	repo JobRepository,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *Worker {
	if config.Queue == "" {
		config.Queue = jobsDomain.QueueDefault
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.ReclaimGrace <= 0 {
		config.ReclaimGrace = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Worker{
		config:    config,
		txManager: txManager,
		repo:      repo,
		logger:    logger,
		metrics:   businessMetrics,
		now:       time.Now,
		handlers:  make(map[string]Handler),
	}
}

// Register sets the handler of jobType.
func (w *Worker) Register(jobType string, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) handler(jobType string) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[jobType]
	return h, ok
}

// Start polls until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("starting job worker",
		slog.String("queue", w.config.Queue),
		slog.Duration("interval", w.config.Interval),
		slog.Int("batch_size", w.config.BatchSize),
		slog.Int("concurrency", w.config.Concurrency),
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping job worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("failed to run jobs", slog.Any("error", err))
			}
		}
	}
}

// RunOnce reclaims stale jobs, claims a batch and executes it. It returns the number
// of jobs executed and waits for all of them to settle.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := w.now().UTC()

	reclaimed, err := w.repo.Reclaim(ctx, now, w.config.ReclaimGrace)
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		w.logger.Warn("reclaimed stale jobs", slog.Int64("count", reclaimed))
	}

	var jobs []*jobsDomain.Job
	err = w.txManager.WithTx(ctx, func(ctx context.Context) error {
		claimed, err := w.repo.Claim(ctx, w.config.Queue, w.config.BatchSize, now)
		if err != nil {
			return err
		}
		jobs = claimed
		return nil
	})
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			w.execute(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(jobs), nil
}

func (w *Worker) execute(ctx context.Context, job *jobsDomain.Job) {
	start := time.Now()
	attempt := job.Attempt()
	logger := w.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.Int("attempt", attempt.Number),
		slog.Int("max_tries", attempt.Max),
	)

	err := w.run(ctx, job, attempt)

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	status := "completed"
	var settleErr error
	switch {
	case err == nil:
		settleErr = w.repo.Complete(settleCtx, job.ID, w.now().UTC())
		logger.Info("job completed", slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	case jobsDomain.IsPermanent(err) || attempt.IsFinal():
		status = "failed"
		settleErr = w.repo.Fail(settleCtx, job.ID, w.now().UTC(), err.Error())
		logger.Error("job failed",
			slog.Bool("permanent", jobsDomain.IsPermanent(err)),
			slog.Any("error", err),
		)
	default:
		status = "retry"
		availableAt := w.now().UTC().Add(job.RetryDelay())
		settleErr = w.repo.Release(settleCtx, job.ID, availableAt, err.Error())
		logger.Warn("job attempt failed, retrying",
			slog.Time("available_at", availableAt),
			slog.Any("error", err),
		)
	}
	if settleErr != nil {
		logger.Error("failed to settle job", slog.String("status", status), slog.Any("error", settleErr))
	}

	w.metrics.RecordOperation(ctx, "jobs", job.Type, status)
	w.metrics.RecordDuration(ctx, "jobs", job.Type, time.Since(start), status)
}

func (w *Worker) run(ctx context.Context, job *jobsDomain.Job, attempt jobsDomain.Attempt) (err error) {
	handler, ok := w.handler(job.Type)
	if !ok {
		return jobsDomain.Permanent(fmt.Errorf("%w: %s", jobsDomain.ErrNoHandler, job.Type))
	}

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, job.Payload, attempt)
}
