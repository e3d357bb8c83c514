package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	repo     *memoryJobRepository
	worker   *Worker
	enqueuer *enqueuer
	clock    *testClock
}

func newHarness(cfg WorkerConfig) *harness {
	repo := newMemoryJobRepository()
	clock := &testClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}

	worker := NewWorker(cfg, passthroughTxManager{}, repo, nil, nil)
	worker.now = clock.Now

	enq := NewEnqueuer(repo, nil).(*enqueuer)
	enq.now = clock.Now

	return &harness{repo: repo, worker: worker, enqueuer: enq, clock: clock}
}

func (h *harness) enqueue(t *testing.T, req jobsDomain.EnqueueRequest) *jobsDomain.Job {
	t.Helper()
	job, err := h.enqueuer.Enqueue(context.Background(), req)
	require.NoError(t, err)
	return job
}

func (h *harness) job(t *testing.T, job *jobsDomain.Job) *jobsDomain.Job {
	t.Helper()
	got, err := h.repo.Get(context.Background(), job.ID)
	require.NoError(t, err)
	return got
}

func TestEnqueuer_UniqueKey(t *testing.T) {
	h := newHarness(WorkerConfig{})
	ctx := context.Background()
	req := jobsDomain.EnqueueRequest{Type: "domain.renewal", MaxTries: 3, UniqueKey: "domain.renewal:d-1"}

	_, err := h.enqueuer.Enqueue(ctx, req)
	require.NoError(t, err)

	_, err = h.enqueuer.Enqueue(ctx, req)
	assert.ErrorIs(t, err, jobsDomain.ErrDuplicateJob)
}

func TestWorker_CompletesJob(t *testing.T) {
	h := newHarness(WorkerConfig{})
	ctx := context.Background()

	var received map[string]string
	var seen jobsDomain.Attempt
	h.worker.Register("greet", HandlerFunc(func(_ context.Context, payload []byte, attempt jobsDomain.Attempt) error {
		seen = attempt
		return json.Unmarshal(payload, &received)
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "greet", Payload: map[string]string{"name": "ada"}, MaxTries: 3})

	count, err := h.worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, map[string]string{"name": "ada"}, received)
	assert.Equal(t, jobsDomain.Attempt{Number: 1, Max: 3}, seen)
	assert.Equal(t, jobsDomain.StatusCompleted, h.job(t, job).Status)
}

func TestWorker_RetriesWithBackoffThenFails(t *testing.T) {
	h := newHarness(WorkerConfig{})
	ctx := context.Background()

	var attempts []jobsDomain.Attempt
	h.worker.Register("flaky", HandlerFunc(func(_ context.Context, _ []byte, attempt jobsDomain.Attempt) error {
		attempts = append(attempts, attempt)
		return errors.New("registrar unavailable")
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "flaky", MaxTries: 3, Backoff: 10 * time.Second})

	_, err := h.worker.RunOnce(ctx)
	require.NoError(t, err)

	stored := h.job(t, job)
	assert.Equal(t, jobsDomain.StatusPending, stored.Status)
	assert.Equal(t, h.clock.Now().Add(10*time.Second), stored.AvailableAt)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "registrar unavailable", *stored.LastError)

	// Not yet available.
	count, err := h.worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	h.clock.Advance(10 * time.Second)
	_, err = h.worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.clock.Now().Add(20*time.Second), h.job(t, job).AvailableAt)

	h.clock.Advance(20 * time.Second)
	_, err = h.worker.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, jobsDomain.StatusFailed, h.job(t, job).Status)
	assert.Equal(t, []jobsDomain.Attempt{{Number: 1, Max: 3}, {Number: 2, Max: 3}, {Number: 3, Max: 3}}, attempts)
}

func TestWorker_PermanentErrorFailsImmediately(t *testing.T) {
	h := newHarness(WorkerConfig{})
	ctx := context.Background()

	calls := 0
	h.worker.Register("doomed", HandlerFunc(func(context.Context, []byte, jobsDomain.Attempt) error {
		calls++
		return jobsDomain.Permanent(errors.New("no price"))
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "doomed", MaxTries: 5})

	_, err := h.worker.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, jobsDomain.StatusFailed, h.job(t, job).Status)
}

func TestWorker_UnknownTypeFails(t *testing.T) {
	h := newHarness(WorkerConfig{})

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "nobody-home", MaxTries: 3})

	_, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	stored := h.job(t, job)
	assert.Equal(t, jobsDomain.StatusFailed, stored.Status)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "nobody-home")
}

func TestWorker_TimeoutCountsAsFailedAttempt(t *testing.T) {
	h := newHarness(WorkerConfig{})

	h.worker.Register("slow", HandlerFunc(func(ctx context.Context, _ []byte, _ jobsDomain.Attempt) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "slow", MaxTries: 2, Timeout: 20 * time.Millisecond})

	_, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	stored := h.job(t, job)
	assert.Equal(t, jobsDomain.StatusPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, context.DeadlineExceeded.Error())
}

func TestWorker_RecoversPanics(t *testing.T) {
	h := newHarness(WorkerConfig{})

	h.worker.Register("panicky", HandlerFunc(func(context.Context, []byte, jobsDomain.Attempt) error {
		panic("nil map")
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "panicky", MaxTries: 1})

	_, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	stored := h.job(t, job)
	assert.Equal(t, jobsDomain.StatusFailed, stored.Status)
	assert.Contains(t, *stored.LastError, "panicked")
}

func TestWorker_RunsConcurrentlyWithinLimit(t *testing.T) {
	h := newHarness(WorkerConfig{BatchSize: 6, Concurrency: 2})

	var running, peak atomic.Int32
	h.worker.Register("work", HandlerFunc(func(context.Context, []byte, jobsDomain.Attempt) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}))

	for range 6 {
		h.enqueue(t, jobsDomain.EnqueueRequest{Type: "work", MaxTries: 1})
	}

	count, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, count)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorker_ReclaimsStaleReservations(t *testing.T) {
	h := newHarness(WorkerConfig{ReclaimGrace: time.Minute})

	done := 0
	h.worker.Register("stuck", HandlerFunc(func(_ context.Context, _ []byte, attempt jobsDomain.Attempt) error {
		done = attempt.Number
		return nil
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "stuck", MaxTries: 3, Timeout: time.Minute})
	h.repo.forceReserve(job.ID, h.clock.Now())

	count, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	h.clock.Advance(3 * time.Minute)
	count, err = h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, 2, done)
	assert.Equal(t, jobsDomain.StatusCompleted, h.job(t, job).Status)
}

func TestWorker_LostFinalReservationIsSettledByHandler(t *testing.T) {
	h := newHarness(WorkerConfig{ReclaimGrace: time.Minute})

	var seen []jobsDomain.Attempt
	h.worker.Register("domain.registration", HandlerFunc(func(_ context.Context, _ []byte, attempt jobsDomain.Attempt) error {
		seen = append(seen, attempt)
		if attempt.IsFinal() {
			return jobsDomain.Permanent(errors.New("registrar unreachable, marked registration_failed"))
		}
		return errors.New("registrar unreachable")
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "domain.registration", MaxTries: 3, Timeout: time.Minute})
	for range 3 {
		h.repo.forceReserve(job.ID, h.clock.Now())
	}

	h.clock.Advance(3 * time.Minute)
	count, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	require.Len(t, seen, 1)
	assert.Equal(t, jobsDomain.Attempt{Number: 3, Max: 3}, seen[0])

	got := h.job(t, job)
	assert.Equal(t, jobsDomain.StatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "registration_failed")
}

func TestWorker_RedeliveryLostAgainIsFailed(t *testing.T) {
	h := newHarness(WorkerConfig{ReclaimGrace: time.Minute})

	called := false
	h.worker.Register("domain.renewal", HandlerFunc(func(context.Context, []byte, jobsDomain.Attempt) error {
		called = true
		return nil
	}))

	job := h.enqueue(t, jobsDomain.EnqueueRequest{Type: "domain.renewal", MaxTries: 2, Timeout: time.Minute})
	for range 3 {
		h.repo.forceReserve(job.ID, h.clock.Now())
	}

	h.clock.Advance(3 * time.Minute)
	count, err := h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, count)
	assert.False(t, called)
	assert.Equal(t, jobsDomain.StatusFailed, h.job(t, job).Status)
}

func TestWorker_StartStopsOnCancel(t *testing.T) {
	h := newHarness(WorkerConfig{Interval: 5 * time.Millisecond})

	var executed atomic.Int32
	h.worker.Register("tick", HandlerFunc(func(context.Context, []byte, jobsDomain.Attempt) error {
		executed.Add(1)
		return nil
	}))
	h.enqueue(t, jobsDomain.EnqueueRequest{Type: "tick", MaxTries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.worker.Start(ctx)
	}()

	require.Eventually(t, func() bool { return executed.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
}
