package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// WindowStore records hits in a sliding window. Hit either records the hit and
// returns allowed=true, or returns how long until the oldest hit leaves the window.
type WindowStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
	Clear(ctx context.Context, key string) error
}

// RateLimitKey builds the window key of a registrar operation.
func RateLimitKey(registrar, operation string) string {
	return fmt.Sprintf("ratelimit:%s:%s", registrar, operation)
}

// RateLimiter enforces a per-registrar, per-operation sliding window.
type RateLimiter struct {
	store       WindowStore
	maxAttempts int
	decay       time.Duration
}

// NewRateLimiter creates a RateLimiter allowing maxAttempts calls per decay window.
// A non-positive maxAttempts disables limiting.
func NewRateLimiter(store WindowStore, maxAttempts int, decay time.Duration) *RateLimiter {
	return &RateLimiter{
		store:       store,
		maxAttempts: maxAttempts,
		decay:       decay,
	}
}

// Attempt records one call of operation against registrar. It returns a
// RateLimitExceeded registrar error when the window is full.
func (l *RateLimiter) Attempt(ctx context.Context, registrar, scope, operation string) error {
	if l == nil || l.maxAttempts <= 0 || l.decay <= 0 {
		return nil
	}

	allowed, retryAfter, err := l.store.Hit(ctx, RateLimitKey(scope, operation), l.maxAttempts, l.decay)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if allowed {
		return nil
	}

	return domain.NewRateLimitExceeded(registrar, operation, ceilSeconds(retryAfter))
}

// Clear resets the window of an operation.
func (l *RateLimiter) Clear(ctx context.Context, scope, operation string) error {
	if l == nil {
		return nil
	}
	return l.store.Clear(ctx, RateLimitKey(scope, operation))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// MemoryWindowStore implements WindowStore with process-local sliding windows.
// Use RedisWindowStore when several processes share registrar quotas.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewMemoryWindowStore creates an in-memory window store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *MemoryWindowStore) WithClock(now func() time.Time) *MemoryWindowStore {
	s.now = now
	return s
}

// Hit implements WindowStore.
func (s *MemoryWindowStore) Hit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	timestamps := cleanup(s.windows[key], now.Add(-window))

	if len(timestamps) < limit {
		s.windows[key] = append(timestamps, now)
		return true, 0, nil
	}

	s.windows[key] = timestamps
	return false, timestamps[0].Add(window).Sub(now), nil
}

// Clear implements WindowStore.
func (s *MemoryWindowStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// cleanup drops timestamps at or before cutoff. Timestamps are kept in insertion order.
func cleanup(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
