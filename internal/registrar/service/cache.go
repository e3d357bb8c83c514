package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Category groups cached registrar responses that share a TTL.
type Category string

const (
	CategoryDomainInfo   Category = "domain_info"
	CategoryDNSRecords   Category = "dns_records"
	CategoryContacts     Category = "contacts"
	CategoryAvailability Category = "availability"
	CategoryTLDPrices    Category = "tld_prices"
)

// CacheKey builds the key of a cached response. tld_prices entries are per registrar
// only, so domain is ignored for that category.
func CacheKey(category Category, registrar, domain string) string {
	if category == CategoryTLDPrices || domain == "" {
		return fmt.Sprintf("%s:%s", category, registrar)
	}
	return fmt.Sprintf("%s:%s:%s", category, registrar, domain)
}

// CacheStore persists encoded responses.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cache is the cache-or-execute layer in front of expensive registrar lookups.
type Cache struct {
	store  CacheStore
	ttls   map[Category]time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCache creates a Cache. Categories missing from ttls are never cached.
func NewCache(store CacheStore, ttls map[Category]time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		ttls:   ttls,
		logger: logger,
	}
}

// TTL returns the TTL of category.
func (c *Cache) TTL(category Category) time.Duration {
	return c.ttls[category]
}

// Forget removes keys. Missing keys are ignored.
func (c *Cache) Forget(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.store.Delete(ctx, keys...)
}

// successReporter is implemented by results that can be unsuccessful without an error.
type successReporter interface {
	Success() bool
}

// Remember returns the cached value of key, or calls fn and caches its result.
// Errors and unsuccessful results are never cached, and concurrent misses of the same
// key share one call of fn. Store failures degrade to a miss.
func Remember[T any](
	ctx context.Context,
	c *Cache,
	category Category,
	key string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	ttl := time.Duration(0)
	if c != nil {
		ttl = c.ttls[category]
	}
	if ttl <= 0 {
		return fn(ctx)
	}

	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "registrar cache read failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	} else if ok {
		var cached T
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
		c.logger.WarnContext(ctx, "registrar cache entry undecodable", slog.String("key", key))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return value, err
		}
		if r, ok := any(value).(successReporter); ok && !r.Success() {
			return value, nil
		}

		b, err := json.Marshal(value)
		if err != nil {
			c.logger.WarnContext(ctx, "registrar cache encode failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
			return value, nil
		}
		if err := c.store.Set(ctx, key, b, ttl); err != nil {
			c.logger.WarnContext(ctx, "registrar cache write failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return value, nil
	})

	result, _ := v.(T)
	return result, err
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheStore implements CacheStore in process memory with lazy expiry.
type MemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCacheStore creates an empty in-memory store.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *MemoryCacheStore) WithClock(now func() time.Time) *MemoryCacheStore {
	s.now = now
	return s
}

// Get implements CacheStore.
func (s *MemoryCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set implements CacheStore.
func (s *MemoryCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete implements CacheStore.
func (s *MemoryCacheStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}
