package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheStore implements CacheStore on plain Redis string keys with expiry.
type RedisCacheStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCacheStore creates a Redis-backed cache store. prefix namespaces every key.
func NewRedisCacheStore(client redis.UniversalClient, prefix string) *RedisCacheStore {
	return &RedisCacheStore{client: client, prefix: prefix}
}

// Get implements CacheStore.
func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set implements CacheStore.
func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete implements CacheStore.
func (s *RedisCacheStore) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}
	return s.client.Del(ctx, prefixed...).Err()
}
