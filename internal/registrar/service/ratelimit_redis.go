package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, then either records the hit or returns the
// milliseconds until the oldest hit expires. Runs atomically inside Redis.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
  retry = tonumber(oldest[2]) + window - now
end
return {0, retry}
`)

// RedisWindowStore implements WindowStore on a Redis sorted set per key, shared by
// every process using the same Redis.
type RedisWindowStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisWindowStore creates a Redis-backed window store.
func NewRedisWindowStore(client redis.UniversalClient) *RedisWindowStore {
	return &RedisWindowStore{client: client, now: time.Now}
}

// Hit implements WindowStore.
func (s *RedisWindowStore) Hit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (bool, time.Duration, error) {
	now := s.now().UnixMilli()

	res, err := slidingWindowScript.Run(
		ctx,
		s.client,
		[]string{key},
		now,
		window.Milliseconds(),
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}

	if res[0] == 1 {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}

// Clear implements WindowStore.
func (s *RedisWindowStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
