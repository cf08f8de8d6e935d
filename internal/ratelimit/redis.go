package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a sliding-window store backed by a shared redis instance,
// for multi-instance deployments where a process-local map would let each
// instance hand out the full quota independently.
type RedisStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// The check and the record must be atomic; a read-then-write pair would
// race between instances. The exclusive '(' range keeps a stamp exactly
// window old counting against the quota, matching the memory store.
const allowScript = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, '(' .. ARGV[2])

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, ttl)
		return 1
	else
		return 0
	end
`

// NewRedisStore connects to redisURL and returns a store admitting up to
// limit calls per key within the trailing window.
func NewRedisStore(redisURL string, limit int, window time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}, nil
}

// NewRedisStoreWithClient wraps an existing client (used by tests).
func NewRedisStoreWithClient(client *redis.Client, limit int, window time.Duration) *RedisStore {
	return &RedisStore{client: client, limit: int64(limit), window: window, now: time.Now}
}

// Allow implements Store using a redis sorted set per key.
func (r *RedisStore) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now().UnixNano()
	windowStart := now - r.window.Nanoseconds()
	ttl := int64(r.window.Seconds()) + 1

	result, err := r.client.Eval(ctx, allowScript, []string{"ratelimit:" + key}, now, windowStart, r.limit, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return result == 1, nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
