package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the subset of the Redis API used by the rate limiter.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window request counter keyed by caller.
type RateLimiter struct {
	client Counter
	prefix string
	limit  int
	window time.Duration
}

// Decision reports the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// NewRateLimiter builds a limiter allowing limit hits per window. A non-positive limit disables limiting.
func NewRateLimiter(client Counter, prefix string, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow counts one hit for key in the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	if r == nil || r.client == nil || r.limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	bucket := now.UTC().Truncate(r.window)
	redisKey := fmt.Sprintf("%s:%s:%d", r.prefix, key, bucket.Unix())

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate counter: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire rate counter: %w", err)
		}
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= r.limit,
		Remaining: remaining,
		ResetIn:   bucket.Add(r.window).Sub(now.UTC()),
	}, nil
}
