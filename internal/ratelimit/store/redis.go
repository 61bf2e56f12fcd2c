package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sparkfish/internal/ratelimit/models"
)

const keyPrefix = "rl:"

// Redis is a fixed-window counter shared by every replica. Each window is a
// single key counted with INCR whose expiry is set by the first hit.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

type RedisOption func(*Redis)

func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		r.now = now
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Allow counts one hit against key and reports whether it fits in limit.
func (r *Redis) Allow(ctx context.Context, key string, limit int, ttl time.Duration) (*models.Result, error) {
	k := keyPrefix + key

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment rate limit counter: %w", err)
	}

	remaining := pttl.Val()
	if remaining <= 0 {
		// First hit in the window, or a key left without expiry.
		if err := r.client.PExpire(ctx, k, ttl).Err(); err != nil {
			return nil, fmt.Errorf("set rate limit window: %w", err)
		}
		remaining = ttl
	}

	now := r.now()
	return models.Decide(incr.Val(), limit, now, now.Add(remaining)), nil
}

// Reset clears the counter for key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
