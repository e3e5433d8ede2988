package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares the window across API instances.
type Redis struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := r.prefix + key

	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	ttl, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	// no expiry yet: first hit of the window, or a previous EXPIRE was lost
	if ttl < 0 {
		if err := r.rdb.PExpire(ctx, k, r.window).Err(); err != nil {
			return false, 0, err
		}
		ttl = r.window
	}

	if n <= int64(r.limit) {
		return true, 0, nil
	}
	return false, ttl, nil
}
