package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPageCache caches JSON-encoded list pages. Invalidate bumps a
// generation counter so stale pages stop being addressed and age out by TTL.
type RedisPageCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisPageCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisPageCache) generationKey() string { return c.prefix + ":generation" }

func pageKey(prefix string, gen int64, page, limit int) string {
	return fmt.Sprintf("%s:%d:%d:%d", prefix, gen, page, limit)
}

// Generation returns the current generation. A missing counter is generation 0.
func (c *RedisPageCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *RedisPageCache) Get(ctx context.Context, gen int64, page, limit int, dest any) (bool, error) {
	res, err := c.rdb.Get(ctx, pageKey(c.prefix, gen, page, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, gen int64, page, limit int, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(c.prefix, gen, page, limit), b, c.ttl).Err()
}

func (c *RedisPageCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.generationKey()).Err()
}
