package ledger

import (
	"context"
	"encoding/json"
	"time"

	"timeclock/internal/models"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "timeclock:lookup:"

// CachedLookups serves lookup tables from Redis when fresh and reads
// through to the wrapped gateway otherwise. Events are never cached.
type CachedLookups struct {
	Gateway
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedLookups(next Gateway, rdb *redis.Client, ttl time.Duration) *CachedLookups {
	return &CachedLookups{Gateway: next, redis: rdb, ttl: ttl}
}

// Invalidate drops every cached table.
func (c *CachedLookups) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, cachePrefix+"subjects", cachePrefix+"activities", cachePrefix+"orders").Err()
}

func (c *CachedLookups) Subjects(ctx context.Context) ([]models.Subject, error) {
	return readThrough(ctx, c, "subjects", c.Gateway.Subjects)
}

func (c *CachedLookups) Activities(ctx context.Context) ([]models.Activity, error) {
	return readThrough(ctx, c, "activities", c.Gateway.Activities)
}

func (c *CachedLookups) Orders(ctx context.Context) ([]models.Order, error) {
	return readThrough(ctx, c, "orders", c.Gateway.Orders)
}

func readThrough[T any](ctx context.Context, c *CachedLookups, table string, load func(context.Context) ([]T, error)) ([]T, error) {
	var cached []T
	if c.readCache(ctx, cachePrefix+table, &cached) {
		return cached, nil
	}
	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cachePrefix+table, rows)
	return rows, nil
}

func (c *CachedLookups) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *CachedLookups) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}
