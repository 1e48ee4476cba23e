package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/metrics"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

const versionKey = "catalog:version"

// Catalog caches read-mostly reference data (ingredients, tags) in redis with
// cache-aside reads. Imports bump a version counter so every cached entry is
// abandoned at once. A nil *Catalog passes straight through to the loader.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

func NewCatalog(client *redis.Client, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Catalog{client: client, ttl: ttl}
}

// Ingredients 按名称前缀缓存食材列表
func (c *Catalog) Ingredients(ctx context.Context, prefix string, load func(context.Context) ([]model.Ingredient, error)) ([]model.Ingredient, error) {
	if c == nil {
		return load(ctx)
	}
	return fetch(ctx, c, "ingredients:"+strings.ToLower(strings.TrimSpace(prefix)), load)
}

// Tags 缓存全部标签
func (c *Catalog) Tags(ctx context.Context, load func(context.Context) ([]model.Tag, error)) ([]model.Tag, error) {
	if c == nil {
		return load(ctx)
	}
	return fetch(ctx, c, "tags", load)
}

// Invalidate 让当前所有缓存项失效
func (c *Catalog) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *Catalog) version(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func fetch[T any](ctx context.Context, c *Catalog, name string, load func(context.Context) (T, error)) (T, error) {
	ver, err := c.version(ctx)
	if err != nil {
		// redis 不可用时直接读库
		metrics.RecordCache("error")
		logger.Warn("catalog cache unavailable", zap.Error(err))
		c.loads.Add(1)
		return load(ctx)
	}
	key := fmt.Sprintf("catalog:v%s:%s", ver, name)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var out T
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			c.hits.Add(1)
			metrics.RecordCache("hit")
			return out, nil
		}
	}

	c.misses.Add(1)
	metrics.RecordCache("miss")
	c.loads.Add(1)
	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if payload, err := json.Marshal(out); err == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return out, nil
}

// ResetCounters clears recorded cache counters.
func (c *Catalog) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.loads.Store(0)
}

// Counters reports cache hits, misses and how many loads reached the database.
func (c *Catalog) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load(), Loads: c.loads.Load()}
}

type Counters struct {
	Hits   int64
	Misses int64
	Loads  int64
}
