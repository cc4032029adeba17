// Package cache provides the Redis-backed product list cache and the
// post-write invalidation signal this core must emit. Cache-aside: reads
// populate, writes delete.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	listKeyPrefix = "cache:products:"
	listTTL       = 5 * time.Minute
)

// ProductCache caches rendered product listings keyed by their filter
// signature. All operations are best-effort — a Redis failure degrades to a
// DB read, never an error.
type ProductCache struct {
	rdb *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb}
}

// Get returns true and unmarshals into dest on a hit.
func (c *ProductCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, listKeyPrefix+key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry, ignoring")
		return false
	}
	return true
}

func (c *ProductCache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, listKeyPrefix+key, data, listTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// Invalidate drops every cached listing. Called after each successful
// product-affecting write.
func (c *ProductCache) Invalidate(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, listKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("cache: scan failed during invalidation")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: invalidation failed")
	}
}
