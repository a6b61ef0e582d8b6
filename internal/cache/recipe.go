// Package cache keeps a read-through copy of single recipes in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templui/recipehub/internal/metrics"
	"github.com/templui/recipehub/internal/model"
)

const recipeKeyPrefix = "recipe:"

// RecipeCache is fail-open: Redis errors are logged and the caller falls
// through to the store. A nil client disables caching entirely.
type RecipeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecipeCache(client *redis.Client, ttl time.Duration) *RecipeCache {
	return &RecipeCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server answers. An empty URL returns nil.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("redis connected", "addr", opts.Addr)
	return client, nil
}

func (c *RecipeCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Recipe returns the cached recipe for id, calling fetch on a miss and storing its result.
func (c *RecipeCache) Recipe(ctx context.Context, id string, fetch func() (*model.Recipe, error)) (*model.Recipe, error) {
	if !c.Enabled() {
		return fetch()
	}

	key := recipeKeyPrefix + id
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		recipe := &model.Recipe{}
		if err := json.Unmarshal(raw, recipe); err == nil {
			metrics.CacheEventsTotal.WithLabelValues("hit").Inc()
			return recipe, nil
		}
		slog.Warn("discarding undecodable cached recipe", "recipe_id", id)
	case errors.Is(err, redis.Nil):
		metrics.CacheEventsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CacheEventsTotal.WithLabelValues("error").Inc()
		slog.Warn("recipe cache read failed", "error", err, "recipe_id", id)
	}

	recipe, err := fetch()
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(recipe); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("recipe cache write failed", "error", err, "recipe_id", id)
		}
	}
	return recipe, nil
}

// Invalidate drops the cached copy of id.
func (c *RecipeCache) Invalidate(ctx context.Context, id string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, recipeKeyPrefix+id).Err(); err != nil {
		metrics.CacheEventsTotal.WithLabelValues("error").Inc()
		slog.Warn("recipe cache invalidation failed", "error", err, "recipe_id", id)
	}
}

func (c *RecipeCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
