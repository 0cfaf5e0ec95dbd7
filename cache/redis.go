package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raid-guild/x402-tip-links/types"
)

const tipKeyPrefix = "tiplinks:tip:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Registry is the tip configuration store the cache reads through to.
type Registry interface {
	Create(ctx context.Context, creatorAddress, defaultAmount string) (types.TipConfig, error)
	Get(ctx context.Context, id string) (types.TipConfig, bool, error)
}

// RegistryCache caches tip configurations in Redis in front of a durable registry.
// Only found records are cached; tip configurations are immutable so entries never go stale.
type RegistryCache struct {
	next   Registry
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRegistryCache(next Registry, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RegistryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *RegistryCache) Create(ctx context.Context, creatorAddress, defaultAmount string) (types.TipConfig, error) {
	tip, err := c.next.Create(ctx, creatorAddress, defaultAmount)
	if err != nil {
		return types.TipConfig{}, err
	}
	c.store(ctx, tip)
	return tip, nil
}

func (c *RegistryCache) Get(ctx context.Context, id string) (types.TipConfig, bool, error) {
	raw, err := c.client.Get(ctx, tipKeyPrefix+id).Bytes()
	switch {
	case err == nil:
		var tip types.TipConfig
		if unmarshalErr := json.Unmarshal(raw, &tip); unmarshalErr == nil {
			return tip, true, nil
		}
		c.logger.Warn("dropping undecodable cached tip config", "tip_id", id)
	case !errors.Is(err, redis.Nil):
		// The durable registry still answers when the cache is down
		c.logger.Warn("registry cache read failed", "tip_id", id, "error", err)
	}

	tip, found, err := c.next.Get(ctx, id)
	if err != nil || !found {
		return tip, found, err
	}
	c.store(ctx, tip)
	return tip, true, nil
}

func (c *RegistryCache) store(ctx context.Context, tip types.TipConfig) {
	raw, err := json.Marshal(tip)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, tipKeyPrefix+tip.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("registry cache write failed", "tip_id", tip.ID, "error", err)
	}
}
