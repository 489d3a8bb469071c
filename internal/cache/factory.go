package cache

import (
	"context"
	"fmt"

	"github.com/olegproektor/Idea-planner-agent/internal/config"
	"github.com/olegproektor/Idea-planner-agent/internal/logging"
)

// NewStore builds the cache backend selected by configuration.
func NewStore(ctx context.Context, cfg config.Config, logger logging.Logger) (Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return NewMemoryStore(cfg.CacheTTL, cfg.CacheSweep), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKeyspace, cfg.CacheTTL, logger)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}
