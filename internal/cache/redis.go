package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/olegproektor/Idea-planner-agent/internal/logging"
)

const redisDialTimeout = 5 * time.Second

// RedisStore is the Redis-backed Store implementation. TTL enforcement is
// delegated to Redis key expiry, so there is no lazy eviction path here.
type RedisStore struct {
	client   *goredis.Client
	ttl      time.Duration
	keyspace string
	logger   logging.Logger
}

// NewRedisStore connects to Redis and verifies the connection. Keys are
// namespaced under keyspace so Clear never touches other tenants of the
// same Redis.
func NewRedisStore(ctx context.Context, redisURL, keyspace string, ttl time.Duration, logger logging.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = redisDialTimeout
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if keyspace == "" {
		keyspace = "spyglass"
	}

	return &RedisStore{client: client, ttl: ttl, keyspace: keyspace, logger: logger}, nil
}

func (s *RedisStore) redisKey(source, query string) string {
	return s.keyspace + ":search:" + Key(source, query)
}

func (s *RedisStore) Get(ctx context.Context, source, query string) (Payload, bool) {
	raw, err := s.client.Get(ctx, s.redisKey(source, query)).Bytes()
	if err != nil {
		if err != goredis.Nil && s.logger != nil {
			s.logger.WithError(err).Warn("Redis cache read failed")
		}
		return Payload{}, false
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("Dropping undecodable cache entry")
		}
		_ = s.client.Del(ctx, s.redisKey(source, query)).Err()
		return Payload{}, false
	}
	return payload, true
}

func (s *RedisStore) Set(ctx context.Context, source, query string, payload Payload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("Failed to encode cache payload")
		}
		return
	}
	if err := s.client.Set(ctx, s.redisKey(source, query), raw, s.ttl).Err(); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("Redis cache write failed")
		}
	}
}

func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.keyspace+":search:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping reports backend reachability for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
