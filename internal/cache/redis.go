package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotCache stores snapshots as JSON values with a fixed TTL.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisSnapshotCache connects to Redis and verifies it is reachable.
func NewRedisSnapshotCache(ctx context.Context, opts RedisOptions) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("[Cache] Connected to Redis",
		"addr", opts.Addr,
		"db", opts.DB,
		"ttl", opts.TTL,
	)
	return NewRedisSnapshotCacheFromClient(client, opts.TTL), nil
}

// NewRedisSnapshotCacheFromClient wraps an existing client.
func NewRedisSnapshotCacheFromClient(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

// Get returns ErrMiss when the key is absent.
func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (kpi.Snapshot, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return kpi.Snapshot{}, ErrMiss
	}
	if err != nil {
		return kpi.Snapshot{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var snapshot kpi.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return kpi.Snapshot{}, fmt.Errorf("decode cached snapshot %s: %w", key, err)
	}
	return snapshot, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, snapshot kpi.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Health pings Redis.
func (c *RedisSnapshotCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}
