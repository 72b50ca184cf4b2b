package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bayline/internal/config"
	"bayline/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheGenKey = "appt_cache:gen"

// RedisProjectionCache caches appointment ranges read from the calendar
// store. Invalidation bumps a generation counter so stale range keys simply
// age out via TTL instead of being enumerated.
type RedisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisProjectionCache(client *redis.Client, ttl time.Duration) *RedisProjectionCache {
	return &RedisProjectionCache{client: client, ttl: ttl}
}

func (r *RedisProjectionCache) GetRange(ctx context.Context, min, max time.Time) ([]models.Appointment, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}

	key, err := r.rangeKey(ctx, min, max)
	if err != nil {
		return nil, false, err
	}

	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached range: %w", err)
	}

	var appts []models.Appointment
	if err := json.Unmarshal([]byte(val), &appts); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached range: %w", err)
	}
	return appts, true, nil
}

func (r *RedisProjectionCache) SetRange(ctx context.Context, min, max time.Time, appts []models.Appointment) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	key, err := r.rangeKey(ctx, min, max)
	if err != nil {
		return err
	}

	data, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("failed to marshal range: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached range: %w", err)
	}
	return nil
}

func (r *RedisProjectionCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Incr(ctx, cacheGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

func (r *RedisProjectionCache) rangeKey(ctx context.Context, min, max time.Time) (string, error) {
	gen, err := r.client.Get(ctx, cacheGenKey).Int64()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return fmt.Sprintf("appt_cache:%d:%d-%d", gen, min.Unix(), max.Unix()), nil
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
