// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tomtom215/ridecast/internal/config"
)

// RedisPredictionCache shares predictions between API replicas.
type RedisPredictionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPredictionCache creates a client for cfg.RedisAddr. It does not
// connect until first use; call Ping to check the server.
func NewRedisPredictionCache(cfg *config.CacheConfig) *RedisPredictionCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisPredictionCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		ttl: ttl,
	}
}

// Name implements PredictionCache.
func (c *RedisPredictionCache) Name() string { return "redis" }

// Ping checks the connection.
func (c *RedisPredictionCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// Get implements PredictionCache.
func (c *RedisPredictionCache) Get(ctx context.Context, key string) (float64, bool, error) {
	v, err := c.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Set implements PredictionCache.
func (c *RedisPredictionCache) Set(ctx context.Context, key string, minutes float64) error {
	if err := c.client.Set(ctx, key, minutes, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *RedisPredictionCache) Close() error {
	return c.client.Close()
}
