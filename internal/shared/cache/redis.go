package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/postforge/server/internal/shared/config"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection before
// returning. Redis backs OTP codes and rate limiting, both of which the
// app can run without, so the caller decides whether a failure is fatal.
func NewRedisClient(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		ClientName: "postforge",
		Addr:       cfg.Address,
		Password:   cfg.Password,
		DB:         cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}

	return client, nil
}

// Close closes the Redis client.
func Close(client redis.UniversalClient) error {
	return client.Close()
}
