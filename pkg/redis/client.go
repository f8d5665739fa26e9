package redis

import (
	"context"

	"github.com/Fellahty/frigosaas-sub002/pkg/config"

	"github.com/go-redis/redis/v8"
)

// Client aliases the go-redis client so callers avoid a second import.
type Client = redis.Client

// NewRedisClient builds a Redis client from shared config.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping verifies the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the client.
func Close(client *redis.Client) error {
	return client.Close()
}
