package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-authcore/authcore/internal/config"

	"github.com/redis/go-redis/v9"
)

// initializeRedisClient connects to Redis when an address is configured.
// Returns nil without error when Redis is not in use; the rate limiter
// then falls back to its in-memory store.
func initializeRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("[Bootstrap] connected to Redis at %s", cfg.RedisAddr)
	return client, nil
}
