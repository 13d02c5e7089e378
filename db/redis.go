package db

import (
	"context"
	"fmt"
	"time"

	"musicify/config"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis connects to Redis and verifies the connection with a ping.
// The cache is optional; callers treat a connection failure as a warning and
// run without caching.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
