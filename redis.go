package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// initRedis connects to Redis. addr may be a redis:// URL or host:port.
func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	url := addr
	if !strings.Contains(url, "://") {
		url = "redis://" + addr
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
