// File: internal/platform/redis/redis.go
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// Client wraps the go-redis client used for the session snapshot cache.
type Client struct {
	*goredis.Client
}

// New connects to Redis and verifies the connection with a short ping.
// Returns nil when no address is configured; the session cache tier is
// optional and callers must treat a nil client as "tier absent".
func New(cfg *config.Config) (*Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Client{Client: client}, nil
}
