package redis

import (
	"context"
	"time"

	"referral-chat/internal/config"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient dials Redis and verifies the connection. The client is injected
// into consumers; callers that run without Redis simply pass nil caches.
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
