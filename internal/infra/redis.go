package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pray-app/pray_api/internal/config"
)

// NewRedisClient connects the cache behind idempotent replay, the signup rate
// limit and the sweep lease. An empty REDIS_URL yields a nil client, which
// turns those features off.
func NewRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opt, err := redisOptions(cfg)
	if err != nil || opt == nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisOptions(cfg config.Config) (*redis.Options, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.RedisPoolSize > 0 {
		opt.PoolSize = cfg.RedisPoolSize
	}
	if opt.ClientName == "" {
		opt.ClientName = cfg.AppName
	}
	return opt, nil
}
