package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pray-app/pray_api/internal/config"
)

const healthCheckPeriod = 30 * time.Second

// NewPostgresPool connects the shared pool used by the HTTP handlers and the
// reconciliation sweep, then pings it.
func NewPostgresPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := postgresConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func postgresConfig(cfg config.Config) (*pgxpool.Config, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.HealthCheckPeriod = healthCheckPeriod
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	poolCfg.MinConns = cfg.Database.MinConns
	if cfg.Database.MaxConnIdle > 0 {
		poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdle
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok && cfg.AppName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	return poolCfg, nil
}
