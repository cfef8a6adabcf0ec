package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pray-app/pray_api/internal/config"
	"github.com/pray-app/pray_api/internal/reconcile"
	"github.com/pray-app/pray_api/internal/routes"
)

// Server owns the Fiber application and the background reconciliation sweep.
type Server struct {
	app     *fiber.App
	cfg     config.Config
	sweeper *reconcile.Sweeper
}

// New builds the HTTP application and the sweeper over the same pray service.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: routes.ErrorHandler,
	})

	services, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		return nil, err
	}

	var opts []reconcile.Option
	if cache != nil {
		opts = append(opts, reconcile.WithLease(cache))
	}
	sweeper := reconcile.New(services.Pray, services.Pray, cfg.ReconcileInterval, logger, opts...)

	return &Server{app: app, cfg: cfg, sweeper: sweeper}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Reconcile runs the payment sweep until ctx is cancelled.
func (s *Server) Reconcile(ctx context.Context) {
	s.sweeper.Run(ctx)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
