package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pray-app/pray_api/internal/auth"
	"github.com/pray-app/pray_api/internal/billing"
	"github.com/pray-app/pray_api/internal/config"
	"github.com/pray-app/pray_api/internal/identity"
	"github.com/pray-app/pray_api/internal/logging"
	"github.com/pray-app/pray_api/internal/middleware"
	"github.com/pray-app/pray_api/internal/notification"
	"github.com/pray-app/pray_api/internal/pray"
)

const devPayURLBase = "http://localhost:8080/dev/pay"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Provider overrides the payment provider chosen from Cfg.
	Provider billing.Provider
}

// Services exposes the wired services needed outside the HTTP layer.
type Services struct {
	Pray *pray.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Services, error) {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if !d.Cfg.IsDev() && d.DB == nil {
		return Services{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	provider, err := selectProvider(d)
	if err != nil {
		return Services{}, err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(logging.Component(d.Logger, "http")))

	RegisterHealthRoutes(app, d)

	var identityRepo identity.Repository
	var prayRepo pray.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		prayRepo = pray.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory storage")
		identityRepo = identity.NewMemoryRepository()
		prayRepo = pray.NewMemoryRepository()
	}

	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(identitySvc, identityRepo, auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL))
	notifier := notification.NewLoggerNotifier(d.Logger)
	praySvc := pray.NewService(prayRepo, provider, notifier, d.Cfg.Billing, d.Logger)

	authHandler := auth.NewHandler(authSvc, logging.Component(d.Logger, "auth"))
	prayHandler := pray.NewHandler(praySvc, logging.Component(d.Logger, "pray"))

	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(app, authHandler, middleware.SignupRateLimit(d.Cache, d.Cfg.SignupRateLimit, d.Logger))

	bearer := middleware.BearerAuth(authSvc)
	protected := app.Group("", bearer)
	protected.Get("/user", authHandler.Me)
	RegisterPrayRoutes(protected, prayHandler, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	return Services{Pray: praySvc}, nil
}

func selectProvider(d Deps) (billing.Provider, error) {
	switch {
	case d.Provider != nil:
		return d.Provider, nil
	case d.Cfg.Billing.APIToken != "":
		return billing.NewQiwiClient(d.Cfg.Billing), nil
	case d.Cfg.IsDev():
		d.Logger.Warn("no payment provider token configured, bills are simulated in memory")
		return billing.NewMemoryProvider(devPayURLBase), nil
	default:
		return nil, fmt.Errorf("payment provider token is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
}

// ErrorHandler renders handler errors as {"detail": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := http.StatusText(code)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"detail": msg})
}
