package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName           = "PrayAPI"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultAccessTokenTTL    = 30 * time.Minute
	defaultReconcileInterval = 60 * time.Second
	defaultBillLifetime      = 72 * time.Hour
	defaultProviderTimeout   = 15 * time.Second
	defaultQiwiBaseURL       = "https://api.qiwi.com"
	defaultBillCurrency      = "RUB"
	defaultSignupRateLimit   = 5
	defaultDBMaxConns        = 10
	defaultDBMinConns        = 1
	defaultDBMaxConnIdle     = 5 * time.Minute
	defaultRedisPoolSize     = 10
	idemTTLSecondsEnvVar     = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar         = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
// It is built once at startup and handed to the components that need it.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	Database       Database
	RedisPoolSize  int
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret       string
	AccessTokenTTL  time.Duration
	SignupRateLimit int

	Billing           Billing
	ReconcileInterval time.Duration
}

// Database sizes the Postgres pool. The sweep and the HTTP handlers share it.
type Database struct {
	MaxConns    int32
	MinConns    int32
	MaxConnIdle time.Duration
}

// Billing holds the payment provider settings.
type Billing struct {
	APIToken string
	BaseURL  string
	Currency string
	Lifetime time.Duration
	Timeout  time.Duration
}

// Load reads an optional .env file and then the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv populates a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		Database: Database{
			MaxConns:    defaultDBMaxConns,
			MinConns:    defaultDBMinConns,
			MaxConnIdle: defaultDBMaxConnIdle,
		},
		RedisPoolSize:   defaultRedisPoolSize,
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		JWTSecret:       getEnv("SECRET_KEY", os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  defaultAccessTokenTTL,
		SignupRateLimit: defaultSignupRateLimit,
		Billing: Billing{
			APIToken: getEnv("QIWI_API_TOKEN", os.Getenv("api_access_token")),
			BaseURL:  strings.TrimRight(getEnv("QIWI_BASE_URL", defaultQiwiBaseURL), "/"),
			Currency: strings.ToUpper(getEnv("BILL_CURRENCY", defaultBillCurrency)),
			Lifetime: defaultBillLifetime,
			Timeout:  defaultProviderTimeout,
		},
		ReconcileInterval: defaultReconcileInterval,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationPair(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationPair(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = duration("RECONCILE_INTERVAL", cfg.ReconcileInterval); err != nil {
		return Config{}, err
	}
	if cfg.Billing.Lifetime, err = duration("BILL_LIFETIME", cfg.Billing.Lifetime); err != nil {
		return Config{}, err
	}
	if cfg.Billing.Timeout, err = duration("PROVIDER_TIMEOUT", cfg.Billing.Timeout); err != nil {
		return Config{}, err
	}

	if cfg.Database.MaxConnIdle, err = duration("DB_MAX_CONN_IDLE", cfg.Database.MaxConnIdle); err != nil {
		return Config{}, err
	}
	if cfg.SignupRateLimit, err = integer("SIGNUP_RATE_LIMIT", cfg.SignupRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.RedisPoolSize, err = integer("REDIS_POOL_SIZE", cfg.RedisPoolSize); err != nil {
		return Config{}, err
	}
	maxConns, err := integer("DB_MAX_CONNS", int(cfg.Database.MaxConns))
	if err != nil {
		return Config{}, err
	}
	minConns, err := integer("DB_MIN_CONNS", int(cfg.Database.MinConns))
	if err != nil {
		return Config{}, err
	}
	if maxConns <= 0 || minConns < 0 || minConns > maxConns {
		return Config{}, fmt.Errorf("invalid pool size: DB_MIN_CONNS=%d DB_MAX_CONNS=%d", minConns, maxConns)
	}
	cfg.Database.MaxConns, cfg.Database.MinConns = int32(maxConns), int32(minConns)

	if cfg.ReconcileInterval <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-secret"
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("SECRET_KEY must be set")
	}
	if cfg.Billing.APIToken == "" {
		return Config{}, fmt.Errorf("QIWI_API_TOKEN must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local/development environment,
// where Postgres, Redis and the real payment provider are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationPair(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return duration(durationKey, fallback)
}
