package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/auth"
)

// Audit writes one structured line per request. Handler errors are logged at
// error level for 5xx and warn level for client errors.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if user, ok := auth.CurrentUser(c); ok {
			attrs = append(attrs, slog.Int64("user_id", user.ID))
		}

		switch {
		case err != nil && status >= fiber.StatusInternalServerError:
			logger.Error("request failed", append(attrs, slog.Any("error", err))...)
		case err != nil:
			logger.Warn("request rejected", append(attrs, slog.Any("error", err))...)
		default:
			logger.Info("request completed", attrs...)
		}
		return err
	}
}
