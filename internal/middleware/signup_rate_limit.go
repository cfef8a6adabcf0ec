package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const signupRatePrefix = "rl:signup:"

// SignupRateLimit caps signup attempts per username (or client IP when no
// username is sent) within a one minute window. Without Redis, or when Redis
// errors, requests pass through.
func SignupRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}

		subject := signupSubject(c)
		key := signupRatePrefix + subject
		ctx := c.UserContext()

		count, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("signup rate limit unavailable", slog.Any("error", err))
			return c.Next()
		}
		if count == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if count > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(fiber.StatusTooManyRequests, "too many signup attempts, try again later")
		}
		return c.Next()
	}
}

func signupSubject(c *fiber.Ctx) string {
	var req struct {
		Username string `json:"username"`
	}
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		username = strings.ToLower(strings.TrimSpace(c.Query("username")))
	}
	if username == "" {
		return "ip:" + c.IP()
	}
	return "user:" + username
}
