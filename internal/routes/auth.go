package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/auth"
)

// RegisterAuthRoutes wires the public signup endpoint.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/signup", rateLimiter, h.Signup)
		return
	}
	r.Post("/signup", h.Signup)
}
