package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/pray"
)

// RegisterPrayRoutes wires prayer request endpoints onto an authenticated router.
func RegisterPrayRoutes(r fiber.Router, h *pray.Handler, idempotency fiber.Handler) {
	r.Post("/pray", idempotency, h.Create)

	r.Get("/user/pray/pay/:id", h.PayURL)
	r.Get("/user/pray/:id", h.Get)
	r.Delete("/user/pray/:id", h.Delete)

	r.Get("/check/status/:id", h.CheckStatus)

	r.Get("/get_full_prays_paid/", h.PaidSummary)
	r.Get("/get_full_prays_paid/:category", h.PaidNames)
}
