package pray

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/auth"
	"github.com/pray-app/pray_api/internal/billing"
)

// Handler exposes prayer request endpoints. Every route expects the bearer
// middleware to have stored the current user.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a pray handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type prayBody struct {
	LiveNames []string `json:"live_names"`
	RipNames  []string `json:"rip_names"`
	Typing    string   `json:"typing"`
}

// createRequest accepts the fields flat or wrapped in a "pray" object.
type createRequest struct {
	prayBody
	Pray *prayBody `json:"pray"`
}

type prayResponse struct {
	ID            int64     `json:"id"`
	Category      Category  `json:"pray_category"`
	LiveNames     []string  `json:"live_names"`
	RipNames      []string  `json:"rip_names"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

type namesResponse struct {
	Category  Category `json:"pray_category"`
	Title     string   `json:"title,omitempty"`
	LiveNames []string `json:"live_names"`
	RipNames  []string `json:"rip_names"`
}

// Create handles POST /pray.
func (h *Handler) Create(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	body := req.prayBody
	if req.Pray != nil {
		body = *req.Pray
	}

	created, err := h.service.Create(c.UserContext(), user.ID, CreateInput{
		LiveNames: body.LiveNames,
		RipNames:  body.RipNames,
		Category:  body.Typing,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":            created.Pray.ID,
		"pray_category": created.Pray.Category,
		"pay_url":       created.Payment.PayURL,
	})
}

// Get handles GET /user/pray/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toPrayResponse(p))
}

// Delete handles DELETE /user/pray/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := h.service.Delete(c.UserContext(), user, id)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{"id": p.ID, "status": "deleted"})
}

// PayURL handles GET /user/pray/pay/:id. With ?redirect=true the client is
// sent straight to the provider.
func (h *Handler) PayURL(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}
	payment, err := h.service.PayURL(c.UserContext(), user, id)
	if err != nil {
		return h.fail(err)
	}
	if c.QueryBool("redirect") {
		return c.Redirect(payment.PayURL, http.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"id": payment.PrayID, "pay_url": payment.PayURL, "payment_status": payment.Status})
}

// CheckStatus handles GET /check/status/:id.
func (h *Handler) CheckStatus(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := h.service.CheckStatus(c.UserContext(), user, id)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{"id": p.ID, "payment_status": p.Status, "pray": toPrayResponse(p)})
}

// PaidNames handles GET /get_full_prays_paid/:category.
func (h *Handler) PaidNames(c *fiber.Ctx) error {
	names, err := h.service.PaidNames(c.UserContext(), c.Params("category"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusBadRequest, "names not found")
		}
		return h.fail(err)
	}
	return c.JSON(toNamesResponse(names, false))
}

// PaidSummary handles GET /get_full_prays_paid/.
func (h *Handler) PaidSummary(c *fiber.Ctx) error {
	summary, err := h.service.PaidSummary(c.UserContext())
	if err != nil {
		return h.fail(err)
	}
	out := make([]namesResponse, 0, len(summary))
	for _, names := range summary {
		out = append(out, toNamesResponse(names, true))
	}
	return c.JSON(fiber.Map{"pray_categories": out})
}

func (h *Handler) target(c *fiber.Ctx) (int64, int64, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return 0, 0, fiber.NewError(http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, 0, fiber.NewError(http.StatusBadRequest, ErrNotFound.Error())
	}
	return user.ID, int64(id), nil
}

func (h *Handler) fail(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusBadRequest, ErrNotFound.Error())
	case IsValidation(err):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBillNotIssued):
		return fiber.NewError(http.StatusInternalServerError, "payment provider did not issue a bill")
	case errors.Is(err, billing.ErrProvider):
		h.logger.Warn("payment provider failure", slog.Any("error", err))
		return fiber.NewError(http.StatusBadGateway, "payment provider unavailable")
	default:
		h.logger.Error("pray request failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}

func toPrayResponse(p Pray) prayResponse {
	return prayResponse{
		ID:            p.ID,
		Category:      p.Category,
		LiveNames:     nonNil(p.LiveNames),
		RipNames:      nonNil(p.RipNames),
		PaymentStatus: p.Status,
		CreatedAt:     p.CreatedAt,
	}
}

func toNamesResponse(names PaidNames, withTitle bool) namesResponse {
	resp := namesResponse{Category: names.Category, LiveNames: nonNil(names.LiveNames), RipNames: nonNil(names.RipNames)}
	if withTitle {
		resp.Title = names.Category.Title()
	}
	return resp
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
