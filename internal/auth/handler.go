package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/identity"
)

// Handler exposes signup and profile endpoints.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds the auth HTTP handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type signupRequest struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// Signup registers a username and returns its access token. The username may
// come from a JSON or form body, or from the query string.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if req.Username == "" {
		req.Username = c.Query("username")
	}

	resp, err := h.svc.Signup(c.UserContext(), identity.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUsernameTaken):
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return fiber.NewError(http.StatusUnauthorized, "incorrect username")
		case errors.Is(err, identity.ErrInvalidUsername):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("signup failed", slog.String("username", req.Username), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "signup failed")
		}
	}

	h.logger.Info("signup completed", slog.String("username", req.Username))
	return c.Status(http.StatusOK).JSON(resp)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, ErrUnauthenticated.Error())
	}
	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

const userLocalsKey = "user"

// SetCurrentUser stores the authenticated user on the request context.
func SetCurrentUser(c *fiber.Ctx, user identity.User) {
	c.Locals(userLocalsKey, user)
}

// CurrentUser returns the user stored by the bearer middleware.
func CurrentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(userLocalsKey).(identity.User)
	return user, ok
}
