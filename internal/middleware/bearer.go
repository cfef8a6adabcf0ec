package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/auth"
)

const bearerPrefix = "bearer "

// BearerAuth resolves the Authorization bearer token to a user and stores it
// for the downstream handlers. Any failure answers 401 with a Bearer challenge.
func BearerAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return unauthorized(c, "could not validate credentials")
		}
		token := strings.TrimSpace(header[len(bearerPrefix):])

		user, err := svc.Authenticate(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "could not validate credentials")
		}
		auth.SetCurrentUser(c, user)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return fiber.NewError(fiber.StatusUnauthorized, msg)
}
