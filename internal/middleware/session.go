package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/websession"
)

// RequireSession rejects requests without a signed-in user. It must run
// after websession.Middleware.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := websession.RequireUsername(websession.From(c)); err != nil {
			return err
		}
		return c.Next()
	}
}
