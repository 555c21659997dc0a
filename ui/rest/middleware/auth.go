package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/crmkit/wabridge/config"
)

// SharedSecret guards every session and message endpoint with the configured
// API key. A missing server-side secret rejects everything: failing closed
// beats running an open bridge.
func SharedSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := config.AppSecretKey
		provided := c.Get("X-Api-Key")
		if secret == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
