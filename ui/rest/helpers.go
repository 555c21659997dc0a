package rest

import (
	"github.com/gofiber/fiber/v2"

	pkgError "github.com/crmkit/wabridge/pkg/error"
)

// writeError maps typed service errors onto the wire contract: an {error}
// body with the error's own status, 500 for anything untyped.
func writeError(c *fiber.Ctx, err error) error {
	if webErr, ok := err.(pkgError.WebError); ok {
		return c.Status(webErr.StatusCode()).JSON(fiber.Map{
			"error": webErr.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
