package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/crmkit/wabridge/pkg/error"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				logrus.Errorf("Panic recovered in middleware: %v", err)

				status := fiber.StatusInternalServerError
				message := fmt.Sprintf("%v", err)
				if webErr, ok := err.(pkgError.WebError); ok {
					status = webErr.StatusCode()
					message = webErr.Error()
				}

				_ = ctx.Status(status).JSON(fiber.Map{"error": message})
			}
		}()

		return ctx.Next()
	}
}
