package rest

import (
	"github.com/gofiber/fiber/v2"

	domainHealth "github.com/crmkit/wabridge/domains/health"
)

type Health struct {
	Service domainHealth.IUsecase
}

func InitRestHealth(app fiber.Router, service domainHealth.IUsecase) Health {
	handler := Health{Service: service}

	app.Get("/health", handler.Check)

	return handler
}

func (handler *Health) Check(c *fiber.Ctx) error {
	return c.JSON(handler.Service.Check(c.UserContext()))
}
