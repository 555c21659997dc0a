package rest

import (
	"github.com/gofiber/fiber/v2"

	domainSession "github.com/crmkit/wabridge/domains/session"
)

type Session struct {
	Service domainSession.IUsecase
}

func InitRestSession(app fiber.Router, service domainSession.IUsecase) Session {
	handler := Session{Service: service}

	app.Post("/sessions/start", handler.Start)
	app.Delete("/sessions/:id", handler.Disconnect)
	app.Get("/sessions/:id/status", handler.Status)
	app.Get("/sessions", handler.List)

	return handler
}

func (handler *Session) Start(c *fiber.Ctx) error {
	var request domainSession.StartRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := handler.Service.Start(c.UserContext(), request); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (handler *Session) Disconnect(c *fiber.Ctx) error {
	if err := handler.Service.Disconnect(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (handler *Session) Status(c *fiber.Ctx) error {
	response, err := handler.Service.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(response)
}

func (handler *Session) List(c *fiber.Ctx) error {
	sessions, err := handler.Service.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}
