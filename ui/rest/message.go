package rest

import (
	"github.com/gofiber/fiber/v2"

	domainSend "github.com/crmkit/wabridge/domains/send"
	pkgError "github.com/crmkit/wabridge/pkg/error"
)

type Message struct {
	Service domainSend.IUsecase
}

func InitRestMessage(app fiber.Router, service domainSend.IUsecase) Message {
	handler := Message{Service: service}

	app.Post("/messages/send", handler.Send)

	return handler
}

func (handler *Message) Send(c *fiber.Ctx) error {
	var request domainSend.Request
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	response, err := handler.Service.Send(c.UserContext(), request)
	if err != nil {
		if webErr, ok := err.(pkgError.WebError); ok {
			return c.Status(webErr.StatusCode()).JSON(fiber.Map{"error": webErr.Error()})
		}
		// Dispatch failures keep the send contract: success flag plus error.
		return c.Status(fiber.StatusInternalServerError).JSON(domainSend.Response{
			Success: false,
			Error:   err.Error(),
		})
	}
	return c.JSON(response)
}
