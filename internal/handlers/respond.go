package handlers

import (
	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
