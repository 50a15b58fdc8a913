package handlers

import (
	"errors"
	"log/slog"

	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	"github.com/deviljitu1/forever-flame-companion/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	coachService *services.CoachService
}

func NewChatHandler(coachService *services.CoachService) *ChatHandler {
	return &ChatHandler{coachService: coachService}
}

// POST /api/chat
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	reply, err := h.coachService.Ask(c.UserContext(), userID, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) || errors.Is(err, services.ErrMessageTooLong) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error("chat failed", "user_id", userID.String(), "action", "chat", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to get a reply")
	}
	return c.JSON(reply)
}
