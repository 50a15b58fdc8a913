package handlers

import (
	"errors"
	"log/slog"

	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	"github.com/deviljitu1/forever-flame-companion/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MoodHandler struct {
	moodService *services.MoodService
}

func NewMoodHandler(moodService *services.MoodService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

func (h *MoodHandler) Log(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.LogMoodRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	entry, err := h.moodService.Log(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMood) || errors.Is(err, services.ErrNoteTooLong) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error("mood log failed", "user_id", userID.String(), "action", "mood_log", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to log mood")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *MoodHandler) List(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	entries, err := h.moodService.List(c.UserContext(), userID, c.QueryInt("limit", 20))
	if err != nil {
		slog.Error("mood list failed", "user_id", userID.String(), "action", "mood_list", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load moods")
	}
	return c.JSON(fiber.Map{"moods": entries})
}

func (h *MoodHandler) Partner(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.moodService.PartnerMood(c.UserContext(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoPartner), errors.Is(err, services.ErrNoPartnerMood):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrMoodNotShared):
			return errorJSON(c, fiber.StatusForbidden, err.Error())
		}
		slog.Error("partner mood failed", "user_id", userID.String(), "action", "mood_partner", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load partner mood")
	}
	return c.JSON(resp)
}
