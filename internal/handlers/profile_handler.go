package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deviljitu1/forever-flame-companion/internal/avatars"
	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	"github.com/deviljitu1/forever-flame-companion/internal/services"
	"github.com/deviljitu1/forever-flame-companion/internal/settings"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AvatarPresigner interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (*avatars.Upload, error)
}

type ProfileHandler struct {
	profileService *services.ProfileService
	avatars        AvatarPresigner
}

// NewProfileHandler wires the profile endpoints. A nil presigner disables
// avatar uploads.
func NewProfileHandler(profileService *services.ProfileService, presigner AvatarPresigner) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, avatars: presigner}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	profile, err := h.profileService.Get(c.UserContext(), userID)
	if err != nil {
		slog.Error("profile load failed", "user_id", userID.String(), "action", "profile_get", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	profile, err := h.profileService.Update(c.UserContext(), userID, &req)
	if err != nil {
		return h.fail(c, userID, "profile_update", err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) GetSettings(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	st, err := h.profileService.GetSettings(c.UserContext(), userID)
	if err != nil {
		// Unreadable blobs still yield usable defaults.
		slog.Error("settings load failed", "user_id", userID.String(), "action", "settings_get", "error", err.Error())
	}
	return c.JSON(st)
}

func (h *ProfileHandler) SaveSettings(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	st := settings.Defaults()
	if err := c.BodyParser(&st); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	saved, err := h.profileService.SaveSettings(c.UserContext(), userID, st)
	if err != nil {
		return h.fail(c, userID, "settings_save", err)
	}
	return c.JSON(saved)
}

func (h *ProfileHandler) AvatarUpload(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if h.avatars == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Avatar uploads are not configured")
	}

	var req dto.AvatarUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	upload, err := h.avatars.PresignUpload(c.UserContext(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, avatars.ErrUnsupportedType) {
			return errorJSON(c, fiber.StatusBadRequest, "Avatar must be a JPEG, PNG, WebP or GIF image")
		}
		slog.Error("avatar presign failed", "user_id", userID.String(), "action", "avatar_presign", "error", err.Error())
		return errorJSON(c, fiber.StatusBadGateway, "Could not prepare the upload, please try again")
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

func (h *ProfileHandler) fail(c *fiber.Ctx, userID uuid.UUID, action string, err error) error {
	var rejected *services.ContentRejectedError
	switch {
	case errors.As(err, &rejected):
		return errorJSON(c, fiber.StatusBadRequest, rejected.Error())
	case errors.Is(err, services.ErrDisplayNameTooLong), errors.Is(err, services.ErrInvalidAvatarURL):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	default:
		slog.Error("profile request failed", "user_id", userID.String(), "action", action, "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save profile")
	}
}
