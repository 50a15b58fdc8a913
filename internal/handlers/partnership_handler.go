package handlers

import (
	"errors"
	"log/slog"

	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	"github.com/deviljitu1/forever-flame-companion/internal/invite"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/deviljitu1/forever-flame-companion/internal/partnership"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const partialLinkWarning = "Partnership saved. Your profiles are still syncing and will update shortly."

type PartnershipHandler struct {
	service       *partnership.Service
	inviteBaseURL string
}

func NewPartnershipHandler(service *partnership.Service, inviteBaseURL string) *PartnershipHandler {
	return &PartnershipHandler{service: service, inviteBaseURL: inviteBaseURL}
}

// GET /api/partnerships
func (h *PartnershipHandler) Overview(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	overview, err := h.service.Overview(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(overview)
}

// GET /api/partnerships/invite
func (h *PartnershipHandler) Invite(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	code, err := h.service.Invite(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	link, err := invite.Link(h.inviteBaseURL, code)
	if err != nil {
		slog.Error("invite link build failed", "user_id", userID.String(), "action", "invite_link", "error", err.Error())
		link = ""
	}
	return c.JSON(dto.InviteResponse{Code: code, Link: link})
}

// POST /api/partnerships/join
func (h *PartnershipHandler) Join(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.JoinPartnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := h.service.Join(c.UserContext(), userID, req.Code)
	return h.respond(c, fiber.StatusCreated, p, err)
}

// POST /api/partnerships/:id/accept
func (h *PartnershipHandler) Accept(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid partnership ID")
	}

	p, err := h.service.Accept(c.UserContext(), userID, id)
	return h.respond(c, fiber.StatusOK, p, err)
}

// DELETE /api/partnerships/:id/decline
func (h *PartnershipHandler) Decline(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid partnership ID")
	}

	err = h.service.Decline(c.UserContext(), userID, id)
	return h.removed(c, "Partnership request declined", err)
}

// DELETE /api/partnerships/:id
func (h *PartnershipHandler) End(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid partnership ID")
	}

	err = h.service.End(c.UserContext(), userID, id)
	return h.removed(c, "Partnership ended", err)
}

func (h *PartnershipHandler) respond(c *fiber.Ctx, status int, p *models.Partnership, err error) error {
	if errors.Is(err, partnership.ErrPartialLink) && p != nil {
		report(c, err)
		return c.Status(fiber.StatusAccepted).JSON(dto.PartnershipResponse{
			Partnership: p,
			Warning:     partialLinkWarning,
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(status).JSON(dto.PartnershipResponse{Partnership: p})
}

func (h *PartnershipHandler) removed(c *fiber.Ctx, message string, err error) error {
	if errors.Is(err, partnership.ErrPartialLink) {
		report(c, err)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": message,
			"warning": "Your profile will finish updating shortly.",
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

func (h *PartnershipHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, partnership.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, "That invite code doesn't look right. Codes are 8 letters or digits.")
	case errors.Is(err, partnership.ErrNoSuchInviter):
		return errorJSON(c, fiber.StatusNotFound, "No one has this invite code. Double-check it with your partner.")
	case errors.Is(err, partnership.ErrAmbiguousCode):
		return errorJSON(c, fiber.StatusConflict, "This invite code matches more than one account. Please contact support.")
	case errors.Is(err, partnership.ErrAlreadyPartnered):
		return errorJSON(c, fiber.StatusConflict, "You're already connected with a partner.")
	case errors.Is(err, partnership.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Partnership not found")
	case errors.Is(err, partnership.ErrNotAuthorized):
		return errorJSON(c, fiber.StatusForbidden, "Only the invited partner can accept this request")
	case errors.Is(err, partnership.ErrNotPending):
		return errorJSON(c, fiber.StatusConflict, "This partnership is no longer pending")
	case errors.Is(err, partnership.ErrLookupFailure):
		slog.Error("partnership store failure", "action", "partnership", "error", err.Error())
		return errorJSON(c, fiber.StatusBadGateway, "We couldn't reach the partnership service. Please try again.")
	default:
		slog.Error("partnership request failed", "action", "partnership", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// report forwards err to Sentry when the request carries a hub.
func report(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}
