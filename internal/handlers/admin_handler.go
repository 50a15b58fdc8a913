package handlers

import (
	"context"
	"log/slog"

	"github.com/deviljitu1/forever-flame-companion/internal/logging"
	"github.com/deviljitu1/forever-flame-companion/internal/partnership"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Reconciler interface {
	RunOnce(ctx context.Context) (partnership.Report, error)
}

// AdminHandler serves operator endpoints: on-demand link repair and the
// persisted error log.
type AdminHandler struct {
	reconciler Reconciler
	db         *gorm.DB
}

func NewAdminHandler(reconciler Reconciler, db *gorm.DB) *AdminHandler {
	return &AdminHandler{reconciler: reconciler, db: db}
}

// POST /api/admin/reconcile
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.reconciler.RunOnce(c.UserContext())
	if err != nil {
		slog.Error("manual reconcile failed", "action", "reconcile", "error", err.Error())
		return errorJSON(c, fiber.StatusBadGateway, "Reconcile failed")
	}
	slog.Info("manual reconcile completed",
		"action", "reconcile",
		"linked", report.Linked,
		"cleared", report.Cleared,
		"failed", report.Failed,
		"conflicts", report.Conflicts,
	)
	return c.JSON(report)
}

// GET /api/admin/logs
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := logging.Recent(c.UserContext(), h.db, logging.LogFilter{
		Level:         c.Query("level"),
		UserID:        c.Query("user_id"),
		PartnershipID: c.Query("partnership_id"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		slog.Error("log listing failed", "action", "admin_logs", "error", err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch logs")
	}

	return c.JSON(fiber.Map{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
