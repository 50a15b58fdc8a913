package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/deviljitu1/forever-flame-companion/internal/config"
	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired admits operators. It checks, in order:
// 1. The X-Admin-Token header against ADMIN_TOKEN
// 2. The verified JWT subject against ADMIN_USER_IDS
//
// Mount it behind JWTOrAdminToken.
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		// Check admin token header
		if cfg.AdminToken != "" {
			got := c.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		userID, err := identity.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(adminUserIDs, userID.String()) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
