package middleware

import (
	"github.com/deviljitu1/forever-flame-companion/internal/config"
	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected verifies the HS256 bearer token and requires a user id subject.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtProtected(cfg, nil)
}

// JWTOrAdminToken is JWTProtected for admin routes: requests carrying an
// X-Admin-Token header skip token verification and are left to AdminRequired.
func JWTOrAdminToken(cfg *config.Config) fiber.Handler {
	return jwtProtected(cfg, func(c *fiber.Ctx) bool {
		return cfg.AdminToken != "" && c.Get("X-Admin-Token") != ""
	})
}

func jwtProtected(cfg *config.Config, filter func(*fiber.Ctx) bool) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Filter:     filter,
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: identity.ContextKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			userID, err := identity.GetUserID(c)
			if err != nil {
				return unauthorized(c)
			}
			c.Locals("user_id", userID.String())
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
