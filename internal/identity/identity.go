// Package identity reads the authenticated user from a verified JWT.
// Tokens are issued by the external auth service; the subject claim is the
// user's UUID.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is where the JWT middleware stores the parsed token.
const ContextKey = "user"

var ErrNoIdentity = errors.New("no authenticated user")

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, ErrNoIdentity
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, errors.New("missing sub claim")
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("sub claim is not a user id")
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}
