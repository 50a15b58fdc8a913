package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserID(t *testing.T) {
	user := uuid.New()
	tests := []struct {
		name    string
		local   any
		want    uuid.UUID
		wantErr bool
	}{
		{"valid", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": user.String()}), user, false},
		{"no token", nil, uuid.Nil, true},
		{"missing sub", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}), uuid.Nil, true},
		{"not a uuid", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}), uuid.Nil, true},
		{"nil uuid", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.Nil.String()}), uuid.Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.local != nil {
					c.Locals(ContextKey, tt.local)
				}
				got, err := GetUserID(c)
				if tt.wantErr {
					assert.Error(t, err)
				} else {
					assert.NoError(t, err)
				}
				assert.Equal(t, tt.want, got)
				return nil
			})
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			_ = resp.Body.Close()
		})
	}
}
