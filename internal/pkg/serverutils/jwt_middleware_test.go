// FILE: internal/pkg/serverutils/jwt_middleware_test.go
package serverutils

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ai-docchat-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWithClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestJwtMiddleware(t *testing.T) {
	os.Setenv("JWT_SECRET", testSecret)
	defer os.Unsetenv("JWT_SECRET")

	sessions := identity.NewBroker()

	var gotLocal string
	var gotSession *identity.Session
	app := fiber.New()
	app.Use(JwtMiddleware)
	app.Get("/", func(ctx *fiber.Ctx) error {
		gotLocal = ctx.Locals("user_id").(string)
		gotSession, _ = sessions.Current(ctx.UserContext())
		return ctx.SendStatus(fiber.StatusOK)
	})

	t.Run("valid token binds the session", func(t *testing.T) {
		userId := uuid.New()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signWithClaims(t, jwt.MapClaims{
			"user_id": userId.String(),
			"email":   "user@acme.test",
		}))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, userId.String(), gotLocal)
		require.NotNil(t, gotSession)
		assert.Equal(t, userId, gotSession.UserId)
		assert.Equal(t, "user@acme.test", gotSession.Email)
	})

	t.Run("token without user_id is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signWithClaims(t, jwt.MapClaims{
			"email": "user@acme.test",
		}))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token with malformed user_id is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signWithClaims(t, jwt.MapClaims{
			"user_id": 42,
		}))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
