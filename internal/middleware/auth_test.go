package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinyldex/internal/services"
	"vinyldex/internal/test"
)

func TestRequireAuth(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	auth := services.NewAuthService(db, "test-secret", 15*time.Minute, time.Hour)
	test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")

	token, _, err := auth.Login("collector", "Str0ngPassw0rd!")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(NewAuthMiddleware(auth).RequireAuth())
	app.Get("/me", func(c *fiber.Ctx) error {
		user, ok := GetUserFromContext(c)
		require.True(t, ok)
		return c.JSON(user)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestAdminOnly(t *testing.T) {
	app := fiber.New()

	middleware := &AuthMiddleware{}
	app.Get("/admin", func(c *fiber.Ctx) error {
		c.Locals("is_admin", false)
		return c.Next()
	}, middleware.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/admin-ok", func(c *fiber.Ctx) error {
		c.Locals("is_admin", true)
		return c.Next()
	}, middleware.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/admin-ok", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
