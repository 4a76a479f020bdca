package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/services"
)

// AuthMiddleware provides authentication for API endpoints
type AuthMiddleware struct {
	authService *services.AuthService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth validates the Bearer token and stores the caller's identity in
// the request context
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authentication required",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := m.authService.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("username", user.Username)
		c.Locals("is_admin", user.IsAdmin)

		return c.Next()
	}
}

// AdminOnly middleware restricts access to admin users only
func (m *AuthMiddleware) AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isAdmin, ok := c.Locals("is_admin").(bool)
		if !ok || !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Admin access required",
			})
		}

		return c.Next()
	}
}

// GetUserFromContext retrieves user information from the request context
func GetUserFromContext(c *fiber.Ctx) (*services.AuthUser, bool) {
	userID, ok1 := c.Locals("user_id").(int64)
	username, ok2 := c.Locals("username").(string)
	isAdmin, ok3 := c.Locals("is_admin").(bool)

	if !ok1 || !ok2 || !ok3 {
		return nil, false
	}

	return &services.AuthUser{
		ID:       userID,
		Username: username,
		IsAdmin:  isAdmin,
	}, true
}
