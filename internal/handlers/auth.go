package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/middleware"
	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login handles user login requests
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return utils.SendError(c, http.StatusBadRequest, "Username and password are required")
	}

	authToken, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return utils.SendUnauthorizedError(c, "Invalid credentials")
	}

	return c.JSON(fiber.Map{
		"access_token":  authToken.AccessToken,
		"refresh_token": authToken.RefreshToken,
		"expires_in":    authToken.ExpiresIn,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// Refresh handles token refresh requests
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return utils.SendError(c, http.StatusBadRequest, "Refresh token is required")
	}

	authToken, user, err := h.authService.RefreshTokens(req.RefreshToken)
	if err != nil {
		return utils.SendUnauthorizedError(c, "Invalid refresh token")
	}

	return c.JSON(fiber.Map{
		"access_token":  authToken.AccessToken,
		"refresh_token": authToken.RefreshToken,
		"expires_in":    authToken.ExpiresIn,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// Me returns the authenticated caller's identity
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	return c.JSON(user)
}
