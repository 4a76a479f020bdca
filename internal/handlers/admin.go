package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// AdminHandler exposes operator-only endpoints
type AdminHandler struct {
	repo *services.Repository
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(repo *services.Repository) *AdminHandler {
	return &AdminHandler{repo: repo}
}

// ListLookupEvents returns recent provider lookup activity across all users
func (h *AdminHandler) ListLookupEvents(c *fiber.Ctx) error {
	events, err := h.repo.ListLookupEvents(c.QueryInt("limit", 100))
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch lookup events")
	}

	return c.JSON(fiber.Map{"data": events})
}
