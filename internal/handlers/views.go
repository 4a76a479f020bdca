package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"vinyldex/internal/middleware"
	"vinyldex/internal/models"
	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// ViewsHandler handles saved table view requests
type ViewsHandler struct {
	repo *services.Repository
}

// NewViewsHandler creates a new views handler
func NewViewsHandler(repo *services.Repository) *ViewsHandler {
	return &ViewsHandler{
		repo: repo,
	}
}

type viewRequest struct {
	Name          string         `json:"name"`
	SortField     string         `json:"sort_field"`
	SortDirection string         `json:"sort_direction"`
	Filters       datatypes.JSON `json:"filters"`
	ColumnWidths  datatypes.JSON `json:"column_widths"`
	HiddenColumns []string       `json:"hidden_columns"`
	PageSize      int32          `json:"page_size"`
	IsDefault     bool           `json:"is_default"`
}

func (req *viewRequest) validate() (string, bool) {
	if req.Name == "" {
		return "View name is required", false
	}
	if req.SortDirection != "" && req.SortDirection != "asc" && req.SortDirection != "desc" {
		return "Sort direction must be asc or desc", false
	}
	return "", true
}

// ListViews handles retrieving the user's saved views, default first
func (h *ViewsHandler) ListViews(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	views, err := h.repo.ListViews(user.ID)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch views")
	}

	return c.JSON(fiber.Map{"data": views})
}

// CreateView handles saving a new table view
func (h *ViewsHandler) CreateView(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	var req viewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg, ok := req.validate(); !ok {
		return utils.SendValidationError(c, "view", msg)
	}

	view := &models.TableView{
		UserID:        user.ID,
		Name:          req.Name,
		SortField:     req.SortField,
		SortDirection: req.SortDirection,
		Filters:       req.Filters,
		ColumnWidths:  req.ColumnWidths,
		HiddenColumns: models.StringList(req.HiddenColumns),
		PageSize:      req.PageSize,
		IsDefault:     req.IsDefault,
	}

	if err := h.repo.CreateView(view); err != nil {
		return utils.SendInternalServerError(c, "Failed to create view")
	}

	return c.Status(http.StatusCreated).JSON(view)
}

// UpdateView handles editing a saved view
func (h *ViewsHandler) UpdateView(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	viewID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid view ID")
	}

	view, err := h.repo.GetViewByID(user.ID, viewID)
	if err != nil {
		return utils.SendNotFoundError(c, "View")
	}

	var req viewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg, ok := req.validate(); !ok {
		return utils.SendValidationError(c, "view", msg)
	}

	view.Name = req.Name
	view.SortField = req.SortField
	view.SortDirection = req.SortDirection
	view.Filters = req.Filters
	view.ColumnWidths = req.ColumnWidths
	view.HiddenColumns = models.StringList(req.HiddenColumns)
	view.PageSize = req.PageSize
	view.IsDefault = req.IsDefault

	if err := h.repo.UpdateView(view); err != nil {
		return utils.SendInternalServerError(c, "Failed to update view")
	}

	return c.JSON(view)
}

// DeleteView handles removing a saved view
func (h *ViewsHandler) DeleteView(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	viewID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid view ID")
	}

	if err := h.repo.DeleteView(user.ID, viewID); err != nil {
		return utils.SendNotFoundError(c, "View")
	}

	return c.SendStatus(http.StatusNoContent)
}
