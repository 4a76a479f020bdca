package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/middleware"
	"vinyldex/internal/models"
	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// ColumnsHandler handles custom column and column value requests
type ColumnsHandler struct {
	repo *services.Repository
}

// NewColumnsHandler creates a new columns handler
func NewColumnsHandler(repo *services.Repository) *ColumnsHandler {
	return &ColumnsHandler{
		repo: repo,
	}
}

type columnRequest struct {
	Name     string               `json:"name"`
	Kind     string               `json:"kind"`
	Options  models.ColumnOptions `json:"options"`
	Position int32                `json:"position"`
}

func validateColumnRequest(req *columnRequest) (string, bool) {
	if req.Name == "" {
		return "Column name is required", false
	}
	if !models.ValidColumnKind(req.Kind) {
		return "Unknown column kind", false
	}
	needsOptions := req.Kind == models.ColumnKindSingleSelect || req.Kind == models.ColumnKindMultiSelect
	if needsOptions && len(req.Options) == 0 {
		return "Select columns need at least one option", false
	}
	return "", true
}

// ListColumns handles retrieving the user's custom columns in display order
func (h *ColumnsHandler) ListColumns(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	columns, err := h.repo.ListColumns(user.ID)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch columns")
	}

	return c.JSON(fiber.Map{"data": columns})
}

// CreateColumn handles defining a new custom column
func (h *ColumnsHandler) CreateColumn(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	var req columnRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg, ok := validateColumnRequest(&req); !ok {
		return utils.SendValidationError(c, "column", msg)
	}

	column := &models.CustomColumn{
		UserID:   user.ID,
		Name:     req.Name,
		Kind:     req.Kind,
		Options:  req.Options,
		Position: req.Position,
	}

	if err := h.repo.CreateColumn(column); err != nil {
		return utils.SendInternalServerError(c, "Failed to create column")
	}

	return c.Status(http.StatusCreated).JSON(column)
}

// UpdateColumn handles renaming a column or editing its options. The kind is
// fixed after creation since stored values depend on it.
func (h *ColumnsHandler) UpdateColumn(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	columnID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid column ID")
	}

	column, err := h.repo.GetColumnByID(user.ID, columnID)
	if err != nil {
		return utils.SendNotFoundError(c, "Column")
	}

	var req columnRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Kind != "" && req.Kind != column.Kind {
		return utils.SendValidationError(c, "kind", "Column kind cannot be changed")
	}
	req.Kind = column.Kind
	if msg, ok := validateColumnRequest(&req); !ok {
		return utils.SendValidationError(c, "column", msg)
	}

	column.Name = req.Name
	column.Options = req.Options
	column.Position = req.Position

	if err := h.repo.UpdateColumn(column); err != nil {
		return utils.SendInternalServerError(c, "Failed to update column")
	}

	return c.JSON(column)
}

// DeleteColumn handles removing a column and all of its values
func (h *ColumnsHandler) DeleteColumn(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	columnID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid column ID")
	}

	if err := h.repo.DeleteColumn(user.ID, columnID); err != nil {
		return utils.SendNotFoundError(c, "Column")
	}

	return c.SendStatus(http.StatusNoContent)
}

// SetValue handles setting a custom column value on a record
func (h *ColumnsHandler) SetValue(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}
	columnID, err := strconv.ParseInt(c.Params("columnId"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid column ID")
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}

	err = h.repo.SetColumnValue(user.ID, recordID, columnID, req.Value)
	if err != nil {
		if errors.Is(err, services.ErrInvalidColumnValue) {
			return utils.SendValidationError(c, "value", err.Error())
		}
		return utils.SendNotFoundError(c, "Record or column")
	}

	return c.JSON(fiber.Map{
		"record_id": recordID,
		"column_id": columnID,
		"value":     req.Value,
	})
}

// DeleteValue handles clearing a custom column value from a record
func (h *ColumnsHandler) DeleteValue(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}
	columnID, err := strconv.ParseInt(c.Params("columnId"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid column ID")
	}

	if err := h.repo.DeleteColumnValue(user.ID, recordID, columnID); err != nil {
		return utils.SendNotFoundError(c, "Value")
	}

	return c.SendStatus(http.StatusNoContent)
}
