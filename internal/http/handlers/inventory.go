package handlers

import (
	"net/http"

	"dieselhub/internal/services"
	"dieselhub/pkg/models"

	"github.com/labstack/echo/v4"
)

// InventoryHandler receives stock pushes from the spreadsheet export
type InventoryHandler struct {
	inventoryService *services.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// Sync godoc
// @Summary Sync stock levels
// @Description Set qty by sku (falling back to number) and log the movement
// @Tags inventory
// @Accept json
// @Produce json
// @Param x-sync-key header string true "Sync key"
// @Param request body models.InventorySyncRequest true "Stock lines"
// @Success 200 {object} models.InventorySyncResult
// @Failure 401 {object} map[string]interface{}
// @Router /inventory/sync [post]
func (h *InventoryHandler) Sync(c echo.Context) error {
	var req models.InventorySyncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Invalid request"})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"ok": false, "error": err.Error()})
	}

	return c.JSON(http.StatusOK, h.inventoryService.Sync(c.Request().Context(), &req))
}
