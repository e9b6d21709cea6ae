package handlers

import (
	"net/http"

	"dieselhub/internal/services"

	"github.com/labstack/echo/v4"
)

// SystemHandler serves health and diagnostics
type SystemHandler struct {
	productService *services.ProductService
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(productService *services.ProductService) *SystemHandler {
	return &SystemHandler{productService: productService}
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /health [get]
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// DebugDB godoc
// @Summary Database diagnostics
// @Description Reports whether the catalog table is reachable and its size
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /debug/db [get]
func (h *SystemHandler) DebugDB(c echo.Context) error {
	count, err := h.productService.Count(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"ok":            false,
			"productsCount": 0,
			"error":         err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":            true,
		"productsCount": count,
		"error":         nil,
	})
}
