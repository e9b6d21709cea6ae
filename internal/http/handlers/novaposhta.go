package handlers

import (
	"net/http"

	"dieselhub/internal/novaposhta"

	"github.com/labstack/echo/v4"
)

// NovaPoshtaHandler proxies city and branch lookups
type NovaPoshtaHandler struct {
	service *novaposhta.Service
}

// NewNovaPoshtaHandler creates a new Nova Poshta handler
func NewNovaPoshtaHandler(service *novaposhta.Service) *NovaPoshtaHandler {
	return &NovaPoshtaHandler{service: service}
}

// Settlements godoc
// @Summary Search cities
// @Tags novaposhta
// @Produce json
// @Param q query string true "City name, at least 2 characters"
// @Param limit query int false "1..50, default 20"
// @Success 200 {array} novaposhta.Settlement
// @Router /np/settlements [get]
func (h *NovaPoshtaHandler) Settlements(c echo.Context) error {
	list := h.service.Settlements(c.Request().Context(), c.QueryParam("q"), novaposhta.ClampLimit(c.QueryParam("limit")))
	return c.JSON(http.StatusOK, list)
}

// Warehouses godoc
// @Summary List branches or parcel lockers of a city
// @Tags novaposhta
// @Produce json
// @Param cityRef query string true "Settlement Ref"
// @Param type query string false "warehouse (default) or postomat"
// @Success 200 {array} novaposhta.Warehouse
// @Router /np/warehouses [get]
func (h *NovaPoshtaHandler) Warehouses(c echo.Context) error {
	list := h.service.Warehouses(c.Request().Context(), c.QueryParam("cityRef"), c.QueryParam("type"))
	return c.JSON(http.StatusOK, list)
}

// LegacyRedirect sends old /api/nova/* clients to the matching /api/np/* route
func LegacyRedirect(target string) echo.HandlerFunc {
	return func(c echo.Context) error {
		location := target
		if raw := c.Request().URL.RawQuery; raw != "" {
			location += "?" + raw
		}
		return c.Redirect(http.StatusTemporaryRedirect, location)
	}
}
