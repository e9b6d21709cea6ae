package handlers

import (
	"bytes"
	"net/http"

	"dieselhub/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ExportHandler serves catalog downloads in the importer's row shape
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportJSON godoc
// @Summary Export catalog as JSON
// @Tags admin-export
// @Produce json
// @Success 200 {array} models.ExportRow
// @Failure 500 {object} map[string]string
// @Router /admin/export.json [get]
func (h *ExportHandler) ExportJSON(c echo.Context) error {
	rows, err := h.exportService.Rows(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to export catalog")
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=products.json")
	return c.JSON(http.StatusOK, rows)
}

// ExportCSV godoc
// @Summary Export catalog as CSV
// @Tags admin-export
// @Produce text/csv
// @Success 200 {string} string "CSV file content"
// @Failure 500 {object} map[string]string
// @Router /admin/export.csv [get]
func (h *ExportHandler) ExportCSV(c echo.Context) error {
	rows, err := h.exportService.Rows(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to export catalog")
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, rows); err != nil {
		log.Error().Err(err).Msg("Failed to write catalog CSV")
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=products.csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
