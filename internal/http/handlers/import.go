package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dieselhub/internal/services"
	"dieselhub/internal/utils"
	"dieselhub/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// maxImportFileSize bounds uploaded catalog files
const maxImportFileSize = 20 << 20

// errNoImportData is returned when neither a file nor a JSON batch was sent
var errNoImportData = errors.New("no import data")

// ImportHandler reconciles uploaded catalog batches
type ImportHandler struct {
	importService *services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService *services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

type importOptions struct {
	Mode   string
	DryRun bool
	// dryRunSet records that the query string decided DryRun
	dryRunSet bool
}

// Import godoc
// @Summary Import catalog
// @Description Upsert or replace the catalog from a CSV/JSON file or a JSON body
// @Tags admin-import
// @Accept multipart/form-data,json
// @Produce json
// @Param mode query string false "upsert (default) or replace"
// @Param dryRun query string false "1 to validate only"
// @Param file formData file false "CSV or JSON file"
// @Success 200 {object} models.ImportReport
// @Failure 400 {object} models.ImportReport
// @Router /admin/import [post]
func (h *ImportHandler) Import(c echo.Context) error {
	_, dryRunSet := c.QueryParams()["dryRun"]
	opts := importOptions{
		Mode:      c.QueryParam("mode"),
		DryRun:    c.QueryParam("dryRun") == "1",
		dryRunSet: dryRunSet,
	}

	rows, err := readImportRows(c, &opts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	}

	report, err := h.importService.RunImport(c.Request().Context(), rows, opts.Mode, opts.DryRun)
	if errors.Is(err, services.ErrInvalidImportMode) {
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	}
	if err != nil {
		log.Error().Err(err).Msg("Catalog import failed")
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	if !report.OK {
		return c.JSON(http.StatusBadRequest, report)
	}
	return c.JSON(http.StatusOK, report)
}

// readImportRows takes rows from the multipart "file" field, else from the JSON body.
// Options found in a form or JSON body fill in what the query string left unset.
func readImportRows(c echo.Context, opts *importOptions) ([]models.ImportRow, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if opts.Mode == "" {
			opts.Mode = c.FormValue("mode")
		}
		if !opts.dryRunSet {
			opts.DryRun = c.FormValue("dryRun") == "1"
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, errNoImportData
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, maxImportFileSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return ParseImportFile(content)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return parseImportBody(body, opts)
}

// ParseImportFile reads a JSON array when the text starts with '[', else a headed CSV table
func ParseImportFile(content []byte) ([]models.ImportRow, error) {
	text, _, err := utils.DecodeText(content)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		var rows []models.ImportRow
		if err := json.Unmarshal([]byte(text), &rows); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return rows, nil
	}

	records, _, err := utils.ParseCSVRows(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return services.ImportRowsFromCSV(records), nil
}

func parseImportBody(body []byte, opts *importOptions) ([]models.ImportRow, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errNoImportData
	}

	if body[0] == '[' {
		var rows []models.ImportRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return rows, nil
	}

	var envelope struct {
		Items  []models.ImportRow `json:"items"`
		Mode   string             `json:"mode"`
		DryRun interface{}        `json:"dryRun"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if envelope.Items == nil {
		return nil, errNoImportData
	}

	if opts.Mode == "" {
		opts.Mode = envelope.Mode
	}
	if !opts.dryRunSet {
		opts.DryRun = isTruthy(envelope.DryRun)
	}
	return envelope.Items, nil
}

func isTruthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1" || strings.EqualFold(val, "true")
	case float64:
		return val == 1
	}
	return false
}
