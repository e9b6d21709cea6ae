package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dieselhub/pkg/models"
)

// ExportHeader is the column order of the CSV export, also accepted by the importer
var ExportHeader = []string{
	"id", "number", "oem", "cross", "manufacturer", "condition", "type",
	"engine", "availability", "qty", "price", "images",
}

// CatalogLister reads the whole catalog
type CatalogLister interface {
	ListAll(ctx context.Context) ([]models.Product, error)
}

// ExportService produces the flat catalog rows
type ExportService struct {
	products CatalogLister
}

// NewExportService creates a new export service
func NewExportService(products CatalogLister) *ExportService {
	return &ExportService{products: products}
}

// Rows returns every catalog row in export shape, ordered by id
func (s *ExportService) Rows(ctx context.Context) ([]models.ExportRow, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return ExportRows(products), nil
}

// ExportRows flattens list fields with '|'
func ExportRows(products []models.Product) []models.ExportRow {
	rows := make([]models.ExportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, models.ExportRow{
			ID:           p.ID,
			Number:       p.Number,
			OEM:          p.OEM,
			Cross:        strings.Join(p.Cross, "|"),
			Manufacturer: p.Manufacturer,
			Condition:    p.Condition,
			Type:         p.Type,
			Engine:       p.Engine,
			Availability: p.Availability,
			Qty:          p.Qty,
			Price:        p.Price,
			Images:       strings.Join(p.Images, "|"),
		})
	}
	return rows
}

// WriteCSV writes rows with a header line; an empty catalog yields an empty body
func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	if len(rows) == 0 {
		return nil
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		engine := ""
		if r.Engine != nil {
			engine = strconv.FormatFloat(*r.Engine, 'f', -1, 64)
		}
		record := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Number,
			r.OEM,
			r.Cross,
			r.Manufacturer,
			r.Condition,
			r.Type,
			engine,
			r.Availability,
			strconv.Itoa(r.Qty),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Images,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ImportRowsFromCSV converts parsed CSV maps into importer rows
func ImportRowsFromCSV(records []map[string]string) []models.ImportRow {
	rows := make([]models.ImportRow, 0, len(records))
	for _, record := range records {
		row := make(models.ImportRow, len(record))
		for k, v := range record {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}
