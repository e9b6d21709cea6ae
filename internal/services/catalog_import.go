package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dieselhub/internal/metrics"
	"dieselhub/internal/utils"
	"dieselhub/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Ambiguous-match policies for ResolveExisting
const (
	AmbiguousPolicyFirst  = "first"
	AmbiguousPolicyReview = "review"
)

// candidateLimit bounds the substring pre-filter
const candidateLimit = 50

var (
	// ErrAmbiguousMatch is reported per row under the review policy
	ErrAmbiguousMatch = errors.New("ambiguous match: several catalog rows contain this key and none equals it")
	// ErrInvalidImportMode rejects modes other than upsert and replace
	ErrInvalidImportMode = errors.New("mode must be upsert or replace")
)

// CatalogStore is the persistence the reconciler writes through
type CatalogStore interface {
	FindByKeyFragments(ctx context.Context, keys []string, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	UpdateFields(ctx context.Context, id uint, product *models.Product) error
	DeleteAll(ctx context.Context) error
}

// ImportService reconciles loosely structured rows into the catalog
type ImportService struct {
	store           CatalogStore
	ambiguousPolicy string
	metrics         *metrics.Metrics
}

// NewImportService creates a reconciler. Unknown policies fall back to "first".
func NewImportService(store CatalogStore, ambiguousPolicy string, m *metrics.Metrics) *ImportService {
	if ambiguousPolicy != AmbiguousPolicyReview {
		ambiguousPolicy = AmbiguousPolicyFirst
	}
	return &ImportService{
		store:           store,
		ambiguousPolicy: ambiguousPolicy,
		metrics:         m,
	}
}

var keyStripper = strings.NewReplacer("-", "", "_", "", ".", "")

// NormalizeKey upper-cases an identifier and strips whitespace, hyphens, underscores and periods
func NormalizeKey(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.ToUpper(keyStripper.Replace(s))
}

// ShapeRow coerces a raw row into the catalog field set. It never fails:
// unusable values are clamped or dropped.
func ShapeRow(raw models.ImportRow) models.CandidateItem {
	row := make(map[string]any, len(raw))
	for k, v := range raw {
		row[strings.ToLower(strings.TrimSpace(k))] = v
	}

	return models.CandidateItem{
		ID:           shapeID(row["id"]),
		Number:       shapeString(row["number"]),
		OEM:          shapeString(row["oem"]),
		Cross:        shapeList(row["cross"], true),
		Manufacturer: shapeString(row["manufacturer"]),
		Condition:    shapeString(row["condition"]),
		Type:         shapeString(row["type"]),
		Availability: shapeString(row["availability"]),
		Qty:          shapeQty(row["qty"]),
		Price:        shapePrice(row["price"]),
		Engine:       shapeEngine(row["engine"]),
		Images:       shapeList(row["images"], false),
	}
}

// Validate checks every rule and returns all violations
func Validate(c models.CandidateItem) []string {
	var errs []string
	if c.Number == "" && c.OEM == "" {
		errs = append(errs, "number or oem is required")
	}
	if c.Condition != "" && !contains(models.Conditions, c.Condition) {
		errs = append(errs, "condition must be one of: "+strings.Join(models.Conditions, ", "))
	}
	if c.Type != "" && !contains(models.PartTypes, c.Type) {
		errs = append(errs, "type must be one of: "+strings.Join(models.PartTypes, ", "))
	}
	if c.Availability != "" && !contains(models.Availabilities, c.Availability) {
		errs = append(errs, "availability must be one of: "+strings.Join(models.Availabilities, ", "))
	}
	if c.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	if c.Qty < 0 {
		errs = append(errs, "qty must not be negative")
	}
	return errs
}

// batchKey prefers number, then oem, then the row position
func batchKey(c models.CandidateItem, index int) string {
	switch {
	case c.Number != "":
		return NormalizeKey(c.Number)
	case c.OEM != "":
		return NormalizeKey(c.OEM)
	default:
		return fmt.Sprintf("ROW%d", index)
	}
}

// DetectBatchDuplicates flags every candidate whose key already appeared earlier in the batch
func DetectBatchDuplicates(candidates []models.CandidateItem) []models.ImportRowError {
	var errs []models.ImportRowError
	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		key := batchKey(c, i)
		if _, dup := seen[key]; dup {
			errs = append(errs, models.ImportRowError{Row: i + 1, Error: "duplicate number/oem in batch"})
		}
		seen[key] = struct{}{}
	}
	return errs
}

// ValidatedBatch is a batch that passed (or is being previewed past) validation
type ValidatedBatch struct {
	Candidates []models.CandidateItem
}

// ValidateAll shapes every row, then collects duplicate and rule errors in row order
func ValidateAll(rows []models.ImportRow) (ValidatedBatch, []models.ImportRowError) {
	candidates := make([]models.CandidateItem, len(rows))
	for i, raw := range rows {
		candidates[i] = ShapeRow(raw)
	}

	dupByRow := make(map[int]models.ImportRowError)
	for _, e := range DetectBatchDuplicates(candidates) {
		dupByRow[e.Row] = e
	}

	var errs []models.ImportRowError
	for i, c := range candidates {
		row := i + 1
		if e, ok := dupByRow[row]; ok {
			errs = append(errs, e)
		}
		if ruleErrs := Validate(c); len(ruleErrs) > 0 {
			errs = append(errs, models.ImportRowError{Row: row, Error: strings.Join(ruleErrs, "; ")})
		}
	}

	return ValidatedBatch{Candidates: candidates}, errs
}

// ResolveExisting returns the id of the catalog row a candidate should update, or nil to insert
func (s *ImportService) ResolveExisting(ctx context.Context, c models.CandidateItem) (*uint, error) {
	if c.ID != nil {
		return c.ID, nil
	}

	numberKey := NormalizeKey(c.Number)
	oemKey := NormalizeKey(c.OEM)
	var keys []string
	if numberKey != "" {
		keys = append(keys, numberKey)
	}
	if oemKey != "" && oemKey != numberKey {
		keys = append(keys, oemKey)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	matches, err := s.store.FindByKeyFragments(ctx, keys, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing products: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	for _, p := range matches {
		if numberKey != "" && NormalizeKey(p.Number) == numberKey {
			return &p.ID, nil
		}
		if oemKey != "" && NormalizeKey(p.OEM) == oemKey {
			return &p.ID, nil
		}
	}

	if s.ambiguousPolicy == AmbiguousPolicyReview && len(matches) > 1 {
		return nil, ErrAmbiguousMatch
	}
	return &matches[0].ID, nil
}

type rowAction string

const (
	rowCreated rowAction = "created"
	rowUpdated rowAction = "updated"
	rowFailed  rowAction = "failed"
)

type rowResult struct {
	Row    int
	Action rowAction
	ID     uint
	Err    error
}

// commitEach writes every candidate independently; a failed row never stops its siblings
func (s *ImportService) commitEach(ctx context.Context, batch ValidatedBatch, mode string) []rowResult {
	results := make([]rowResult, 0, len(batch.Candidates))
	for i, c := range batch.Candidates {
		results = append(results, s.commitOne(ctx, i+1, c, mode))
	}
	return results
}

func (s *ImportService) commitOne(ctx context.Context, row int, c models.CandidateItem, mode string) rowResult {
	var existingID *uint
	if mode != models.ImportModeReplace {
		id, err := s.ResolveExisting(ctx, c)
		if err != nil {
			return rowResult{Row: row, Action: rowFailed, Err: err}
		}
		existingID = id
	}

	product := c.ToProduct()
	if existingID != nil {
		if err := s.store.UpdateFields(ctx, *existingID, product); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = fmt.Errorf("product %d not found", *existingID)
			}
			return rowResult{Row: row, Action: rowFailed, Err: err}
		}
		return rowResult{Row: row, Action: rowUpdated, ID: *existingID}
	}

	if err := s.store.Create(ctx, product); err != nil {
		return rowResult{Row: row, Action: rowFailed, Err: err}
	}
	return rowResult{Row: row, Action: rowCreated, ID: product.ID}
}

// RunImport validates the whole batch, then commits it row by row.
// Validation errors block every write unless dryRun is set; write errors are per row.
func (s *ImportService) RunImport(ctx context.Context, rows []models.ImportRow, mode string, dryRun bool) (*models.ImportReport, error) {
	if mode == "" {
		mode = models.ImportModeUpsert
	}
	if mode != models.ImportModeUpsert && mode != models.ImportModeReplace {
		return nil, ErrInvalidImportMode
	}

	batch, errs := ValidateAll(rows)
	report := &models.ImportReport{
		Mode:   mode,
		DryRun: dryRun,
		Errors: errs,
		Total:  len(rows),
	}
	if report.Errors == nil {
		report.Errors = []models.ImportRowError{}
	}

	if len(errs) > 0 && !dryRun {
		s.metrics.IncImportRun(mode, "rejected")
		log.Warn().Int("rows", len(rows)).Int("errors", len(errs)).Msg("Catalog import rejected by validation")
		return report, nil
	}
	report.OK = true

	if dryRun {
		s.metrics.IncImportRun(mode, "dry_run")
		return report, nil
	}

	if mode == models.ImportModeReplace {
		if err := s.store.DeleteAll(ctx); err != nil {
			s.metrics.IncImportRun(mode, "failed")
			return nil, fmt.Errorf("failed to wipe catalog: %w", err)
		}
		report.Replaced = 1
		log.Warn().Msg("Catalog wiped for replace import")
	}

	for _, result := range s.commitEach(ctx, batch, mode) {
		switch result.Action {
		case rowCreated:
			report.Created++
		case rowUpdated:
			report.Updated++
		case rowFailed:
			report.Errors = append(report.Errors, models.ImportRowError{Row: result.Row, Error: result.Err.Error()})
			log.Error().Err(result.Err).Int("row", result.Row).Msg("Catalog import row failed")
		}
	}

	s.metrics.AddImportRows(string(rowCreated), report.Created)
	s.metrics.AddImportRows(string(rowUpdated), report.Updated)
	s.metrics.AddImportRows(string(rowFailed), len(report.Errors))
	s.metrics.IncImportRun(mode, "committed")

	log.Info().
		Str("mode", mode).
		Int("total", report.Total).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("failed", len(report.Errors)).
		Msg("Catalog import finished")

	return report, nil
}

func shapeString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// shapeList accepts arrays or pipe-delimited strings. With commaFallback a string
// without pipes is split on commas instead; URLs may carry commas so images never do.
func shapeList(v any, commaFallback bool) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := shapeString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		text := shapeString(val)
		sep := "|"
		if commaFallback && !strings.Contains(text, "|") {
			sep = ","
		}
		for _, part := range strings.Split(text, sep) {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// parseNumber reports ok=false for blanks and anything that is not a finite number
func parseNumber(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case int:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		text := utils.NormalizeNumericValue(shapeString(val))
		if text == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func shapeQty(v any) int {
	f, ok := parseNumber(v)
	if !ok || f < 0 {
		return 0
	}
	return int(math.Trunc(f))
}

// shapePrice keeps negative values so Validate can report them
func shapePrice(v any) float64 {
	f, ok := parseNumber(v)
	if !ok {
		return 0
	}
	return f
}

func shapeEngine(v any) *float64 {
	f, ok := parseNumber(v)
	if !ok {
		return nil
	}
	return &f
}

func shapeID(v any) *uint {
	f, ok := parseNumber(v)
	if !ok || f <= 0 || f != math.Trunc(f) {
		return nil
	}
	id := uint(f)
	return &id
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
