package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dieselhub/pkg/models"
)

// CatalogService serves the public product listing
type CatalogService struct {
	products CatalogLister
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products CatalogLister) *CatalogService {
	return &CatalogService{products: products}
}

// List returns the catalog ordered by id, narrowed by filter
func (s *CatalogService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return FilterProducts(products, filter), nil
}

// Facets returns the distinct brands and engine sizes of the catalog
func (s *CatalogService) Facets(ctx context.Context) (*models.ProductFacets, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return BuildFacets(products), nil
}

// FilterProducts applies every non-empty filter; all of them must match
func FilterProducts(products []models.Product, f models.ProductFilter) []models.Product {
	brands := toSet(f.Brands)
	conditions := toSet(f.Conditions)
	types := toSet(f.Types)
	availability := toSet(f.Availability)
	engines := engineSet(f.Engines)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if brands != nil && !brands[p.Manufacturer] {
			continue
		}
		if conditions != nil && !conditions[p.Condition] {
			continue
		}
		if types != nil && !types[p.Type] {
			continue
		}
		if availability != nil && !availability[p.Availability] {
			continue
		}
		if engines != nil && (p.Engine == nil || !engines[*p.Engine]) {
			continue
		}
		if !matchesNumber(p, f.Number) || !matchesOEM(p, f.OEM) || !matchesCross(p, f.Cross) || !matchesQuery(p, f.Query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BuildFacets collects non-empty manufacturers and engine sizes, both sorted ascending
func BuildFacets(products []models.Product) *models.ProductFacets {
	brandSeen := map[string]bool{}
	engineSeen := map[float64]bool{}
	facets := &models.ProductFacets{Brands: []string{}, Engines: []float64{}}

	for _, p := range products {
		if brand := strings.TrimSpace(p.Manufacturer); brand != "" && !brandSeen[brand] {
			brandSeen[brand] = true
			facets.Brands = append(facets.Brands, brand)
		}
		if p.Engine != nil && !engineSeen[*p.Engine] {
			engineSeen[*p.Engine] = true
			facets.Engines = append(facets.Engines, *p.Engine)
		}
	}

	sort.Strings(facets.Brands)
	sort.Float64s(facets.Engines)
	return facets
}

// fuzzyContains matches either a plain case-insensitive substring or a normalized-key substring
func fuzzyContains(value, needle string) bool {
	if strings.Contains(strings.ToLower(value), strings.ToLower(needle)) {
		return true
	}
	key := NormalizeKey(needle)
	return key != "" && strings.Contains(NormalizeKey(value), key)
}

func matchesNumber(p models.Product, number string) bool {
	key := NormalizeKey(number)
	if key == "" {
		return true
	}
	if strings.Contains(NormalizeKey(p.Number), key) || strings.Contains(NormalizeKey(p.OEM), key) {
		return true
	}
	for _, c := range p.Cross {
		if strings.Contains(NormalizeKey(c), key) {
			return true
		}
	}
	return false
}

func matchesOEM(p models.Product, oem string) bool {
	oem = strings.TrimSpace(oem)
	return oem == "" || fuzzyContains(p.OEM, oem)
}

func matchesCross(p models.Product, cross string) bool {
	cross = strings.TrimSpace(cross)
	if cross == "" {
		return true
	}
	for _, c := range p.Cross {
		if fuzzyContains(c, cross) {
			return true
		}
	}
	return false
}

func matchesQuery(p models.Product, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	if fuzzyContains(p.Number, q) || fuzzyContains(p.OEM, q) {
		return true
	}
	for _, c := range p.Cross {
		if fuzzyContains(c, q) {
			return true
		}
	}

	lower := strings.ToLower(q)
	plain := []string{p.Manufacturer, p.Condition, p.Type, p.Availability}
	if p.Engine != nil {
		plain = append(plain, strconv.FormatFloat(*p.Engine, 'f', -1, 64))
	}
	for _, v := range plain {
		if strings.Contains(strings.ToLower(v), lower) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	var set map[string]bool
	for _, v := range values {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		if set == nil {
			set = map[string]bool{}
		}
		set[v] = true
	}
	return set
}

func engineSet(values []string) map[float64]bool {
	var set map[float64]bool
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			continue
		}
		if set == nil {
			set = map[float64]bool{}
		}
		set[f] = true
	}
	return set
}
