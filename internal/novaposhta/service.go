package novaposhta

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dieselhub/internal/cache"
	"dieselhub/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Warehouse types accepted by Warehouses
const (
	TypeWarehouse = "warehouse"
	TypePostomat  = "postomat"
)

const (
	defaultSettlementLimit = 20
	maxSettlementLimit     = 50
	minQueryLength         = 2
)

var postomatPattern = regexp.MustCompile(`(?i)поштомат|postomat|parcel\s*locker`)

// Settlement is a city suggestion; Ref is used as the CityRef of warehouse lookups
type Settlement struct {
	Ref     string `json:"Ref"`
	Present string `json:"Present"`
	Area    string `json:"Area"`
	Region  string `json:"Region"`
}

// Warehouse is a branch or parcel locker
type Warehouse struct {
	Ref                 string `json:"Ref"`
	Number              string `json:"Number"`
	Description         string `json:"Description"`
	TypeOfWarehouse     string `json:"TypeOfWarehouse"`
	CategoryOfWarehouse string `json:"CategoryOfWarehouse"`
}

type rawAddress struct {
	Ref             string `json:"Ref"`
	DeliveryCity    string `json:"DeliveryCity"`
	Present         string `json:"Present"`
	MainDescription string `json:"MainDescription"`
	Area            string `json:"Area"`
	Region          string `json:"Region"`
}

type rawSettlementPage struct {
	Addresses []rawAddress `json:"Addresses"`
}

type rawWarehouse struct {
	Ref                 string     `json:"Ref"`
	Number              flexString `json:"Number"`
	Description         string     `json:"Description"`
	ShortAddress        string     `json:"ShortAddress"`
	TypeOfWarehouse     string     `json:"TypeOfWarehouse"`
	CategoryOfWarehouse string     `json:"CategoryOfWarehouse"`
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

// Caller is the API surface the service needs
type Caller interface {
	Call(ctx context.Context, modelName, calledMethod string, props map[string]string) (json.RawMessage, error)
}

// Service answers address lookups with a TTL cache in front of the API
type Service struct {
	api     Caller
	cache   cache.Store
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewService creates an address lookup service
func NewService(api Caller, store cache.Store, ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{api: api, cache: store, ttl: ttl, metrics: m}
}

// ClampLimit parses a settlement limit into 1..50, defaulting to 20
func ClampLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return defaultSettlementLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxSettlementLimit {
		return maxSettlementLimit
	}
	return n
}

// Settlements searches cities. Queries shorter than two characters and API failures yield an empty list.
func (s *Service) Settlements(ctx context.Context, q string, limit int) []Settlement {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minQueryLength {
		return []Settlement{}
	}

	key := fmt.Sprintf("np:settlements:%s|%d", strings.ToLower(q), limit)
	var cached []Settlement
	if s.fromCache(ctx, key, &cached) {
		return cached
	}

	data, err := s.call(ctx, "Address", "searchSettlements", map[string]string{
		"CityName": q,
		"Limit":    strconv.Itoa(limit),
		"Page":     "1",
	})
	if err != nil {
		log.Error().Err(err).Str("q", q).Msg("Nova Poshta settlement search failed")
		return []Settlement{}
	}

	var pages []rawSettlementPage
	if err := json.Unmarshal(data, &pages); err != nil {
		log.Error().Err(err).Msg("Failed to decode Nova Poshta settlements")
		return []Settlement{}
	}

	list := []Settlement{}
	if len(pages) > 0 {
		for _, a := range pages[0].Addresses {
			list = append(list, Settlement{
				Ref:     firstNonEmpty(a.DeliveryCity, a.Ref),
				Present: firstNonEmpty(a.Present, a.MainDescription),
				Area:    a.Area,
				Region:  a.Region,
			})
		}
	}

	s.toCache(ctx, key, list)
	return list
}

// Warehouses lists branches (or parcel lockers when kind is "postomat") of a city
func (s *Service) Warehouses(ctx context.Context, cityRef, kind string) []Warehouse {
	cityRef = strings.TrimSpace(cityRef)
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = TypeWarehouse
	}
	if cityRef == "" {
		return []Warehouse{}
	}

	key := fmt.Sprintf("np:warehouses:%s|%s", cityRef, kind)
	var cached []Warehouse
	if s.fromCache(ctx, key, &cached) {
		return cached
	}

	data, err := s.call(ctx, "AddressGeneral", "getWarehouses", map[string]string{
		"CityRef":  cityRef,
		"Page":     "1",
		"Limit":    "500",
		"Language": "UA",
	})
	if err != nil {
		log.Error().Err(err).Str("city_ref", cityRef).Msg("Nova Poshta warehouse lookup failed")
		return []Warehouse{}
	}

	var raw []rawWarehouse
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Error().Err(err).Msg("Failed to decode Nova Poshta warehouses")
		return []Warehouse{}
	}

	wantPostomat := kind == TypePostomat
	list := []Warehouse{}
	for _, w := range raw {
		if IsPostomat(w.TypeOfWarehouse, w.CategoryOfWarehouse, w.Description) != wantPostomat {
			continue
		}
		list = append(list, Warehouse{
			Ref:                 w.Ref,
			Number:              string(w.Number),
			Description:         firstNonEmpty(w.ShortAddress, w.Description),
			TypeOfWarehouse:     w.TypeOfWarehouse,
			CategoryOfWarehouse: w.CategoryOfWarehouse,
		})
	}

	s.toCache(ctx, key, list)
	return list
}

// IsPostomat reports whether a warehouse looks like a parcel locker
func IsPostomat(typeOfWarehouse, category, description string) bool {
	return postomatPattern.MatchString(typeOfWarehouse + " " + category + " " + description)
}

func (s *Service) call(ctx context.Context, model, method string, props map[string]string) (json.RawMessage, error) {
	start := time.Now()
	data, err := s.api.Call(ctx, model, method, props)
	s.metrics.ObserveNovaPoshtaCall(time.Since(start).Seconds())
	return data, err
}

func (s *Service) fromCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Address cache read failed")
		hit = false
	}
	s.metrics.IncNovaPoshtaCache(hit)
	return hit
}

func (s *Service) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Address cache write failed")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
