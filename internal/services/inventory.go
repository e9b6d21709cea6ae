package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"dieselhub/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Movement log defaults for the spreadsheet stock sync
const (
	SyncReason   = "sync"
	SyncRef      = "sheets"
	SyncOperator = "auto"

	movementListLimit = 100
)

// StockStore finds products by external code and sets their stock
type StockStore interface {
	FindBySKUOrNumber(ctx context.Context, sku string) (*models.Product, error)
	UpdateQty(ctx context.Context, id uint, qty int) error
}

// MovementLog records stock changes
type MovementLog interface {
	RecordMovement(ctx context.Context, movement *models.InventoryMovement) error
	ListByProduct(ctx context.Context, productID uint, limit int) ([]models.InventoryMovement, error)
}

// InventoryService applies stock levels pushed by the external sync job
type InventoryService struct {
	products  StockStore
	movements MovementLog
}

// NewInventoryService creates a new inventory service
func NewInventoryService(products StockStore, movements MovementLog) *InventoryService {
	return &InventoryService{products: products, movements: movements}
}

// Sync sets the stock of every matched item. Items without a sku or qty are
// skipped; unknown skus are reported; the movement log is best effort.
func (s *InventoryService) Sync(ctx context.Context, req *models.InventorySyncRequest) *models.InventorySyncResult {
	result := &models.InventorySyncResult{OK: true, NotFound: []string{}}

	for _, item := range req.Items {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" || item.Qty == nil || math.IsNaN(*item.Qty) || math.IsInf(*item.Qty, 0) {
			continue
		}
		qty := int(math.Trunc(*item.Qty))
		if qty < 0 {
			qty = 0
		}

		product, err := s.products.FindBySKUOrNumber(ctx, sku)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Str("sku", sku).Msg("Failed to look up product for stock sync")
			}
			result.NotFound = append(result.NotFound, sku)
			continue
		}

		before := product.Qty
		if err := s.products.UpdateQty(ctx, product.ID, qty); err != nil {
			log.Error().Err(err).Str("sku", sku).Uint("product_id", product.ID).Msg("Failed to update stock")
			continue
		}

		movement := &models.InventoryMovement{
			ProductID: product.ID,
			Delta:     qty - before,
			QtyBefore: before,
			QtyAfter:  qty,
			Reason:    SyncReason,
			Ref:       SyncRef,
			Operator:  SyncOperator,
		}
		if err := s.movements.RecordMovement(ctx, movement); err != nil {
			log.Warn().Err(err).Uint("product_id", product.ID).Msg("Failed to record inventory movement")
		}

		result.Updated++
	}

	log.Info().Int("updated", result.Updated).Int("not_found", len(result.NotFound)).Msg("Inventory sync finished")
	return result
}

// Movements returns the latest stock changes of a product
func (s *InventoryService) Movements(ctx context.Context, productID uint) ([]models.InventoryMovement, error) {
	movements, err := s.movements.ListByProduct(ctx, productID, movementListLimit)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}
	return movements, nil
}
