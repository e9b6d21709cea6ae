package repo

import (
	"context"

	"dieselhub/pkg/models"

	"gorm.io/gorm"
)

// InventoryRepository stores the stock movement log
type InventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// RecordMovement appends one stock movement
func (r *InventoryRepository) RecordMovement(ctx context.Context, movement *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListByProduct returns the movements of a product, newest first
func (r *InventoryRepository) ListByProduct(ctx context.Context, productID uint, limit int) ([]models.InventoryMovement, error) {
	var movements []models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
