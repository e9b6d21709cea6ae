package repo

import (
	"context"
	"strings"

	"dieselhub/pkg/models"

	"gorm.io/gorm"
)

// Upper-cased column values with the key separators removed, matching services.NormalizeKey
const (
	normalizedNumberSQL = `regexp_replace(upper(coalesce(number, '')), '[[:space:]._-]', '', 'g')`
	normalizedOEMSQL    = `regexp_replace(upper(coalesce(oem, '')), '[[:space:]._-]', '', 'g')`
)

// ProductRepository handles catalog data access
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListAll returns every product ordered by id
func (r *ProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateColumns writes the given columns of product onto the row with id.
// Zero values are written too. Returns gorm.ErrRecordNotFound when no row matched.
func (r *ProductRepository) UpdateColumns(ctx context.Context, id uint, product *models.Product, columns []string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Select(columns).
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateFields updates every catalog column of the row with id
func (r *ProductRepository) UpdateFields(ctx context.Context, id uint, product *models.Product) error {
	return r.UpdateColumns(ctx, id, product, models.ProductColumns)
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// DeleteAll wipes the catalog
func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("id <> ?", 0).Delete(&models.Product{}).Error
}

// FindByKeyFragments returns products whose normalized number or oem contains any of keys
func (r *ProductRepository) FindByKeyFragments(ctx context.Context, keys []string, limit int) ([]models.Product, error) {
	var clauses []string
	var args []interface{}
	for _, key := range keys {
		if key == "" {
			continue
		}
		pattern := "%" + escapeLike(key) + "%"
		clauses = append(clauses, normalizedNumberSQL+" LIKE ?", normalizedOEMSQL+" LIKE ?")
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where(strings.Join(clauses, " OR "), args...).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindBySKUOrNumber finds a product by sku, falling back to its part number
func (r *ProductRepository) FindBySKUOrNumber(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Where("number = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateQty sets the stock quantity of a product
func (r *ProductRepository) UpdateQty(ctx context.Context, id uint, qty int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("qty", qty).Error
}

// Count returns the number of catalog rows
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
