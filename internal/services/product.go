package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"dieselhub/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrTooManyFiles rejects uploads above MaxUploadFiles
var ErrTooManyFiles = fmt.Errorf("at most %d files per upload", MaxUploadFiles)

// ErrStorageDisabled is returned by image operations when no bucket is configured
var ErrStorageDisabled = errors.New("image storage is not configured")

// ValidationError lists the rule violations of an admin product edit
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// ProductStore is the catalog persistence used by admin edits
type ProductStore interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	UpdateColumns(ctx context.Context, id uint, product *models.Product, columns []string) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// ProductService implements admin catalog edits and product images
type ProductService struct {
	products ProductStore
	objects  ObjectStore
	now      func() time.Time
}

// NewProductService creates a product service. objects may be nil when S3 is not configured.
func NewProductService(products ProductStore, objects ObjectStore) *ProductService {
	return &ProductService{
		products: products,
		objects:  objects,
		now:      time.Now,
	}
}

func validateProduct(p *models.Product) error {
	if errs := Validate(p.Candidate()); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Save creates a product, or overwrites the given fields when the payload id already exists
func (s *ProductService) Save(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	if in.ID != nil {
		existing, err := s.products.GetByID(ctx, *in.ID)
		switch {
		case err == nil:
			columns := in.ApplyTo(existing)
			if err := validateProduct(existing); err != nil {
				return nil, err
			}
			if len(columns) > 0 {
				if err := s.products.UpdateColumns(ctx, existing.ID, existing, columns); err != nil {
					return nil, fmt.Errorf("failed to update product: %w", err)
				}
			}
			return existing, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
	}

	product := &models.Product{Cross: []string{}, Images: []string{}}
	if in.ID != nil {
		product.ID = *in.ID
	}
	in.ApplyTo(product)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	log.Info().Uint("product_id", product.ID).Msg("Product created")
	return product, nil
}

// Patch updates only the fields present in the payload. An empty payload is a no-op.
func (s *ProductService) Patch(ctx context.Context, id uint, in *models.ProductInput) (*models.Product, error) {
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := in.ApplyTo(existing)
	if len(columns) == 0 {
		return existing, nil
	}
	if err := validateProduct(existing); err != nil {
		return nil, err
	}
	if err := s.products.UpdateColumns(ctx, id, existing, columns); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return existing, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	return s.products.Delete(ctx, id)
}

// Count returns the catalog size
func (s *ProductService) Count(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

// AddImages uploads files and appends their URLs to the product
func (s *ProductService) AddImages(ctx context.Context, id uint, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > MaxUploadFiles {
		return nil, ErrTooManyFiles
	}
	if len(files) == 0 {
		return []string{}, nil
	}
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	urls, err := UploadImages(ctx, s.objects, id, files, s.now())
	if err != nil {
		return nil, err
	}

	product.Images = append(product.Images, urls...)
	if err := s.products.UpdateColumns(ctx, id, product, []string{"images"}); err != nil {
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}
	return urls, nil
}

// RemoveImage drops url from the product. Deleting the object itself is best effort.
func (s *ProductService) RemoveImage(ctx context.Context, id uint, url string) error {
	if s.objects != nil {
		if key, ok := s.objects.KeyFromURL(url); ok {
			if err := s.objects.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to delete image object, continuing")
			}
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(product.Images))
	for _, u := range product.Images {
		if u != url {
			kept = append(kept, u)
		}
	}
	product.Images = kept

	if err := s.products.UpdateColumns(ctx, id, product, []string{"images"}); err != nil {
		return fmt.Errorf("failed to save product images: %w", err)
	}
	return nil
}
