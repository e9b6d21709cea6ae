package handlers

import (
	"errors"
	"net/http"

	"dieselhub/internal/services"
	"dieselhub/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductHandler serves the public catalog and admin product edits
type ProductHandler struct {
	catalogService   *services.CatalogService
	productService   *services.ProductService
	inventoryService *services.InventoryService
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalogService *services.CatalogService, productService *services.ProductService, inventoryService *services.InventoryService) *ProductHandler {
	return &ProductHandler{
		catalogService:   catalogService,
		productService:   productService,
		inventoryService: inventoryService,
	}
}

// List godoc
// @Summary List products
// @Description Catalog ordered by id, optionally filtered like the storefront
// @Tags products
// @Produce json
// @Param q query string false "Free text"
// @Param number query string false "Part number (normalized)"
// @Param oem query string false "OEM number"
// @Param cross query string false "Cross reference"
// @Param brand query []string false "Manufacturers"
// @Param condition query []string false "Conditions"
// @Param type query []string false "Part types"
// @Param availability query []string false "Availability"
// @Param engine query []string false "Engine volumes"
// @Success 200 {array} models.Product
// @Failure 500 {object} map[string]string
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	params := c.QueryParams()
	filter := models.ProductFilter{
		Query:        params.Get("q"),
		Number:       params.Get("number"),
		OEM:          params.Get("oem"),
		Cross:        params.Get("cross"),
		Brands:       params["brand"],
		Conditions:   params["condition"],
		Types:        params["type"],
		Availability: params["availability"],
		Engines:      params["engine"],
	}

	products, err := h.catalogService.List(c.Request().Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		return c.JSON(http.StatusInternalServerError, errorJSON("failed to list products"))
	}
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(http.StatusOK, products)
}

// Facets godoc
// @Summary Catalog facets
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductFacets
// @Router /products/facets [get]
func (h *ProductHandler) Facets(c echo.Context) error {
	facets, err := h.catalogService.Facets(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build facets")
		return c.JSON(http.StatusInternalServerError, errorJSON("failed to build facets"))
	}
	return c.JSON(http.StatusOK, facets)
}

// Save godoc
// @Summary Create or upsert product
// @Tags admin-products
// @Accept json
// @Produce json
// @Param request body models.ProductInput true "Product"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /admin/product [post]
func (h *ProductHandler) Save(c echo.Context) error {
	var in models.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}

	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	}

	product, err := h.productService.Save(c.Request().Context(), &in)
	if err != nil {
		return productError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "id": product.ID})
}

// Patch godoc
// @Summary Update product fields
// @Description Only fields present in the body change; an empty body is accepted
// @Tags admin-products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body models.ProductInput true "Fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /admin/product/{id} [patch]
func (h *ProductHandler) Patch(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	var in models.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}
	in.ID = nil

	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	}

	product, err := h.productService.Patch(c.Request().Context(), id, &in)
	if err != nil {
		return productError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "id": product.ID})
}

// Delete godoc
// @Summary Delete product
// @Tags admin-products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]bool
// @Router /admin/product/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	if err := h.productService.Delete(c.Request().Context(), id); err != nil {
		log.Error().Err(err).Uint("product_id", id).Msg("Failed to delete product")
		return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Upload godoc
// @Summary Upload product images
// @Tags admin-products
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Param files formData file true "Images (up to 10)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /admin/product/{id}/upload [post]
func (h *ProductHandler) Upload(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "added": 0, "urls": []string{}})
	}

	urls, err := h.productService.AddImages(c.Request().Context(), id, form.File["files"])
	if err != nil {
		return productError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "added": len(urls), "urls": urls})
}

// DeleteImage godoc
// @Summary Remove product image
// @Tags admin-products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body map[string]string true "Image URL"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /admin/product/{id}/image [delete]
func (h *ProductHandler) DeleteImage(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, errorJSON("no url"))
	}

	if err := h.productService.RemoveImage(c.Request().Context(), id, req.URL); err != nil {
		return productError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Movements godoc
// @Summary Stock movements
// @Description Latest inventory movements of a product
// @Tags admin-products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {array} models.InventoryMovement
// @Router /admin/product/{id}/movements [get]
func (h *ProductHandler) Movements(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid id"))
	}

	movements, err := h.inventoryService.Movements(c.Request().Context(), id)
	if err != nil {
		log.Error().Err(err).Uint("product_id", id).Msg("Failed to list movements")
		return c.JSON(http.StatusInternalServerError, errorJSON("failed to list movements"))
	}

	return c.JSON(http.StatusOK, movements)
}

func productError(c echo.Context, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  validationErr.Error(),
			"errors": validationErr.Errors,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, errorJSON("not_found"))
	case errors.Is(err, services.ErrTooManyFiles):
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	case errors.Is(err, services.ErrStorageDisabled):
		return c.JSON(http.StatusServiceUnavailable, errorJSON(err.Error()))
	}

	log.Error().Err(err).Msg("Product operation failed")
	return c.JSON(http.StatusInternalServerError, errorJSON(err.Error()))
}
