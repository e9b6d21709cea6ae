package handlers

import (
	"time"

	"dieselhub/internal/app"
	"dieselhub/internal/http/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	systemHandler := NewSystemHandler(services.ProductService)
	api.GET("/health", systemHandler.Health)

	// Public storefront
	productHandler := NewProductHandler(services.CatalogService, services.ProductService, services.InventoryService)
	api.GET("/products", productHandler.List)
	api.GET("/products/facets", productHandler.Facets)

	orderHandler := NewOrderHandler(services.OrderService)
	api.POST("/order", orderHandler.Submit)

	// Postal lookups are throttled per client before they reach the upstream API
	npHandler := NewNovaPoshtaHandler(services.NovaPoshta)
	np := api.Group("/np")
	np.Use(middleware.RateLimit(middleware.NewRateLimiter(rate.Every(time.Minute/120), 30, 10*time.Minute)))
	np.GET("/settlements", npHandler.Settlements)
	np.GET("/warehouses", npHandler.Warehouses)

	api.GET("/nova/cities", LegacyRedirect("/api/np/settlements"))
	api.GET("/nova/cies", LegacyRedirect("/api/np/settlements"))
	api.GET("/nova/warehouses", LegacyRedirect("/api/np/warehouses"))

	// Spreadsheet stock sync
	inventoryHandler := NewInventoryHandler(services.InventoryService)
	api.POST("/inventory/sync", inventoryHandler.Sync, middleware.SyncKey(services.Config.SyncKey))

	// Admin login (no authentication required)
	authHandler := NewAuthHandler(services.AuthService)
	api.POST("/admin/login", authHandler.Login)

	requireAdmin := middleware.AdminAuth(services.AuthService)
	api.GET("/debug/db", systemHandler.DebugDB, requireAdmin)

	admin := api.Group("/admin", requireAdmin)

	admin.POST("/product", productHandler.Save)
	admin.PATCH("/product/:id", productHandler.Patch)
	admin.DELETE("/product/:id", productHandler.Delete)
	admin.POST("/product/:id/upload", productHandler.Upload)
	admin.DELETE("/product/:id/image", productHandler.DeleteImage)
	admin.GET("/product/:id/movements", productHandler.Movements)

	admin.GET("/orders", orderHandler.List)
	admin.GET("/orders/:id", orderHandler.Get)
	admin.PATCH("/orders/:id", orderHandler.Update)

	importHandler := NewImportHandler(services.ImportService)
	admin.POST("/import", importHandler.Import)

	exportHandler := NewExportHandler(services.ExportService)
	admin.GET("/export.json", exportHandler.ExportJSON)
	admin.GET("/export.csv", exportHandler.ExportCSV)
}
