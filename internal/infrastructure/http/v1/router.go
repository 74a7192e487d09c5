// Package v1 provides the HTTP API surface.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator/internal/domain/catalogs/item"
	"mercator/internal/domain/catalogs/location"
	"mercator/internal/domain/issuing"
	"mercator/internal/domain/pricing"
	"mercator/internal/domain/receiving"
	"mercator/internal/domain/stock"
	"mercator/internal/infrastructure/http/v1/handlers"
	"mercator/internal/infrastructure/http/v1/middleware"
	"mercator/internal/infrastructure/storage/postgres"
	"mercator/pkg/logger"
)

// RouterConfig wires services into the router.
type RouterConfig struct {
	Logger *logger.Logger
	Pool   *postgres.Pool

	ItemService     *item.Service
	LocationService *location.Service
	StockService    *stock.Service
	PricingService  *pricing.Service
	ReceiptService  *receiving.Service
	IssueService    *issuing.Service
}

// NewRouter builds the gin engine with middleware and all v1 routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	health := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Identity())

	registerCatalogRoutes(api, cfg)
	registerDocumentRoutes(api, cfg)
	registerStockRoutes(api, cfg)
	registerPricingRoutes(api, cfg)

	return router
}

func registerCatalogRoutes(api *gin.RouterGroup, cfg RouterConfig) {
	items := handlers.NewItemHandler(cfg.ItemService)
	g := api.Group("/catalog/items")
	{
		g.GET("", items.List)
		g.POST("", items.Create)
		g.GET("/:id", items.Get)
		g.PUT("/:id", items.Update)
		g.DELETE("/:id", items.Delete)
	}

	locations := handlers.NewLocationHandler(cfg.LocationService)
	g = api.Group("/catalog/locations")
	{
		g.GET("", locations.List)
		g.POST("", locations.Create)
		g.GET("/:id", locations.Get)
		g.PUT("/:id", locations.Update)
		g.DELETE("/:id", locations.Delete)
	}
}

func registerDocumentRoutes(api *gin.RouterGroup, cfg RouterConfig) {
	receipts := handlers.NewGoodsReceiptHandler(cfg.ReceiptService)
	g := api.Group("/goods-receipts")
	{
		g.GET("", receipts.List)
		g.POST("", receipts.Create)
		g.GET("/:id", receipts.Get)
		g.PUT("/:id", receipts.Update)
		g.POST("/:id/lines", receipts.RecordLine)
		g.POST("/:id/complete", receipts.Complete)
	}

	issues := handlers.NewStockIssueHandler(cfg.IssueService)
	g = api.Group("/stock-issues")
	{
		g.GET("", issues.List)
		g.POST("", issues.Create)
		g.GET("/:id", issues.Get)
		g.PUT("/:id", issues.Update)
		g.DELETE("/:id", issues.Cancel)
	}
}

func registerStockRoutes(api *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewStockHandler(cfg.StockService)
	g := api.Group("/stock")
	{
		g.GET("/levels", h.ListLevels)
		g.GET("/movements", h.ListMovements)
		g.GET("/reorder", h.ListBelowReorder)
		g.PUT("/reorder", h.SetReorderLevels)
		g.POST("/reservations", h.Reserve)
		g.DELETE("/reservations", h.Release)
		g.GET("/availability/:itemId", h.GetAvailability)
	}
}

func registerPricingRoutes(api *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewPricingHandler(cfg.PricingService)
	g := api.Group("/pricing")
	{
		g.GET("/resolve", h.Resolve)

		g.GET("/markup-configurations", h.ListMarkupConfigs)
		g.POST("/markup-configurations", h.CreateMarkupConfig)
		g.PUT("/markup-configurations/:id", h.UpdateMarkupConfig)
		g.DELETE("/markup-configurations/:id", h.DeleteMarkupConfig)

		g.GET("/customer-pricing", h.ListCustomerPricing)
		g.POST("/customer-pricing", h.CreateCustomerPricing)
		g.PUT("/customer-pricing/:id", h.UpdateCustomerPricing)
		g.DELETE("/customer-pricing/:id", h.DeleteCustomerPricing)

		g.GET("/items/:id", h.GetItemPricing)
		g.POST("/items/:id/snapshot", h.Snapshot)
	}
}
