package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inventory-backend/internal/shared/middleware"
	"inventory-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
		middleware.ClientIPMiddleware(),
	)

	// Prometheus scrape endpoint nằm ngoài /api/v1, không qua auth
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))
		v1.GET("/db-test", databaseTestHandler(c))

		setupProductRoutes(v1, c)
		setupWarehouseRoutes(v1, c)
		setupStockRoutes(v1, c)
		setupSyncRoutes(v1, c)
		setupReportRoutes(v1, c)
	}

	return router
}

// ========================================
// PRODUCT ROUTES
// ========================================
func setupProductRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.JWTManager)

	products := v1.Group("/products")
	{
		products.GET("", c.ProductHandler.ListProducts)
		products.GET("/:id", c.ProductHandler.GetProduct)
		products.POST("", auth, c.ProductHandler.CreateProduct)
		products.PUT("/:id", auth, c.ProductHandler.UpdateProduct)
		products.DELETE("/:id", auth, c.ProductHandler.DeleteProduct)

		// Stock operations theo product
		products.GET("/:id/availability", c.InventoryHandler.GetAvailability)
		products.POST("/:id/reserve", c.InventoryHandler.Reserve)
		products.POST("/:id/release", c.InventoryHandler.Release)
		products.POST("/:id/flash-sale", c.InventoryHandler.FlashSaleOrder)
	}
}

// ========================================
// WAREHOUSE ROUTES
// ========================================
func setupWarehouseRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.JWTManager)

	warehouses := v1.Group("/warehouses")
	{
		warehouses.GET("", c.WarehouseHandler.ListWarehouses)
		warehouses.GET("/:id", c.WarehouseHandler.GetWarehouse)
		warehouses.POST("", auth, c.WarehouseHandler.CreateWarehouse)
		warehouses.PUT("/:id", auth, c.WarehouseHandler.UpdateWarehouse)
		warehouses.DELETE("/:id", auth, c.WarehouseHandler.DeleteWarehouse)

		warehouses.GET("/:id/inventory", c.InventoryHandler.GetWarehouseInventory)
		warehouses.GET("/:id/low-stock", c.InventoryHandler.GetWarehouseLowStock)
		warehouses.POST("/:id/sync", auth, c.InventoryHandler.SyncWarehouse)
	}
}

// ========================================
// STOCK ROUTES
// ========================================
func setupStockRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.JWTManager)

	// Mutate tồn kho trực tiếp: service accounts không được gọi
	stocks := v1.Group("/stocks")
	stocks.Use(auth, middleware.AdminMiddleware())
	{
		stocks.POST("/adjust", c.InventoryHandler.Adjust)
		stocks.POST("/batch-update", c.InventoryHandler.BatchUpdate)
		stocks.POST("/reconcile", c.InventoryHandler.Reconcile)
	}

	// Audit trail đọc được không cần auth, dashboard nội bộ dùng
	v1.GET("/transactions", c.InventoryHandler.ListTransactions)
}

// ========================================
// SYNC ROUTES
// ========================================
func setupSyncRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.JWTManager)
	admin := middleware.AdminMiddleware()

	sync := v1.Group("/sync")
	{
		// Fan-out dispatch đụng mọi kho/marketplace nên khoá lại cho admin
		sync.POST("/warehouses", auth, admin, c.InventoryHandler.SyncAllWarehouses)
		sync.POST("/marketplaces", auth, admin, c.InventoryHandler.SyncAllMarketplaces)
		sync.GET("/status", c.InventoryHandler.GetSyncStatus)
	}
}

// ========================================
// REPORT ROUTES
// ========================================
func setupReportRoutes(v1 *gin.RouterGroup, c *container.Container) {
	reports := v1.Group("/reports")
	{
		reports.GET("/stock", c.InventoryHandler.StockReport)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

// ========================================
// DATABASE TEST HANDLER
// ========================================
func databaseTestHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Database not connected",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var version string
		err := appCtx.DB.Pool.QueryRow(ctx, "SELECT version()").Scan(&version)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Query failed: %v", err),
			})
			return
		}

		stats := appCtx.DB.Pool.Stat()

		redisTest := "not tested"
		if appCtx.Cache != nil {
			testKey := "test:connection"
			testValue := map[string]string{"test": "data", "timestamp": time.Now().Format(time.RFC3339)}

			if err := appCtx.Cache.Set(ctx, testKey, testValue, 10*time.Second); err == nil {
				var retrieved map[string]string
				found, _ := appCtx.Cache.Get(ctx, testKey, &retrieved)
				if found {
					redisTest = "ok - set/get working"
				} else {
					redisTest = "warning - set ok but get failed"
				}
				_ = appCtx.Cache.Delete(ctx, testKey)
			} else {
				redisTest = fmt.Sprintf("error: %v", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Database test successful",
			"database": gin.H{
				"postgres_version": version,
				"pool_stats": gin.H{
					"total_connections":    stats.TotalConns(),
					"idle_connections":     stats.IdleConns(),
					"acquired_connections": stats.AcquiredConns(),
					"max_connections":      stats.MaxConns(),
				},
			},
			"cache": gin.H{
				"status": redisTest,
			},
		})
	}
}
