package main

import (
	"github.com/hibiken/asynq"

	inventoryJob "inventory-backend/internal/domains/inventory/job"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Sync handlers
	syncWarehouse   *inventoryJob.SyncWarehouseHandler
	syncMarketplace *inventoryJob.SyncMarketplaceHandler

	// Fan-out triggers (scheduler enqueue, worker resolve targets)
	syncAllWarehouses   *inventoryJob.SyncAllWarehousesHandler
	syncAllMarketplaces *inventoryJob.SyncAllMarketplacesHandler

	// Order path
	flashSaleOrder *inventoryJob.FlashSaleHandler
	batchUpdate    *inventoryJob.BatchUpdateHandler

	// Maintenance handlers
	refreshViews *inventoryJob.RefreshViewsHandler
	reconcile    *inventoryJob.ReconcileHandler
	cleanup      *inventoryJob.CleanupTransactionsHandler
	stockAlert   *inventoryJob.StockAlertHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container, cfg *Config) *HandlerRegistry {
	return &HandlerRegistry{
		syncWarehouse: inventoryJob.NewSyncWarehouseHandler(
			c.InventoryService,
			c.InventoryRepo,
			c.ProductRepo,
			c.WarehouseRepo,
			c.StockSource,
			c.Locks,
			c.Cache,
			c.Metrics,
		),
		syncMarketplace: inventoryJob.NewSyncMarketplaceHandler(
			c.InventoryService,
			c.ProductRepo,
			c.Marketplace,
			c.Cache,
			c.Metrics,
		),

		syncAllWarehouses:   inventoryJob.NewSyncAllWarehousesHandler(c.Queue),
		syncAllMarketplaces: inventoryJob.NewSyncAllMarketplacesHandler(c.Queue),

		flashSaleOrder: inventoryJob.NewFlashSaleHandler(c.InventoryService, c.Locks),
		batchUpdate:    inventoryJob.NewBatchUpdateHandler(c.InventoryService, c.Cache, c.Metrics),

		refreshViews: inventoryJob.NewRefreshViewsHandler(c.InventoryService),
		reconcile:    inventoryJob.NewReconcileHandler(c.InventoryService, c.Cache, c.Metrics),
		cleanup:      inventoryJob.NewCleanupTransactionsHandler(c.InventoryService, cfg.Sync.RetentionDays),
		stockAlert:   inventoryJob.NewStockAlertHandler(c.InventoryService, cfg.Sync.LowStockThreshold),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Sync tasks
	mux.HandleFunc(shared.TypeSyncWarehouse, h.syncWarehouse.ProcessTask)
	mux.HandleFunc(shared.TypeSyncMarketplace, h.syncMarketplace.ProcessTask)
	mux.HandleFunc(shared.TypeSyncAllWarehouses, h.syncAllWarehouses.ProcessTask)
	mux.HandleFunc(shared.TypeSyncAllMarketplaces, h.syncAllMarketplaces.ProcessTask)

	// Order tasks
	mux.HandleFunc(shared.TypeFlashSaleOrder, h.flashSaleOrder.ProcessTask)
	mux.HandleFunc(shared.TypeBatchUpdate, h.batchUpdate.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(shared.TypeRefreshViews, h.refreshViews.ProcessTask)
	mux.HandleFunc(shared.TypeReconcile, h.reconcile.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupTransactions, h.cleanup.ProcessTask)
	mux.HandleFunc(shared.TypeStockAlert, h.stockAlert.ProcessTask)
}
