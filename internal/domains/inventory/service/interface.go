package service

import (
	"context"

	"inventory-backend/internal/domains/inventory/model"
)

type ServiceInterface interface {
	// Reservation engine
	Reserve(ctx context.Context, productID string, req model.ReserveStockRequest) (*model.StockResponse, error)
	Release(ctx context.Context, productID string, req model.ReleaseStockRequest) (*model.StockResponse, error)
	Adjust(ctx context.Context, req model.AdjustStockRequest) (*model.StockResponse, error)
	BatchUpdate(ctx context.Context, req model.BatchUpdateRequest) (*model.BatchUpdateResponse, error)

	// Reads
	GetAvailable(ctx context.Context, productID, warehouseID string) (*model.AvailabilityResponse, error)
	GetStock(ctx context.Context, productID, warehouseID string) (*model.StockResponse, error)
	GetWarehouseInventory(ctx context.Context, warehouseID string) ([]model.StockResponse, error)
	ListTransactions(ctx context.Context, filter model.ListTransactionsRequest) (*model.ListTransactionsResponse, error)

	// Aggregations
	GetLowStockAlerts(ctx context.Context, threshold int) ([]model.LowStockAlert, error)
	RefreshViews(ctx context.Context) error
	StockReport(ctx context.Context, warehouseID string) (*model.StockReport, error)

	// Maintenance
	Reconcile(ctx context.Context, warehouseID string) (*model.ReconcileResult, error)
	CleanupTransactions(ctx context.Context, retentionDays int) (int64, error)
}
