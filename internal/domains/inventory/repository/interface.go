package repository

import (
	"context"
	"time"

	"inventory-backend/internal/domains/inventory/model"
)

// RepositoryInterface - toàn bộ truy cập stocks / stock_transactions / views.
// Các mutator chạy trong một pgx transaction: FOR UPDATE, validate invariant,
// UPDATE guarded by version, append transaction, commit.
type RepositoryInterface interface {
	// Stock reads
	GetStock(ctx context.Context, productID, warehouseID string) (*model.Stock, error)
	GetStocksByProduct(ctx context.Context, productID string) ([]model.Stock, error)
	GetStocksByWarehouse(ctx context.Context, warehouseID string) ([]model.Stock, error)
	ListAllStocks(ctx context.Context) ([]model.Stock, error)

	// EnsureStock upserts a zero row, idempotent
	EnsureStock(ctx context.Context, productID, warehouseID string) (*model.Stock, error)

	// Atomic mutators
	ReserveStock(ctx context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error)
	ReleaseStock(ctx context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error)
	AdjustStock(ctx context.Context, productID, warehouseID string, delta int, kind, referenceID, notes string) (*model.Stock, error)
	// RepairStock re-persists quantity/reserved unchanged so available is
	// rederived; logs a zero-quantity SYNC transaction
	RepairStock(ctx context.Context, productID, warehouseID, referenceID, notes string) (*model.Stock, error)
	MarkSynced(ctx context.Context, stockID string, at time.Time) error

	// Transaction log
	ListTransactions(ctx context.Context, filter model.ListTransactionsRequest) ([]model.StockTransaction, int, error)
	HasTransaction(ctx context.Context, stockID, kind, referenceID string) (bool, error)
	DeleteTransactionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Aggregation views
	RefreshViews(ctx context.Context) error
	GetAggregatedStock(ctx context.Context, productID string) (*model.AggregatedStock, error)
	GetLowStockAlerts(ctx context.Context, threshold int) ([]model.LowStockAlert, error)

	// Reporting
	GetStockReportRows(ctx context.Context, warehouseID string) ([]model.StockReportRow, error)
}
