package model

import (
	"time"
)

// ===================================
// STOCK ENTITY
// ===================================

// Stock - tồn kho của một (product, warehouse). Available là generated
// column (quantity - reserved), không bao giờ set trực tiếp.
type Stock struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	Reserved    int    `json:"reserved"`
	Available   int    `json:"available"` // GENERATED ALWAYS AS (quantity - reserved) STORED

	// Optimistic locking
	Version int `json:"version"`

	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ===================================
// STOCK TRANSACTIONS (audit trail)
// ===================================

// Transaction types - mỗi mutation ghi đúng một dòng
const (
	TransactionIn      = "IN"
	TransactionOut     = "OUT"
	TransactionReserve = "RESERVE"
	TransactionRelease = "RELEASE"
	TransactionAdjust  = "ADJUST"
	TransactionSync    = "SYNC"
)

var validTransactionTypes = map[string]struct{}{
	TransactionIn:      {},
	TransactionOut:     {},
	TransactionReserve: {},
	TransactionRelease: {},
	TransactionAdjust:  {},
	TransactionSync:    {},
}

func IsValidTransactionType(kind string) bool {
	_, ok := validTransactionTypes[kind]
	return ok
}

// StockTransaction - append-only, chỉ retention job được xóa
type StockTransaction struct {
	ID              string    `json:"id"`
	StockID         string    `json:"stock_id"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int       `json:"quantity"` // signed delta
	ReferenceID     *string   `json:"reference_id,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// ===================================
// AGGREGATION VIEWS
// ===================================

// AggregatedStock - một dòng materialized view aggregated_stock
type AggregatedStock struct {
	ProductID      string    `json:"product_id"`
	SKU            string    `json:"sku"`
	TotalQuantity  int       `json:"total_quantity"`
	TotalReserved  int       `json:"total_reserved"`
	TotalAvailable int       `json:"total_available"`
	WarehouseCount int       `json:"warehouse_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Alert levels cho low_stock_alert view
const (
	AlertOutOfStock = "OUT_OF_STOCK"
	AlertCritical   = "CRITICAL"
	AlertLow        = "LOW"
	AlertWarning    = "WARNING"
)

// AlertLevelFor phân loại theo available: 0, <5, <10, còn lại
func AlertLevelFor(available int) string {
	switch {
	case available <= 0:
		return AlertOutOfStock
	case available < 5:
		return AlertCritical
	case available < 10:
		return AlertLow
	default:
		return AlertWarning
	}
}

// LowStockAlert - một dòng view low_stock_alert
type LowStockAlert struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	ProductName   string `json:"product_name"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseCode string `json:"warehouse_code"`
	Available     int    `json:"available"`
	AlertLevel    string `json:"alert_level"`
}
