package shared

import (
	"time"
)

// Asynq task types, naming convention domain:action
const (
	TypeSyncWarehouse       = "inventory:sync_warehouse"
	TypeSyncMarketplace     = "inventory:sync_marketplace"
	TypeFlashSaleOrder      = "inventory:flash_sale_order"
	TypeRefreshViews        = "inventory:refresh_views"
	TypeReconcile           = "inventory:reconcile"
	TypeCleanupTransactions = "inventory:cleanup_transactions"
	TypeStockAlert          = "inventory:stock_alert"
	TypeBatchUpdate         = "inventory:batch_update"

	// Fan-out triggers: worker nhận rồi enqueue child tasks per target
	TypeSyncAllWarehouses   = "inventory:sync_all_warehouses"
	TypeSyncAllMarketplaces = "inventory:sync_all_marketplaces"
)

// Queue names theo priority
const (
	QueueCritical = "critical" // flash sale orders
	QueueHigh     = "high"     // warehouse sync
	QueueDefault  = "default"  // marketplace sync, reconcile
	QueueLow      = "low"      // cleanup, views, alerts
)

// WarehouseSyncPayload là payload cho task pull tồn kho warehouse về
type WarehouseSyncPayload struct {
	WarehouseID string `json:"warehouse_id"`
	TaskID      string `json:"task_id,omitempty"` // fan-out run id, empty khi enqueue lẻ
}

// MarketplaceSyncPayload là payload cho task push availability ra marketplace
type MarketplaceSyncPayload struct {
	Marketplace string `json:"marketplace"`
	TaskID      string `json:"task_id,omitempty"`
}

// FlashSaleOrderPayload là payload cho reservation trong flash sale
type FlashSaleOrderPayload struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id"`
}

// CleanupTransactionsPayload cho retention job
type CleanupTransactionsPayload struct {
	RetentionDays int `json:"retention_days"`
}

// StockAlertPayload cho job quét low stock
type StockAlertPayload struct {
	Threshold int `json:"threshold"`
}

// ReconcilePayload: WarehouseID rỗng = reconcile toàn hệ thống
type ReconcilePayload struct {
	WarehouseID string `json:"warehouse_id,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
}

// BatchUpdatePayload cho bulk stock adjustment chạy nền
type BatchUpdatePayload struct {
	TaskID string            `json:"task_id"`
	Items  []BatchUpdateItem `json:"items"`
}

type BatchUpdateItem struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int    `json:"delta"`
	ReferenceID string `json:"reference_id"`
	Notes       string `json:"notes,omitempty"`
}

// SyncTaskResult là entry ghi vào redis list sync:result:{task_id},
// một entry per child task của một fan-out run
type SyncTaskResult struct {
	TaskType    string        `json:"task_type"`
	Target      string        `json:"target"` // warehouse code hoặc marketplace name
	Status      string        `json:"status"` // success | failure
	SyncedCount int           `json:"synced_count"`
	Errors      []string      `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// SyncResultTTL: kết quả fan-out giữ 24h rồi tự expire
const SyncResultTTL = 24 * time.Hour

// Status labels cho SyncTaskResult. Một run là "success" khi chạy hết
// danh sách, kể cả khi có SKU lỗi lẻ trong Errors; "failure" chỉ dành cho
// run bị abort (adapter không tồn tại, fetch hỏng, lock không lấy được).
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
