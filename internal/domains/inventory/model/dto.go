package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ===================================
// REQUEST DTOs
// ===================================

// ReserveStockRequest - giữ hàng cho một order
type ReserveStockRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id"`
}

func (r ReserveStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WarehouseID, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.OrderID, validation.Required),
	)
}

// FlashSaleOrderRequest - intake cho flash sale, xử lý async qua queue
type FlashSaleOrderRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id"`
}

func (r FlashSaleOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WarehouseID, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.OrderID, validation.Required),
	)
}

// ReleaseStockRequest - trả lại hàng đã giữ
type ReleaseStockRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id"`
}

func (r ReleaseStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WarehouseID, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.OrderID, validation.Required),
	)
}

// AdjustStockRequest - chỉnh số tồn, delta có thể âm
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int    `json:"delta"`
	Kind        string `json:"kind"` // IN, OUT, ADJUST, SYNC
	ReferenceID string `json:"reference_id"`
	Notes       string `json:"notes"`
}

func (r AdjustStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required),
		validation.Field(&r.WarehouseID, validation.Required),
		validation.Field(&r.Delta, validation.Required), // zero delta is meaningless
		validation.Field(&r.Kind, validation.Required, validation.By(validateAdjustKind)),
	)
}

func validateAdjustKind(value interface{}) error {
	kind, _ := value.(string)
	switch kind {
	case TransactionIn, TransactionOut, TransactionAdjust, TransactionSync:
		return nil
	}
	return ErrInvalidTransactionType
}

// BatchUpdateRequest - nhiều adjustment trong một request, kết quả per-item
type BatchUpdateRequest struct {
	Items []BatchUpdateItemRequest `json:"items"`
}

type BatchUpdateItemRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int    `json:"delta"`
	ReferenceID string `json:"reference_id"`
	Notes       string `json:"notes"`
}

func (r BatchUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 500)),
	)
}

// ListTransactionsRequest - filter cho transaction log
type ListTransactionsRequest struct {
	ProductID       *string
	WarehouseID     *string
	TransactionType *string
	From            *time.Time
	To              *time.Time
	Page            int
	Limit           int
}

// ===================================
// RESPONSE DTOs
// ===================================

// StockResponse - state sau mutation, trả cho client
type StockResponse struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	WarehouseID string     `json:"warehouse_id"`
	Quantity    int        `json:"quantity"`
	Reserved    int        `json:"reserved"`
	Available   int        `json:"available"`
	Version     int        `json:"version"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *Stock) ToResponse() StockResponse {
	return StockResponse{
		ID:          s.ID,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		Quantity:    s.Quantity,
		Reserved:    s.Reserved,
		Available:   s.Available,
		Version:     s.Version,
		LastSyncAt:  s.LastSyncAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// AvailabilityResponse - GET available, breakdown theo kho khi hỏi aggregate.
// Quantity/Reserved là tổng trên các kho trong scope của câu hỏi.
type AvailabilityResponse struct {
	ProductID   string                  `json:"product_id"`
	WarehouseID string                  `json:"warehouse_id,omitempty"` // empty khi aggregate
	Quantity    int                     `json:"quantity"`
	Reserved    int                     `json:"reserved"`
	Available   int                     `json:"available"`
	ByWarehouse []WarehouseAvailability `json:"by_warehouse,omitempty"`
}

type WarehouseAvailability struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	Reserved    int    `json:"reserved"`
	Available   int    `json:"available"`
}

// BatchUpdateResponse - per-item kết quả, một item fail không chặn các item khác
type BatchUpdateResponse struct {
	Succeeded []BatchUpdateItemResult `json:"succeeded"`
	Failed    []BatchUpdateItemResult `json:"failed"`
}

type BatchUpdateItemResult struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int    `json:"delta"`
	Error       string `json:"error,omitempty"`
}

// ReconcileResult - báo cáo sau một lượt reconcile
type ReconcileResult struct {
	TotalChecked       int      `json:"total_checked"`
	DiscrepanciesFound int      `json:"discrepancies_found"`
	CorrectionsMade    int      `json:"corrections_made"`
	Errors             []string `json:"errors,omitempty"`
}

// ListTransactionsResponse - paginated transaction log
type ListTransactionsResponse struct {
	Items      []StockTransaction `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPages int                `json:"total_pages"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// StockReportRow - báo cáo định giá tồn kho, value = available * unit price
type StockReportRow struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	Reserved    int             `json:"reserved"`
	Available   int             `json:"available"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

type StockReport struct {
	Rows        []StockReportRow `json:"rows"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	GeneratedAt time.Time        `json:"generated_at"`
}
