package model

import (
	"errors"
	"fmt"
)

// ===================================
// DOMAIN ERRORS
// ===================================

var (
	// ErrStockNotFound is returned when no stock row exists for the product/warehouse
	ErrStockNotFound = errors.New("stock not found")

	// ErrStockAlreadyExists is returned when creating a duplicate (product, warehouse) row
	ErrStockAlreadyExists = errors.New("stock already exists for this product and warehouse")

	// ErrInsufficientStock is returned when available < requested reservation
	ErrInsufficientStock = errors.New("insufficient stock available for reservation")

	// ErrOverRelease is returned when trying to release more than is reserved
	ErrOverRelease = errors.New("cannot release more than reserved quantity")

	// ErrNegativeStock is returned when an adjustment would drive quantity below reserved
	ErrNegativeStock = errors.New("adjustment would make stock negative or below reserved")

	// ErrInvalidQuantity is returned for non-positive reserve/release quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidTransactionType is returned for an unknown transaction type
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrOptimisticLockFailed is returned on version mismatch (concurrent update)
	ErrOptimisticLockFailed = errors.New("optimistic lock failed: stock was modified by another transaction")

	// ErrDuplicateReference is returned when the same reference id already produced
	// a transaction of the same kind (idempotency guard)
	ErrDuplicateReference = errors.New("duplicate reference: operation already applied")

	// ErrLockNotAcquired is returned when the distributed lock quorum could not be reached
	ErrLockNotAcquired = errors.New("could not acquire distributed lock")

	// ErrProductNotFound is returned when the referenced product does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrWarehouseNotFound is returned when the referenced warehouse does not exist
	ErrWarehouseNotFound = errors.New("warehouse not found")
)

// ===================================
// ERROR HELPERS
// ===================================

func NewStockNotFoundError(productID, warehouseID string) error {
	return fmt.Errorf("%w: product_id=%s, warehouse_id=%s", ErrStockNotFound, productID, warehouseID)
}

func NewInsufficientStockError(requested, available int) error {
	return fmt.Errorf("%w: requested=%d, available=%d", ErrInsufficientStock, requested, available)
}

func NewOverReleaseError(requested, reserved int) error {
	return fmt.Errorf("%w: requested=%d, reserved=%d", ErrOverRelease, requested, reserved)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrStockNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrWarehouseNotFound)
}

func IsOptimisticLockError(err error) bool {
	return errors.Is(err, ErrOptimisticLockFailed)
}

func IsInsufficientStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsBusinessRuleError phân biệt lỗi nghiệp vụ (4xx) với lỗi hạ tầng (5xx)
func IsBusinessRuleError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrOverRelease) ||
		errors.Is(err, ErrNegativeStock) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrDuplicateReference)
}

func IsLockError(err error) bool {
	return errors.Is(err, ErrLockNotAcquired)
}
