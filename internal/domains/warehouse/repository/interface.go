package repository

import (
	"context"

	"inventory-backend/internal/domains/warehouse/model"
)

type Repository interface {
	Create(ctx context.Context, warehouse *model.Warehouse) error
	GetByID(ctx context.Context, id string) (*model.Warehouse, error)
	GetByCode(ctx context.Context, code string) (*model.Warehouse, error)
	List(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, int, error)
	ListActive(ctx context.Context) ([]model.Warehouse, error)
	Update(ctx context.Context, warehouse *model.Warehouse) error
	Delete(ctx context.Context, id string) error

	// Validate không còn tồn trước khi xóa
	HasStock(ctx context.Context, warehouseID string) (bool, error)
}
