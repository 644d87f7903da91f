package service

import (
	"context"

	"inventory-backend/internal/domains/warehouse/model"
)

type Service interface {
	CreateWarehouse(ctx context.Context, req model.CreateWarehouseRequest) (*model.Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error)
	GetWarehouseByCode(ctx context.Context, code string) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, int, error)
	ListActiveWarehouses(ctx context.Context) ([]model.Warehouse, error)
	UpdateWarehouse(ctx context.Context, id string, req model.UpdateWarehouseRequest) (*model.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error
}
