package service

import (
	"context"

	"github.com/google/uuid"

	"inventory-backend/internal/domains/warehouse/model"
	"inventory-backend/internal/domains/warehouse/repository"
)

type warehouseService struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) Service {
	return &warehouseService{repo: repo}
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, req model.CreateWarehouseRequest) (*model.Warehouse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	warehouse := &model.Warehouse{
		ID:       uuid.New().String(),
		Code:     req.Code,
		Name:     req.Name,
		Location: req.Location,
		Priority: req.Priority,
		IsActive: true,
	}

	if err := s.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}

	return warehouse, nil
}

func (s *warehouseService) GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *warehouseService) GetWarehouseByCode(ctx context.Context, code string) (*model.Warehouse, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *warehouseService) ListWarehouses(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

func (s *warehouseService) ListActiveWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	return s.repo.ListActive(ctx)
}

func (s *warehouseService) UpdateWarehouse(ctx context.Context, id string, req model.UpdateWarehouseRequest) (*model.Warehouse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	warehouse, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		warehouse.Name = *req.Name
	}
	if req.Location != nil {
		warehouse.Location = *req.Location
	}
	if req.Priority != nil {
		warehouse.Priority = *req.Priority
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}

	return warehouse, nil
}

// DeleteWarehouse từ chối xóa kho còn tồn, tránh mồ côi transaction log
func (s *warehouseService) DeleteWarehouse(ctx context.Context, id string) error {
	hasStock, err := s.repo.HasStock(ctx, id)
	if err != nil {
		return err
	}
	if hasStock {
		return model.ErrWarehouseHasStock
	}
	return s.repo.Delete(ctx, id)
}
