package repository

import (
	"context"

	"inventory-backend/internal/domains/product/model"
)

type RepositoryInterface interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter model.ListProductsRequest) ([]model.Product, int, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
}
