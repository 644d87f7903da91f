package service

import (
	"context"

	"inventory-backend/internal/domains/product/model"
)

type ServiceInterface interface {
	CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ListProductsRequest) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, id string, req model.UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
