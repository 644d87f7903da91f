package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-backend/internal/domains/product/model"
)

// fakeProductRepo giữ products trong map, enforce SKU uniqueness như
// unique index trong Postgres.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*model.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return model.ErrSKUAlreadyExists
		}
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			clone := *p
			return &clone, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (r *fakeProductRepo) List(_ context.Context, filter model.ListProductsRequest) ([]model.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) ListActive(_ context.Context) ([]model.Product, error) {
	active := true
	out, _, err := r.List(context.Background(), model.ListProductsRequest{Active: &active})
	return out, err
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// ===================================
// TESTS
// ===================================

func TestCreateProductAssignsIDAndActivates(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	p, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		SKU:      "SKU-1",
		Name:     "USB-C Cable 1m",
		Category: "accessories",
		Price:    decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsActive)
	assert.Equal(t, "SKU-1", p.SKU)

	got, err := svc.GetProductBySKU(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateProductRejectsMissingFields(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	_, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		SKU: "SKU-1",
		// Name và Category thiếu
	})
	require.Error(t, err)
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	req := model.CreateProductRequest{
		SKU:      "SKU-1",
		Name:     "USB-C Cable 1m",
		Category: "accessories",
		Price:    decimal.NewFromFloat(9.99),
	}

	_, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), req)
	assert.True(t, model.IsDuplicateSKUError(err))
}

func TestUpdateProductPartial(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	p, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		SKU:      "SKU-1",
		Name:     "USB-C Cable 1m",
		Category: "accessories",
		Price:    decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)

	newPrice := decimal.NewFromFloat(7.49)
	inactive := false
	updated, err := svc.UpdateProduct(context.Background(), p.ID, model.UpdateProductRequest{
		Price:    &newPrice,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	// Field không gửi lên giữ nguyên
	assert.Equal(t, "USB-C Cable 1m", updated.Name)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.False(t, updated.IsActive)
}

func TestUpdateProductRejectsNegativePrice(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	p, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		SKU:      "SKU-1",
		Name:     "USB-C Cable 1m",
		Category: "accessories",
		Price:    decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)

	negative := decimal.NewFromFloat(-1)
	_, err = svc.UpdateProduct(context.Background(), p.ID, model.UpdateProductRequest{Price: &negative})
	assert.ErrorIs(t, err, model.ErrInvalidPrice)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := NewService(newFakeProductRepo())

	name := "new name"
	_, err := svc.UpdateProduct(context.Background(), "missing", model.UpdateProductRequest{Name: &name})
	assert.True(t, model.IsNotFoundError(err))
}

func TestListProductsClampsPagination(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewService(repo)

	_, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		SKU:      "SKU-1",
		Name:     "USB-C Cable 1m",
		Category: "accessories",
		Price:    decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)

	items, total, err := svc.ListProducts(context.Background(), model.ListProductsRequest{Page: -3, Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}
