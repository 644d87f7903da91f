package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-backend/internal/domains/inventory/model"
	productModel "inventory-backend/internal/domains/product/model"
	warehouseModel "inventory-backend/internal/domains/warehouse/model"
	"inventory-backend/internal/infrastructure/lock"
	"inventory-backend/internal/infrastructure/marketplace"
	warehouseAPI "inventory-backend/internal/infrastructure/warehouse"
	"inventory-backend/internal/shared"
)

// ===================================
// FAKES
// ===================================

// stubService cho phép override từng method qua function field
type stubService struct {
	reserveFn      func(ctx context.Context, productID string, req model.ReserveStockRequest) (*model.StockResponse, error)
	adjustFn       func(ctx context.Context, req model.AdjustStockRequest) (*model.StockResponse, error)
	batchUpdateFn  func(ctx context.Context, req model.BatchUpdateRequest) (*model.BatchUpdateResponse, error)
	getAvailableFn func(ctx context.Context, productID, warehouseID string) (*model.AvailabilityResponse, error)
	reconcileFn    func(ctx context.Context, warehouseID string) (*model.ReconcileResult, error)
	alertsFn       func(ctx context.Context, threshold int) ([]model.LowStockAlert, error)
	cleanupFn      func(ctx context.Context, retentionDays int) (int64, error)
	refreshCalls   int
}

func (s *stubService) Reserve(ctx context.Context, productID string, req model.ReserveStockRequest) (*model.StockResponse, error) {
	if s.reserveFn != nil {
		return s.reserveFn(ctx, productID, req)
	}
	return &model.StockResponse{ProductID: productID}, nil
}

func (s *stubService) Release(ctx context.Context, productID string, req model.ReleaseStockRequest) (*model.StockResponse, error) {
	return &model.StockResponse{ProductID: productID}, nil
}

func (s *stubService) Adjust(ctx context.Context, req model.AdjustStockRequest) (*model.StockResponse, error) {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, req)
	}
	return &model.StockResponse{ProductID: req.ProductID}, nil
}

func (s *stubService) BatchUpdate(ctx context.Context, req model.BatchUpdateRequest) (*model.BatchUpdateResponse, error) {
	if s.batchUpdateFn != nil {
		return s.batchUpdateFn(ctx, req)
	}
	return &model.BatchUpdateResponse{}, nil
}

func (s *stubService) GetAvailable(ctx context.Context, productID, warehouseID string) (*model.AvailabilityResponse, error) {
	if s.getAvailableFn != nil {
		return s.getAvailableFn(ctx, productID, warehouseID)
	}
	return &model.AvailabilityResponse{ProductID: productID}, nil
}

func (s *stubService) GetStock(context.Context, string, string) (*model.StockResponse, error) {
	return nil, model.ErrStockNotFound
}

func (s *stubService) GetWarehouseInventory(context.Context, string) ([]model.StockResponse, error) {
	return nil, nil
}

func (s *stubService) ListTransactions(context.Context, model.ListTransactionsRequest) (*model.ListTransactionsResponse, error) {
	return &model.ListTransactionsResponse{}, nil
}

func (s *stubService) GetLowStockAlerts(ctx context.Context, threshold int) ([]model.LowStockAlert, error) {
	if s.alertsFn != nil {
		return s.alertsFn(ctx, threshold)
	}
	return nil, nil
}

func (s *stubService) RefreshViews(context.Context) error {
	s.refreshCalls++
	return nil
}

func (s *stubService) StockReport(context.Context, string) (*model.StockReport, error) {
	return &model.StockReport{}, nil
}

func (s *stubService) Reconcile(ctx context.Context, warehouseID string) (*model.ReconcileResult, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, warehouseID)
	}
	return &model.ReconcileResult{}, nil
}

func (s *stubService) CleanupTransactions(ctx context.Context, retentionDays int) (int64, error) {
	if s.cleanupFn != nil {
		return s.cleanupFn(ctx, retentionDays)
	}
	return 0, nil
}

// listCache ghi lại RPush/Expire, phần còn lại no-op
type listCache struct {
	mu     sync.Mutex
	lists  map[string][]interface{}
	expiry map[string]time.Duration
}

func newListCache() *listCache {
	return &listCache{
		lists:  map[string][]interface{}{},
		expiry: map[string]time.Duration{},
	}
}

func (c *listCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (c *listCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (c *listCache) Delete(context.Context, ...string) error { return nil }
func (c *listCache) Ping(context.Context) error              { return nil }

func (c *listCache) RPush(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append(c.lists[key], value)
	return nil
}

func (c *listCache) LRange(_ context.Context, key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.lists[key] {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, string(raw))
	}
	return out, nil
}

func (c *listCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lists[key]
	return ok, nil
}

func (c *listCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry[key] = ttl
	return nil
}

func (c *listCache) TTL(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiry[key], nil
}

type recordingMetrics struct {
	mu    sync.Mutex
	tasks map[string]string // task_type -> last status
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{tasks: map[string]string{}}
}

func (m *recordingMetrics) SyncTask(taskType, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskType] = status
}

// localLockClient - một redis instance giả cho redlock
type localLockClient struct {
	mu   sync.Mutex
	held map[string]string
}

func (c *localLockClient) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held == nil {
		c.held = map[string]string{}
	}
	if _, exists := c.held[key]; exists {
		return false, nil
	}
	c.held[key] = value
	return true, nil
}

func (c *localLockClient) ReleaseIfHeld(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[key] == value {
		delete(c.held, key)
	}
	return nil
}

func testLockManager() *lock.Manager {
	clients := []lock.Client{&localLockClient{}, &localLockClient{}, &localLockClient{}}
	return lock.NewManagerWithClients(clients, time.Second, 2, time.Millisecond, nil)
}

// fakeAdapter ghi lại các UpdateStock calls
type fakeAdapter struct {
	mu       sync.Mutex
	name     string
	pushed   map[string]int
	unlisted map[string]bool
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) UpdateStock(_ context.Context, sku string, quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unlisted[sku] {
		return marketplace.ErrSKUNotListed
	}
	if a.pushed == nil {
		a.pushed = map[string]int{}
	}
	a.pushed[sku] = quantity
	return nil
}

func (a *fakeAdapter) GetStock(_ context.Context, sku string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pushed[sku], nil
}

func (a *fakeAdapter) ListOrders(context.Context, time.Time, time.Time) ([]marketplace.Order, error) {
	return nil, nil
}

// fakeSource trả danh sách cố định per warehouse code
type fakeSource struct {
	stocks map[string][]warehouseAPI.RemoteStock
	err    error
}

func (s *fakeSource) FetchStocks(_ context.Context, code string) ([]warehouseAPI.RemoteStock, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stocks[code], nil
}

func mustTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, raw)
}

// ===================================
// FLASH SALE
// ===================================

func TestFlashSaleReservesOrder(t *testing.T) {
	var gotProduct string
	var gotReq model.ReserveStockRequest
	svc := &stubService{
		reserveFn: func(_ context.Context, productID string, req model.ReserveStockRequest) (*model.StockResponse, error) {
			gotProduct = productID
			gotReq = req
			return &model.StockResponse{ProductID: productID}, nil
		},
	}
	h := NewFlashSaleHandler(svc, testLockManager())

	task := mustTask(t, shared.TypeFlashSaleOrder, shared.FlashSaleOrderPayload{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    2,
		OrderID:     "fs-order-1",
	})

	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, "p1", gotProduct)
	assert.Equal(t, "w1", gotReq.WarehouseID)
	assert.Equal(t, 2, gotReq.Quantity)
	assert.Equal(t, "fs-order-1", gotReq.OrderID)
}

func TestFlashSaleSoldOutDoesNotRetry(t *testing.T) {
	svc := &stubService{
		reserveFn: func(context.Context, string, model.ReserveStockRequest) (*model.StockResponse, error) {
			return nil, model.NewInsufficientStockError(2, 0)
		},
	}
	h := NewFlashSaleHandler(svc, testLockManager())

	task := mustTask(t, shared.TypeFlashSaleOrder, shared.FlashSaleOrderPayload{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    2,
		OrderID:     "fs-order-1",
	})

	// Hết hàng là kết quả cuối cùng, handler trả nil để asynq không retry
	assert.NoError(t, h.ProcessTask(context.Background(), task))
}

func TestFlashSaleInfraErrorRetries(t *testing.T) {
	svc := &stubService{
		reserveFn: func(context.Context, string, model.ReserveStockRequest) (*model.StockResponse, error) {
			return nil, fmt.Errorf("connection reset")
		},
	}
	h := NewFlashSaleHandler(svc, testLockManager())

	task := mustTask(t, shared.TypeFlashSaleOrder, shared.FlashSaleOrderPayload{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    1,
		OrderID:     "fs-order-2",
	})

	assert.Error(t, h.ProcessTask(context.Background(), task))
}

// ===================================
// MARKETPLACE SYNC
// ===================================

func TestSyncMarketplacePushesAvailability(t *testing.T) {
	svc := &stubService{
		getAvailableFn: func(_ context.Context, productID, _ string) (*model.AvailabilityResponse, error) {
			switch productID {
			case "p2":
				return nil, model.NewStockNotFoundError(productID, "any")
			case "p3":
				return nil, fmt.Errorf("query timeout")
			}
			return &model.AvailabilityResponse{ProductID: productID, Available: 7}, nil
		},
	}
	adapter := &fakeAdapter{name: "amazon"}
	registry := marketplace.NewRegistryWithAdapters(adapter)
	c := newListCache()
	m := newRecordingMetrics()

	h := NewSyncMarketplaceHandler(svc, &staticProducts{products: []productModel.Product{
		{ID: "p1", SKU: "SKU-1", IsActive: true},
		{ID: "p2", SKU: "SKU-2", IsActive: true},
		{ID: "p3", SKU: "SKU-3", IsActive: true},
	}}, registry, c, m)

	task := mustTask(t, shared.TypeSyncMarketplace, shared.MarketplaceSyncPayload{
		Marketplace: "amazon",
		TaskID:      "run-1",
	})
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.Equal(t, 7, adapter.pushed["SKU-1"])
	// Product chưa có stock row thì push 0
	assert.Equal(t, 0, adapter.pushed["SKU-2"])

	entries, err := c.LRange(context.Background(), "sync:result:run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Run chạy hết danh sách là success dù một SKU lỗi lẻ: lỗi nằm
	// trong Errors, không lật status của cả run
	var result shared.SyncTaskResult
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &result))
	assert.Equal(t, shared.StatusSuccess, result.Status)
	assert.Equal(t, 2, result.SyncedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "SKU-3")
	assert.Equal(t, shared.SyncResultTTL, c.expiry["sync:result:run-1"])
	assert.Equal(t, shared.StatusSuccess, m.tasks[shared.TypeSyncMarketplace])
}

func TestSyncMarketplaceUnknownNameFails(t *testing.T) {
	h := NewSyncMarketplaceHandler(&stubService{}, &staticProducts{},
		marketplace.NewRegistryWithAdapters(), newListCache(), newRecordingMetrics())

	task := mustTask(t, shared.TypeSyncMarketplace, shared.MarketplaceSyncPayload{Marketplace: "alibaba"})
	assert.ErrorIs(t, h.ProcessTask(context.Background(), task), marketplace.ErrUnknownMarketplace)
}

// ===================================
// WAREHOUSE SYNC
// ===================================

func TestSyncWarehouseAppliesDeltas(t *testing.T) {
	var adjusted []model.AdjustStockRequest
	svc := &stubService{
		adjustFn: func(_ context.Context, req model.AdjustStockRequest) (*model.StockResponse, error) {
			adjusted = append(adjusted, req)
			return &model.StockResponse{ProductID: req.ProductID}, nil
		},
	}
	repo := &staticStocks{stocks: map[string]*model.Stock{
		"p1|w1": {ID: "s1", ProductID: "p1", WarehouseID: "w1", Quantity: 10, Reserved: 2, Available: 8},
	}}
	products := &staticProducts{products: []productModel.Product{
		{ID: "p1", SKU: "SKU-1", IsActive: true},
	}}
	warehouses := &staticWarehouses{warehouses: []warehouseModel.Warehouse{
		{ID: "w1", Code: "HCM-01", IsActive: true},
	}}
	source := &fakeSource{stocks: map[string][]warehouseAPI.RemoteStock{
		"HCM-01": {
			{SKU: "SKU-1", Quantity: 14},
			{SKU: "SKU-GHOST", Quantity: 3},
		},
	}}
	c := newListCache()
	m := newRecordingMetrics()

	h := NewSyncWarehouseHandler(svc, repo, products, warehouses, source, testLockManager(), c, m)

	task := mustTask(t, shared.TypeSyncWarehouse, shared.WarehouseSyncPayload{
		WarehouseID: "w1",
		TaskID:      "run-2",
	})
	require.NoError(t, h.ProcessTask(context.Background(), task))

	// SKU-1: 14 remote vs 10 local -> +4 SYNC adjustment
	require.Len(t, adjusted, 1)
	assert.Equal(t, "p1", adjusted[0].ProductID)
	assert.Equal(t, 4, adjusted[0].Delta)
	assert.Equal(t, model.TransactionSync, adjusted[0].Kind)
	assert.Contains(t, adjusted[0].ReferenceID, "sync:run-2:")

	// SKU-GHOST không có trong catalog -> ghi vào errors của run,
	// run vẫn là success vì đã chạy hết danh sách
	entries, err := c.LRange(context.Background(), "sync:result:run-2")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var result shared.SyncTaskResult
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &result))
	assert.Equal(t, "HCM-01", result.Target)
	assert.Equal(t, shared.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.SyncedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "SKU-GHOST")

	// MarkSynced chạy cho SKU áp thành công
	assert.NotNil(t, repo.stocks["p1|w1"].LastSyncAt)
}

func TestSyncWarehouseClampsBelowReserved(t *testing.T) {
	var adjusted []model.AdjustStockRequest
	svc := &stubService{
		adjustFn: func(_ context.Context, req model.AdjustStockRequest) (*model.StockResponse, error) {
			adjusted = append(adjusted, req)
			return &model.StockResponse{}, nil
		},
	}
	repo := &staticStocks{stocks: map[string]*model.Stock{
		"p1|w1": {ID: "s1", ProductID: "p1", WarehouseID: "w1", Quantity: 10, Reserved: 6, Available: 4},
	}}
	h := NewSyncWarehouseHandler(svc, repo,
		&staticProducts{products: []productModel.Product{{ID: "p1", SKU: "SKU-1"}}},
		&staticWarehouses{warehouses: []warehouseModel.Warehouse{{ID: "w1", Code: "HCM-01"}}},
		&fakeSource{stocks: map[string][]warehouseAPI.RemoteStock{
			"HCM-01": {{SKU: "SKU-1", Quantity: 2}}, // dưới reserved 6
		}},
		testLockManager(), newListCache(), newRecordingMetrics())

	task := mustTask(t, shared.TypeSyncWarehouse, shared.WarehouseSyncPayload{WarehouseID: "w1"})
	require.NoError(t, h.ProcessTask(context.Background(), task))

	// Target clamp tại reserved: 6 - 10 = -4, không bao giờ kéo dưới reserved
	require.Len(t, adjusted, 1)
	assert.Equal(t, -4, adjusted[0].Delta)
}

func TestSyncWarehouseFetchFailureRetries(t *testing.T) {
	m := newRecordingMetrics()
	h := NewSyncWarehouseHandler(&stubService{}, &staticStocks{},
		&staticProducts{}, &staticWarehouses{warehouses: []warehouseModel.Warehouse{{ID: "w1", Code: "HCM-01"}}},
		&fakeSource{err: fmt.Errorf("wms unreachable")},
		testLockManager(), newListCache(), m)

	task := mustTask(t, shared.TypeSyncWarehouse, shared.WarehouseSyncPayload{WarehouseID: "w1"})
	assert.Error(t, h.ProcessTask(context.Background(), task))

	// Run bị abort mới là failure
	assert.Equal(t, shared.StatusFailure, m.tasks[shared.TypeSyncWarehouse])
}

// ===================================
// BATCH UPDATE / RECONCILE
// ===================================

func TestBatchUpdatePushesResult(t *testing.T) {
	svc := &stubService{
		batchUpdateFn: func(_ context.Context, req model.BatchUpdateRequest) (*model.BatchUpdateResponse, error) {
			return &model.BatchUpdateResponse{
				Succeeded: []model.BatchUpdateItemResult{{ProductID: "p1"}},
				Failed:    []model.BatchUpdateItemResult{{ProductID: "p2", Error: "negative stock"}},
			}, nil
		},
	}
	c := newListCache()
	m := newRecordingMetrics()
	h := NewBatchUpdateHandler(svc, c, m)

	task := mustTask(t, shared.TypeBatchUpdate, shared.BatchUpdatePayload{
		TaskID: "run-3",
		Items: []shared.BatchUpdateItem{
			{ProductID: "p1", WarehouseID: "w1", Delta: 5},
			{ProductID: "p2", WarehouseID: "w1", Delta: -50},
		},
	})
	require.NoError(t, h.ProcessTask(context.Background(), task))

	entries, err := c.LRange(context.Background(), "sync:result:run-3")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Item fail không lật status: run đã áp hết danh sách
	var result shared.SyncTaskResult
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &result))
	assert.Equal(t, shared.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.SyncedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "negative stock")
}

func TestReconcileHandlerRecordsOutcome(t *testing.T) {
	svc := &stubService{
		reconcileFn: func(_ context.Context, warehouseID string) (*model.ReconcileResult, error) {
			assert.Equal(t, "w1", warehouseID)
			return &model.ReconcileResult{TotalChecked: 5, DiscrepanciesFound: 1, CorrectionsMade: 1}, nil
		},
	}
	c := newListCache()
	m := newRecordingMetrics()
	h := NewReconcileHandler(svc, c, m)

	task := mustTask(t, shared.TypeReconcile, shared.ReconcilePayload{WarehouseID: "w1", TaskID: "run-4"})
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.Equal(t, "success", m.tasks[shared.TypeReconcile])

	entries, err := c.LRange(context.Background(), "sync:result:run-4")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCleanupHandlerFallsBackToDefaultRetention(t *testing.T) {
	var gotDays int
	svc := &stubService{
		cleanupFn: func(_ context.Context, retentionDays int) (int64, error) {
			gotDays = retentionDays
			return 3, nil
		},
	}
	h := NewCleanupTransactionsHandler(svc, 90)

	task := mustTask(t, shared.TypeCleanupTransactions, shared.CleanupTransactionsPayload{})
	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, 90, gotDays)
}

// ===================================
// STATIC REPO FAKES
// ===================================

type staticProducts struct {
	products []productModel.Product
}

func (r *staticProducts) Create(context.Context, *productModel.Product) error { return nil }

func (r *staticProducts) GetByID(_ context.Context, id string) (*productModel.Product, error) {
	for i := range r.products {
		if r.products[i].ID == id {
			return &r.products[i], nil
		}
	}
	return nil, productModel.ErrProductNotFound
}

func (r *staticProducts) GetBySKU(_ context.Context, sku string) (*productModel.Product, error) {
	for i := range r.products {
		if r.products[i].SKU == sku {
			return &r.products[i], nil
		}
	}
	return nil, productModel.ErrProductNotFound
}

func (r *staticProducts) List(context.Context, productModel.ListProductsRequest) ([]productModel.Product, int, error) {
	return r.products, len(r.products), nil
}

func (r *staticProducts) ListActive(context.Context) ([]productModel.Product, error) {
	return r.products, nil
}

func (r *staticProducts) Update(context.Context, *productModel.Product) error { return nil }
func (r *staticProducts) Delete(context.Context, string) error                { return nil }

type staticWarehouses struct {
	warehouses []warehouseModel.Warehouse
}

func (r *staticWarehouses) Create(context.Context, *warehouseModel.Warehouse) error { return nil }

func (r *staticWarehouses) GetByID(_ context.Context, id string) (*warehouseModel.Warehouse, error) {
	for i := range r.warehouses {
		if r.warehouses[i].ID == id {
			return &r.warehouses[i], nil
		}
	}
	return nil, warehouseModel.ErrWarehouseNotFound
}

func (r *staticWarehouses) GetByCode(_ context.Context, code string) (*warehouseModel.Warehouse, error) {
	for i := range r.warehouses {
		if r.warehouses[i].Code == code {
			return &r.warehouses[i], nil
		}
	}
	return nil, warehouseModel.ErrWarehouseNotFound
}

func (r *staticWarehouses) List(context.Context, warehouseModel.ListWarehouseFilter) ([]warehouseModel.Warehouse, int, error) {
	return r.warehouses, len(r.warehouses), nil
}

func (r *staticWarehouses) ListActive(context.Context) ([]warehouseModel.Warehouse, error) {
	return r.warehouses, nil
}

func (r *staticWarehouses) Update(context.Context, *warehouseModel.Warehouse) error { return nil }
func (r *staticWarehouses) Delete(context.Context, string) error                    { return nil }
func (r *staticWarehouses) HasStock(context.Context, string) (bool, error)          { return false, nil }

// staticStocks chỉ implement phần sync handler cần, phần còn lại trả not found
type staticStocks struct {
	mu     sync.Mutex
	stocks map[string]*model.Stock
}

func (r *staticStocks) GetStock(_ context.Context, productID, warehouseID string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[productID+"|"+warehouseID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, model.NewStockNotFoundError(productID, warehouseID)
}

func (r *staticStocks) GetStocksByProduct(context.Context, string) ([]model.Stock, error) {
	return nil, nil
}

func (r *staticStocks) GetStocksByWarehouse(context.Context, string) ([]model.Stock, error) {
	return nil, nil
}

func (r *staticStocks) ListAllStocks(context.Context) ([]model.Stock, error) { return nil, nil }

func (r *staticStocks) EnsureStock(_ context.Context, productID, warehouseID string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := productID + "|" + warehouseID
	if r.stocks == nil {
		r.stocks = map[string]*model.Stock{}
	}
	if s, ok := r.stocks[key]; ok {
		copied := *s
		return &copied, nil
	}
	s := &model.Stock{ID: "s-" + key, ProductID: productID, WarehouseID: warehouseID, Version: 1}
	r.stocks[key] = s
	copied := *s
	return &copied, nil
}

func (r *staticStocks) ReserveStock(context.Context, string, string, int, string) (*model.Stock, error) {
	return nil, model.ErrStockNotFound
}

func (r *staticStocks) ReleaseStock(context.Context, string, string, int, string) (*model.Stock, error) {
	return nil, model.ErrStockNotFound
}

func (r *staticStocks) AdjustStock(context.Context, string, string, int, string, string, string) (*model.Stock, error) {
	return nil, model.ErrStockNotFound
}

func (r *staticStocks) RepairStock(context.Context, string, string, string, string) (*model.Stock, error) {
	return nil, model.ErrStockNotFound
}

func (r *staticStocks) MarkSynced(_ context.Context, stockID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks {
		if s.ID == stockID {
			s.LastSyncAt = &at
			return nil
		}
	}
	return model.ErrStockNotFound
}

func (r *staticStocks) ListTransactions(context.Context, model.ListTransactionsRequest) ([]model.StockTransaction, int, error) {
	return nil, 0, nil
}

func (r *staticStocks) HasTransaction(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (r *staticStocks) DeleteTransactionsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *staticStocks) RefreshViews(context.Context) error { return nil }

func (r *staticStocks) GetAggregatedStock(context.Context, string) (*model.AggregatedStock, error) {
	return nil, model.ErrStockNotFound
}

func (r *staticStocks) GetLowStockAlerts(context.Context, int) ([]model.LowStockAlert, error) {
	return nil, nil
}

func (r *staticStocks) GetStockReportRows(context.Context, string) ([]model.StockReportRow, error) {
	return nil, nil
}
