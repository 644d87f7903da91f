package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/infrastructure/lock"
)

// ===================================
// FAKES
// ===================================

// memoryRepo serializes mutations with a mutex and mirrors the store's
// invariant checks, duplicate-reference guard and version bumps.
type memoryRepo struct {
	mu           sync.Mutex
	stocks       map[string]*model.Stock
	transactions []model.StockTransaction
	reportRows   []model.StockReportRow
	alerts       []model.LowStockAlert
	refreshed    int

	failReserveTimes int // trả ErrOptimisticLockFailed chừng này lần trước khi chịu chạy
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: map[string]*model.Stock{}}
}

func stockKey(productID, warehouseID string) string {
	return productID + "|" + warehouseID
}

func (r *memoryRepo) seed(productID, warehouseID string, quantity, reserved int) *model.Stock {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.Stock{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Reserved:    reserved,
		Available:   quantity - reserved,
		Version:     1,
		UpdatedAt:   time.Now(),
	}
	r.stocks[stockKey(productID, warehouseID)] = s
	return s
}

func (r *memoryRepo) GetStock(_ context.Context, productID, warehouseID string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, model.NewStockNotFoundError(productID, warehouseID)
	}
	copied := *s
	return &copied, nil
}

func (r *memoryRepo) GetStocksByProduct(_ context.Context, productID string) ([]model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Stock
	for _, s := range r.stocks {
		if s.ProductID == productID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetStocksByWarehouse(_ context.Context, warehouseID string) ([]model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Stock
	for _, s := range r.stocks {
		if s.WarehouseID == warehouseID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListAllStocks(_ context.Context) ([]model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Stock
	for _, s := range r.stocks {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memoryRepo) EnsureStock(_ context.Context, productID, warehouseID string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey(productID, warehouseID)
	if s, ok := r.stocks[key]; ok {
		copied := *s
		return &copied, nil
	}
	s := &model.Stock{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Version:     1,
		UpdatedAt:   time.Now(),
	}
	r.stocks[key] = s
	copied := *s
	return &copied, nil
}

func (r *memoryRepo) hasTransactionLocked(stockID, kind, referenceID string) bool {
	for _, t := range r.transactions {
		if t.StockID == stockID && t.TransactionType == kind && t.ReferenceID != nil && *t.ReferenceID == referenceID {
			return true
		}
	}
	return false
}

func (r *memoryRepo) appendLocked(stockID, kind string, quantity int, referenceID string) {
	tx := model.StockTransaction{
		ID:              uuid.New().String(),
		StockID:         stockID,
		TransactionType: kind,
		Quantity:        quantity,
		CreatedBy:       "system",
		CreatedAt:       time.Now(),
	}
	if referenceID != "" {
		tx.ReferenceID = &referenceID
	}
	r.transactions = append(r.transactions, tx)
}

func (r *memoryRepo) ReserveStock(_ context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReserveTimes > 0 {
		r.failReserveTimes--
		return nil, model.ErrOptimisticLockFailed
	}

	s, ok := r.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, model.NewStockNotFoundError(productID, warehouseID)
	}
	if orderID != "" && r.hasTransactionLocked(s.ID, model.TransactionReserve, orderID) {
		return nil, fmt.Errorf("%w: order_id=%s", model.ErrDuplicateReference, orderID)
	}
	if s.Available < quantity {
		return nil, model.NewInsufficientStockError(quantity, s.Available)
	}

	s.Reserved += quantity
	s.Available = s.Quantity - s.Reserved
	s.Version++
	s.UpdatedAt = time.Now()
	r.appendLocked(s.ID, model.TransactionReserve, quantity, orderID)

	copied := *s
	return &copied, nil
}

func (r *memoryRepo) ReleaseStock(_ context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, model.NewStockNotFoundError(productID, warehouseID)
	}
	if orderID != "" && r.hasTransactionLocked(s.ID, model.TransactionRelease, orderID) {
		return nil, fmt.Errorf("%w: order_id=%s", model.ErrDuplicateReference, orderID)
	}
	if s.Reserved < quantity {
		return nil, model.NewOverReleaseError(quantity, s.Reserved)
	}

	s.Reserved -= quantity
	s.Available = s.Quantity - s.Reserved
	s.Version++
	s.UpdatedAt = time.Now()
	r.appendLocked(s.ID, model.TransactionRelease, -quantity, orderID)

	copied := *s
	return &copied, nil
}

func (r *memoryRepo) AdjustStock(_ context.Context, productID, warehouseID string, delta int, kind, referenceID, _ string) (*model.Stock, error) {
	if !model.IsValidTransactionType(kind) {
		return nil, model.ErrInvalidTransactionType
	}
	if delta == 0 {
		return nil, model.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stockKey(productID, warehouseID)
	s, ok := r.stocks[key]
	if !ok {
		s = &model.Stock{
			ID:          uuid.New().String(),
			ProductID:   productID,
			WarehouseID: warehouseID,
			Version:     1,
			UpdatedAt:   time.Now(),
		}
		r.stocks[key] = s
	}

	if referenceID != "" && r.hasTransactionLocked(s.ID, kind, referenceID) {
		return nil, fmt.Errorf("%w: reference_id=%s", model.ErrDuplicateReference, referenceID)
	}

	newQuantity := s.Quantity + delta
	if newQuantity < 0 || newQuantity < s.Reserved {
		return nil, model.ErrNegativeStock
	}

	s.Quantity = newQuantity
	s.Available = s.Quantity - s.Reserved
	s.Version++
	s.UpdatedAt = time.Now()
	r.appendLocked(s.ID, kind, delta, referenceID)

	copied := *s
	return &copied, nil
}

func (r *memoryRepo) RepairStock(_ context.Context, productID, warehouseID, referenceID, _ string) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, model.NewStockNotFoundError(productID, warehouseID)
	}
	if referenceID != "" && r.hasTransactionLocked(s.ID, model.TransactionSync, referenceID) {
		return nil, fmt.Errorf("%w: reference_id=%s", model.ErrDuplicateReference, referenceID)
	}

	s.Available = s.Quantity - s.Reserved
	s.Version++
	s.UpdatedAt = time.Now()
	r.appendLocked(s.ID, model.TransactionSync, 0, referenceID)

	copied := *s
	return &copied, nil
}

func (r *memoryRepo) MarkSynced(_ context.Context, stockID string, at time.Time) error {
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

func (r *memoryRepo) ListTransactions(_ context.Context, filter model.ListTransactionsRequest) ([]model.StockTransaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockTransaction
	for _, t := range r.transactions {
		if filter.TransactionType != nil && t.TransactionType != *filter.TransactionType {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (r *memoryRepo) HasTransaction(_ context.Context, stockID, kind, referenceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasTransactionLocked(stockID, kind, referenceID), nil
}

func (r *memoryRepo) DeleteTransactionsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []model.StockTransaction
	var deleted int64
	for _, t := range r.transactions {
		if t.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.transactions = kept
	return deleted, nil
}

func (r *memoryRepo) RefreshViews(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshed++
	return nil
}

func (r *memoryRepo) GetAggregatedStock(_ context.Context, productID string) (*model.AggregatedStock, error) {
	return nil, model.ErrStockNotFound
}

func (r *memoryRepo) GetLowStockAlerts(_ context.Context, threshold int) ([]model.LowStockAlert, error) {
	var out []model.LowStockAlert
	for _, a := range r.alerts {
		if a.Available < threshold {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetStockReportRows(_ context.Context, warehouseID string) ([]model.StockReportRow, error) {
	return r.reportRows, nil
}

// memoryCache - map đơn giản, ghi lại các key bị Delete
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if resp, ok := v.(*model.AvailabilityResponse); ok {
		if target, ok := dest.(*model.AvailabilityResponse); ok {
			*target = *resp
			return true, nil
		}
	}
	return false, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func (c *memoryCache) Ping(context.Context) error                          { return nil }
func (c *memoryCache) RPush(context.Context, string, interface{}) error    { return nil }
func (c *memoryCache) LRange(context.Context, string) ([]string, error)    { return nil, nil }
func (c *memoryCache) Exists(context.Context, string) (bool, error)        { return false, nil }
func (c *memoryCache) Expire(context.Context, string, time.Duration) error { return nil }
func (c *memoryCache) TTL(context.Context, string) (time.Duration, error)  { return 0, nil }

// fakeLockClient - in-memory redis instance cho redlock
type fakeLockClient struct {
	mu     sync.Mutex
	held   map[string]string
	isDown bool
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{held: map[string]string{}}
}

func (c *fakeLockClient) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isDown {
		return false, fmt.Errorf("connection refused")
	}
	if _, exists := c.held[key]; exists {
		return false, nil
	}
	c.held[key] = value
	return true, nil
}

func (c *fakeLockClient) ReleaseIfHeld(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isDown {
		return fmt.Errorf("connection refused")
	}
	if c.held[key] == value {
		delete(c.held, key)
	}
	return nil
}

type countingMetrics struct {
	mu      sync.Mutex
	updates map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{updates: map[string]int{}}
}

func (m *countingMetrics) StockUpdate(operation string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[operation]++
}

func newTestService(repo *memoryRepo) (*StockService, *memoryCache, *countingMetrics) {
	clients := []lock.Client{newFakeLockClient(), newFakeLockClient(), newFakeLockClient()}
	manager := lock.NewManagerWithClients(clients, 500*time.Millisecond, 3, 5*time.Millisecond, nil)
	c := newMemoryCache()
	m := newCountingMetrics()
	svc := NewService(repo, manager, c, m, time.Minute).(*StockService)
	return svc, c, m
}

// ===================================
// RESERVATION ENGINE
// ===================================

func TestReserveDecrementsAvailable(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	svc, _, metricsRec := newTestService(repo)

	resp, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{
		WarehouseID: "w1",
		Quantity:    3,
		OrderID:     "order-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Quantity)
	assert.Equal(t, 3, resp.Reserved)
	assert.Equal(t, 7, resp.Available)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, 1, metricsRec.updates["reserve"])

	kind := model.TransactionReserve
	txs, _, err := repo.ListTransactions(context.Background(), model.ListTransactionsRequest{TransactionType: &kind})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 3, txs[0].Quantity)
}

func TestReserveInsufficientStockMutatesNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 2, 0)
	svc, _, _ := newTestService(repo)

	_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{
		WarehouseID: "w1",
		Quantity:    5,
		OrderID:     "order-1",
	})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	stock, err := repo.GetStock(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Reserved)
	assert.Equal(t, 1, stock.Version)
	assert.Empty(t, repo.transactions)
}

func TestReserveDuplicateOrderRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	svc, _, _ := newTestService(repo)

	req := model.ReserveStockRequest{WarehouseID: "w1", Quantity: 2, OrderID: "order-1"}

	_, err := svc.Reserve(context.Background(), "p1", req)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), "p1", req)
	assert.ErrorIs(t, err, model.ErrDuplicateReference)

	stock, _ := repo.GetStock(context.Background(), "p1", "w1")
	assert.Equal(t, 2, stock.Reserved)
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	svc, _, _ := newTestService(repo)

	_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{WarehouseID: "w1", Quantity: 4, OrderID: "order-1"})
	require.NoError(t, err)

	resp, err := svc.Release(context.Background(), "p1", model.ReleaseStockRequest{WarehouseID: "w1", Quantity: 4, OrderID: "order-1"})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Quantity)
	assert.Equal(t, 0, resp.Reserved)
	assert.Equal(t, 10, resp.Available)
}

func TestReleaseMoreThanReservedRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 2)
	svc, _, _ := newTestService(repo)

	_, err := svc.Release(context.Background(), "p1", model.ReleaseStockRequest{WarehouseID: "w1", Quantity: 5, OrderID: "order-1"})
	assert.ErrorIs(t, err, model.ErrOverRelease)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 5, 0)
	svc, _, _ := newTestService(repo)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{
				WarehouseID: "w1",
				Quantity:    1,
				OrderID:     fmt.Sprintf("order-%d", n),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, model.ErrInsufficientStock)
		}
	}

	assert.Equal(t, 5, succeeded)

	stock, _ := repo.GetStock(context.Background(), "p1", "w1")
	assert.Equal(t, 5, stock.Reserved)
	assert.Equal(t, 0, stock.Available)
}

func TestOptimisticConflictRetriedWithinLease(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	repo.failReserveTimes = 2
	svc, _, _ := newTestService(repo)

	resp, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{WarehouseID: "w1", Quantity: 1, OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Reserved)
}

func TestOptimisticConflictExhaustsRetries(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	repo.failReserveTimes = optimisticRetries
	svc, _, _ := newTestService(repo)

	_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{WarehouseID: "w1", Quantity: 1, OrderID: "order-1"})
	assert.ErrorIs(t, err, model.ErrOptimisticLockFailed)
}

func TestLockQuorumFailureSurfacesLockError(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)

	down1, down2 := newFakeLockClient(), newFakeLockClient()
	down1.isDown = true
	down2.isDown = true
	clients := []lock.Client{newFakeLockClient(), down1, down2}
	manager := lock.NewManagerWithClients(clients, 500*time.Millisecond, 2, time.Millisecond, nil)
	svc := NewService(repo, manager, newMemoryCache(), newCountingMetrics(), time.Minute)

	_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{WarehouseID: "w1", Quantity: 1, OrderID: "order-1"})
	assert.ErrorIs(t, err, model.ErrLockNotAcquired)

	stock, _ := repo.GetStock(context.Background(), "p1", "w1")
	assert.Equal(t, 0, stock.Reserved)
}

// ===================================
// ADJUSTMENTS
// ===================================

func TestAdjustInitializesMissingRow(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)

	resp, err := svc.Adjust(context.Background(), model.AdjustStockRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Delta:       15,
		Kind:        model.TransactionIn,
		ReferenceID: "po-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, resp.Quantity)
	assert.Equal(t, 15, resp.Available)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 5, 3)
	svc, _, _ := newTestService(repo)

	// Quantity xuống 2 < reserved 3 là vi phạm invariant
	_, err := svc.Adjust(context.Background(), model.AdjustStockRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Delta:       -3,
		Kind:        model.TransactionOut,
		ReferenceID: "ship-1",
	})
	assert.ErrorIs(t, err, model.ErrNegativeStock)
}

func TestAdjustRejectsUnknownKind(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)

	_, err := svc.Adjust(context.Background(), model.AdjustStockRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Delta:       1,
		Kind:        "TELEPORT",
	})
	require.Error(t, err)
}

func TestBatchUpdatePartialFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 8)
	svc, _, _ := newTestService(repo)

	resp, err := svc.BatchUpdate(context.Background(), model.BatchUpdateRequest{
		Items: []model.BatchUpdateItemRequest{
			{ProductID: "p1", WarehouseID: "w1", Delta: 5, ReferenceID: "b-1"},
			{ProductID: "p1", WarehouseID: "w1", Delta: -20, ReferenceID: "b-2"}, // drives below reserved
			{ProductID: "p2", WarehouseID: "w1", Delta: 3, ReferenceID: "b-3"},
		},
	})
	require.NoError(t, err)

	assert.Len(t, resp.Succeeded, 2)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, -20, resp.Failed[0].Delta)
	assert.NotEmpty(t, resp.Failed[0].Error)
}

// ===================================
// CACHE BEHAVIOUR
// ===================================

func TestMutationInvalidatesBothCacheKeys(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	svc, c, _ := newTestService(repo)

	_, err := svc.Reserve(context.Background(), "p1", model.ReserveStockRequest{WarehouseID: "w1", Quantity: 1, OrderID: "order-1"})
	require.NoError(t, err)

	assert.Contains(t, c.deleted, "stock:p1:w1")
	assert.Contains(t, c.deleted, "stock:p1:all")
}

func TestGetAvailableReadThrough(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 4)
	svc, c, _ := newTestService(repo)

	resp, err := svc.GetAvailable(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Quantity)
	assert.Equal(t, 4, resp.Reserved)
	assert.Equal(t, 6, resp.Available)

	// Đổi store ngầm: lần đọc thứ hai vẫn trả giá trị cache
	repo.seed("p1", "w1", 100, 0)
	resp, err = svc.GetAvailable(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Available)

	_, ok := c.entries["stock:p1:w1"]
	assert.True(t, ok)
}

func TestGetAvailableAggregateBreakdown(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 2)
	repo.seed("p1", "w2", 5, 1)
	svc, _, _ := newTestService(repo)

	resp, err := svc.GetAvailable(context.Background(), "p1", "")
	require.NoError(t, err)

	// Tổng top-level là tổng trên các kho, khớp với breakdown
	assert.Equal(t, 15, resp.Quantity)
	assert.Equal(t, 3, resp.Reserved)
	assert.Equal(t, 12, resp.Available)
	assert.Len(t, resp.ByWarehouse, 2)
}

// ===================================
// RECONCILER
// ===================================

func TestReconcileRepairsDriftThenIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "w1", 10, 0)
	// Inject drift: sync overwrote quantity below the reserved amount
	drifted := repo.seed("p2", "w1", 3, 5)
	drifted.Available = -2
	// Inject drift: available stale while quantity/reserved are valid
	stale := repo.seed("p3", "w1", 5, 2)
	stale.Available = 5

	svc, _, _ := newTestService(repo)

	result, err := svc.Reconcile(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalChecked)
	assert.Equal(t, 2, result.DiscrepanciesFound)
	assert.Equal(t, 2, result.CorrectionsMade)
	assert.Empty(t, result.Errors)

	stock, _ := repo.GetStock(context.Background(), "p2", "w1")
	assert.Equal(t, 5, stock.Quantity)
	assert.Equal(t, 5, stock.Reserved)
	assert.Equal(t, 0, stock.Available)

	// Available lệch không được suy ngược thành quantity: quantity giữ
	// nguyên, available về lại quantity - reserved
	repaired, _ := repo.GetStock(context.Background(), "p3", "w1")
	assert.Equal(t, 5, repaired.Quantity)
	assert.Equal(t, 2, repaired.Reserved)
	assert.Equal(t, 3, repaired.Available)

	// Mỗi correction phải được log dưới dạng SYNC transaction,
	// repair không đổi quantity thì log quantity 0
	kind := model.TransactionSync
	txs, _, _ := repo.ListTransactions(context.Background(), model.ListTransactionsRequest{TransactionType: &kind})
	require.Len(t, txs, 2)

	// Lần chạy thứ hai không còn gì để sửa
	second, err := svc.Reconcile(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.DiscrepanciesFound)
	assert.Equal(t, 0, second.CorrectionsMade)
}

// ===================================
// MAINTENANCE / REPORTING
// ===================================

func TestCleanupTransactionsHonoursCutoff(t *testing.T) {
	repo := newMemoryRepo()
	repo.transactions = []model.StockTransaction{
		{ID: "old", CreatedAt: time.Now().AddDate(0, 0, -120)},
		{ID: "recent", CreatedAt: time.Now().AddDate(0, 0, -5)},
	}
	svc, _, _ := newTestService(repo)

	deleted, err := svc.CleanupTransactions(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.Len(t, repo.transactions, 1)
	assert.Equal(t, "recent", repo.transactions[0].ID)
}

func TestCleanupTransactionsRejectsNonPositiveRetention(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())

	_, err := svc.CleanupTransactions(context.Background(), 0)
	assert.Error(t, err)
}

func TestStockReportSumsDecimalValue(t *testing.T) {
	repo := newMemoryRepo()
	repo.reportRows = []model.StockReportRow{
		{SKU: "SKU-1", Available: 3, UnitPrice: decimal.RequireFromString("19.99")},
		{SKU: "SKU-2", Available: 2, UnitPrice: decimal.RequireFromString("5.50")},
	}
	svc, _, _ := newTestService(repo)

	report, err := svc.StockReport(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, report.TotalValue.Equal(decimal.RequireFromString("70.97")),
		"got %s", report.TotalValue)
}

func TestLowStockAlertLevels(t *testing.T) {
	cases := []struct {
		available int
		level     string
	}{
		{0, model.AlertOutOfStock},
		{-1, model.AlertOutOfStock},
		{4, model.AlertCritical},
		{9, model.AlertLow},
		{10, model.AlertWarning},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, model.AlertLevelFor(tc.available), "available=%d", tc.available)
	}
}
