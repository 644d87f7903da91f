package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/domains/inventory/repository"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/infrastructure/lock"
	"inventory-backend/internal/infrastructure/metrics"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// optimisticRetries: số lần thử lại trong lease khi version conflict.
// Conflict trong critical section hiếm (lock đã serialize), nhưng reconciler
// và MarkSynced có thể chạm row ngoài lock.
const optimisticRetries = 3

// LockFactory mint locks theo namespace. *lock.Manager thoả interface này,
// tests inject manager chạy trên fake clients.
type LockFactory interface {
	ProductWarehouseLock(productID, warehouseID string) *lock.Lock
	WarehouseLock(warehouseID string) *lock.Lock
	FlashSaleLock(productID string) *lock.Lock
}

// MetricsRecorder - phần metrics mà service cần, *metrics.Metrics thoả
type MetricsRecorder interface {
	StockUpdate(operation string, elapsed time.Duration)
}

type StockService struct {
	repo     repository.RepositoryInterface
	locks    LockFactory
	cache    cache.Cache
	metrics  MetricsRecorder
	cacheTTL time.Duration
}

func NewService(repo repository.RepositoryInterface, locks LockFactory, c cache.Cache, m MetricsRecorder, cacheTTL time.Duration) ServiceInterface {
	return &StockService{
		repo:     repo,
		locks:    locks,
		cache:    c,
		metrics:  m,
		cacheTTL: cacheTTL,
	}
}

// ===================================
// RESERVATION ENGINE
// ===================================

// Reserve giữ hàng cho order. Thứ tự cố định cho mọi mutation:
// acquire lock -> mutate trong db tx -> release lock -> invalidate cache -> metric.
// Lock không bao giờ ôm qua external API call.
func (s *StockService) Reserve(ctx context.Context, productID string, req model.ReserveStockRequest) (*model.StockResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, metrics.OpReserve, productID, req.WarehouseID, func(ctx context.Context) (*model.Stock, error) {
		return s.repo.ReserveStock(ctx, productID, req.WarehouseID, req.Quantity, req.OrderID)
	})
}

// Release trả lại hàng đã giữ (order huỷ hoặc hết hạn)
func (s *StockService) Release(ctx context.Context, productID string, req model.ReleaseStockRequest) (*model.StockResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, metrics.OpRelease, productID, req.WarehouseID, func(ctx context.Context) (*model.Stock, error) {
		return s.repo.ReleaseStock(ctx, productID, req.WarehouseID, req.Quantity, req.OrderID)
	})
}

// Adjust đổi số tồn theo delta. Row chưa tồn tại thì repo tự init row zero.
func (s *StockService) Adjust(ctx context.Context, req model.AdjustStockRequest) (*model.StockResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	op := metrics.OpAdjust
	if req.Kind == model.TransactionSync {
		op = metrics.OpSync
	}

	return s.mutate(ctx, op, req.ProductID, req.WarehouseID, func(ctx context.Context) (*model.Stock, error) {
		return s.repo.AdjustStock(ctx, req.ProductID, req.WarehouseID, req.Delta, req.Kind, req.ReferenceID, req.Notes)
	})
}

// mutate là composition chung: lock, mutator với retry, unlock, invalidation, metric
func (s *StockService) mutate(ctx context.Context, operation, productID, warehouseID string, fn func(context.Context) (*model.Stock, error)) (*model.StockResponse, error) {
	start := time.Now()

	l := s.locks.ProductWarehouseLock(productID, warehouseID)
	if err := l.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrLockNotAcquired, err)
	}

	stock, err := s.runWithRetry(ctx, fn)
	l.Release(ctx)

	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, productID, warehouseID)
	s.metrics.StockUpdate(operation, time.Since(start))

	resp := stock.ToResponse()
	return &resp, nil
}

// runWithRetry thử lại mutator khi optimistic lock fail, các lỗi khác trả ngay
func (s *StockService) runWithRetry(ctx context.Context, fn func(context.Context) (*model.Stock, error)) (*model.Stock, error) {
	var lastErr error
	for attempt := 0; attempt < optimisticRetries; attempt++ {
		stock, err := fn(ctx)
		if err == nil {
			return stock, nil
		}
		if !errors.Is(err, model.ErrOptimisticLockFailed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// invalidate xoá cả key cụ thể và key aggregate. Cache lỗi không fail mutation.
func (s *StockService) invalidate(ctx context.Context, productID, warehouseID string) {
	keys := infraCache.StockInvalidationKeys(productID, warehouseID)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Error("failed to invalidate stock cache", err)
	}
}

// BatchUpdate áp từng item độc lập, item fail không chặn item khác
func (s *StockService) BatchUpdate(ctx context.Context, req model.BatchUpdateRequest) (*model.BatchUpdateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &model.BatchUpdateResponse{
		Succeeded: []model.BatchUpdateItemResult{},
		Failed:    []model.BatchUpdateItemResult{},
	}

	for _, item := range req.Items {
		itemResult := model.BatchUpdateItemResult{
			ProductID:   item.ProductID,
			WarehouseID: item.WarehouseID,
			Delta:       item.Delta,
		}

		_, err := s.Adjust(ctx, model.AdjustStockRequest{
			ProductID:   item.ProductID,
			WarehouseID: item.WarehouseID,
			Delta:       item.Delta,
			Kind:        model.TransactionAdjust,
			ReferenceID: item.ReferenceID,
			Notes:       item.Notes,
		})

		if err != nil {
			itemResult.Error = err.Error()
			result.Failed = append(result.Failed, itemResult)
			continue
		}
		result.Succeeded = append(result.Succeeded, itemResult)
	}

	return result, nil
}

// ===================================
// READS
// ===================================

// GetAvailable - read-through cache. warehouseID rỗng trả aggregate với
// breakdown per-warehouse. Cache lỗi coi như miss, không fail read.
func (s *StockService) GetAvailable(ctx context.Context, productID, warehouseID string) (*model.AvailabilityResponse, error) {
	var key string
	if warehouseID == "" {
		key = infraCache.StockAggregateKey(productID)
	} else {
		key = infraCache.StockKey(productID, warehouseID)
	}

	var cached model.AvailabilityResponse
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	} else if err != nil {
		logger.Error("stock cache read failed", err)
	}

	resp, err := s.loadAvailability(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		logger.Error("stock cache write failed", err)
	}

	return resp, nil
}

func (s *StockService) loadAvailability(ctx context.Context, productID, warehouseID string) (*model.AvailabilityResponse, error) {
	if warehouseID != "" {
		stock, err := s.repo.GetStock(ctx, productID, warehouseID)
		if err != nil {
			return nil, err
		}
		return &model.AvailabilityResponse{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    stock.Quantity,
			Reserved:    stock.Reserved,
			Available:   stock.Available,
		}, nil
	}

	stocks, err := s.repo.GetStocksByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, model.NewStockNotFoundError(productID, "any")
	}

	resp := &model.AvailabilityResponse{ProductID: productID}
	for _, stock := range stocks {
		resp.Quantity += stock.Quantity
		resp.Reserved += stock.Reserved
		resp.Available += stock.Available
		resp.ByWarehouse = append(resp.ByWarehouse, model.WarehouseAvailability{
			WarehouseID: stock.WarehouseID,
			Quantity:    stock.Quantity,
			Reserved:    stock.Reserved,
			Available:   stock.Available,
		})
	}

	return resp, nil
}

func (s *StockService) GetStock(ctx context.Context, productID, warehouseID string) (*model.StockResponse, error) {
	stock, err := s.repo.GetStock(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	resp := stock.ToResponse()
	return &resp, nil
}

func (s *StockService) GetWarehouseInventory(ctx context.Context, warehouseID string) ([]model.StockResponse, error) {
	stocks, err := s.repo.GetStocksByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	responses := make([]model.StockResponse, 0, len(stocks))
	for _, stock := range stocks {
		responses = append(responses, stock.ToResponse())
	}
	return responses, nil
}

func (s *StockService) ListTransactions(ctx context.Context, filter model.ListTransactionsRequest) (*model.ListTransactionsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	items, totalItems, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (totalItems + filter.Limit - 1) / filter.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListTransactionsResponse{
		Items:      items,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ===================================
// AGGREGATIONS
// ===================================

func (s *StockService) GetLowStockAlerts(ctx context.Context, threshold int) ([]model.LowStockAlert, error) {
	if threshold <= 0 {
		threshold = 10
	}
	return s.repo.GetLowStockAlerts(ctx, threshold)
}

func (s *StockService) RefreshViews(ctx context.Context) error {
	return s.repo.RefreshViews(ctx)
}

// ===================================
// MAINTENANCE
// ===================================

func (s *StockService) CleanupTransactions(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteTransactionsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info("transaction retention cleanup finished", map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})

	return deleted, nil
}
