package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"inventory-backend/internal/domains/inventory/model"
	repo "inventory-backend/internal/domains/inventory/repository"
	"inventory-backend/internal/domains/inventory/service"
	productModel "inventory-backend/internal/domains/product/model"
	productRepo "inventory-backend/internal/domains/product/repository"
	warehouseRepo "inventory-backend/internal/domains/warehouse/repository"
	infraCache "inventory-backend/internal/infrastructure/cache"
	warehouseAPI "inventory-backend/internal/infrastructure/warehouse"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// TaskRecorder nhận outcome của background tasks cho metrics
type TaskRecorder interface {
	SyncTask(taskType, status string, elapsed time.Duration)
}

// SyncWarehouseHandler pull số tồn thực tế của một warehouse từ WMS về
// và áp chênh lệch vào DB dưới dạng SYNC adjustments.
type SyncWarehouseHandler struct {
	stocks     service.ServiceInterface
	repo       repo.RepositoryInterface
	products   productRepo.RepositoryInterface
	warehouses warehouseRepo.Repository
	source     warehouseAPI.StockSource
	locks      service.LockFactory
	cache      cache.Cache
	metrics    TaskRecorder
}

func NewSyncWarehouseHandler(
	stocks service.ServiceInterface,
	repo repo.RepositoryInterface,
	products productRepo.RepositoryInterface,
	warehouses warehouseRepo.Repository,
	source warehouseAPI.StockSource,
	locks service.LockFactory,
	cache cache.Cache,
	metrics TaskRecorder,
) *SyncWarehouseHandler {
	return &SyncWarehouseHandler{
		stocks:     stocks,
		repo:       repo,
		products:   products,
		warehouses: warehouses,
		source:     source,
		locks:      locks,
		cache:      cache,
		metrics:    metrics,
	}
}

// ProcessTask xử lý một warehouse sync.
// 1. Fetch số đếm từ warehouse API (chưa cầm lock, call ngoài chậm).
// 2. Acquire warehouse lock để sync không giẫm lên sync khác cùng kho.
// 3. Với từng SKU: so với DB, áp delta qua adjustment path (SYNC transaction).
// 4. Ghi SyncTaskResult vào redis list của fan-out run.
func (h *SyncWarehouseHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload shared.WarehouseSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("SyncWarehouse: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal SyncWarehouse payload: %w", err)
	}
	if payload.WarehouseID == "" {
		return fmt.Errorf("SyncWarehouse: empty warehouse_id in payload")
	}

	wh, err := h.warehouses.GetByID(ctx, payload.WarehouseID)
	if err != nil {
		logger.Error("SyncWarehouse: warehouse lookup failed", err)
		return err
	}

	// 1. Fetch trước khi lock. Lock không bao giờ ôm qua external API call.
	remote, err := h.source.FetchStocks(ctx, wh.Code)
	if err != nil {
		logger.Error("SyncWarehouse: fetch from warehouse api failed", err)
		h.metrics.SyncTask(shared.TypeSyncWarehouse, shared.StatusFailure, time.Since(start))
		return err
	}

	// 2. Warehouse lock serialize các sync run trên cùng kho
	l := h.locks.WarehouseLock(wh.ID)
	if err := l.Acquire(ctx); err != nil {
		logger.Error("SyncWarehouse: lock not acquired", err)
		return err
	}

	runID := payload.TaskID
	if runID == "" {
		runID = uuid.NewString()
	}

	synced := 0
	var errs []string

	// 3. Áp từng SKU
	for _, rs := range remote {
		if err := h.applyRemoteStock(ctx, wh.ID, runID, rs); err != nil {
			errs = append(errs, fmt.Sprintf("sku=%s: %v", rs.SKU, err))
			continue
		}
		synced++
	}

	l.Release(ctx)

	// Run chạy hết danh sách là success, SKU lỗi lẻ nằm trong Errors.
	// Failure chỉ dành cho run bị abort (fetch hỏng, lock không lấy được).
	status := shared.StatusSuccess
	h.metrics.SyncTask(shared.TypeSyncWarehouse, status, time.Since(start))

	// 4. Kết quả cho fan-out run (enqueue lẻ thì bỏ qua)
	if payload.TaskID != "" {
		h.pushResult(ctx, payload.TaskID, shared.SyncTaskResult{
			TaskType:    shared.TypeSyncWarehouse,
			Target:      wh.Code,
			Status:      status,
			SyncedCount: synced,
			Errors:      errs,
			Duration:    time.Since(start),
			FinishedAt:  time.Now().UTC(),
		})
	}

	logger.Info("SyncWarehouse: finished", map[string]interface{}{
		"warehouse": wh.Code,
		"fetched":   len(remote),
		"synced":    synced,
		"errors":    len(errs),
		"task_id":   payload.TaskID,
	})

	return nil
}

// applyRemoteStock đưa quantity của một SKU về số đếm từ WMS.
// Remote thấp hơn reserved thì clamp tại reserved, reconciler và lượt
// sync sau xử lý tiếp khi reservation được release.
func (h *SyncWarehouseHandler) applyRemoteStock(ctx context.Context, warehouseID, runID string, rs warehouseAPI.RemoteStock) error {
	product, err := h.products.GetBySKU(ctx, rs.SKU)
	if err != nil {
		if errors.Is(err, productModel.ErrProductNotFound) {
			return fmt.Errorf("sku not in catalog")
		}
		return err
	}

	current, err := h.repo.EnsureStock(ctx, product.ID, warehouseID)
	if err != nil {
		return err
	}

	target := rs.Quantity
	if target < current.Reserved {
		logger.Warn("SyncWarehouse: remote count below reserved, clamping", map[string]interface{}{
			"sku":      rs.SKU,
			"remote":   rs.Quantity,
			"reserved": current.Reserved,
		})
		target = current.Reserved
	}

	if delta := target - current.Quantity; delta != 0 {
		_, err = h.stocks.Adjust(ctx, model.AdjustStockRequest{
			ProductID:   product.ID,
			WarehouseID: warehouseID,
			Delta:       delta,
			Kind:        model.TransactionSync,
			ReferenceID: fmt.Sprintf("sync:%s:%s", runID, rs.SKU),
			Notes:       "Warehouse sync",
		})
		if err != nil && !errors.Is(err, model.ErrDuplicateReference) {
			return err
		}
	}

	return h.repo.MarkSynced(ctx, current.ID, time.Now().UTC())
}

func (h *SyncWarehouseHandler) pushResult(ctx context.Context, taskID string, result shared.SyncTaskResult) {
	key := infraCache.SyncResultKey(taskID)
	if err := h.cache.RPush(ctx, key, result); err != nil {
		logger.Error("SyncWarehouse: failed to push result", err)
		return
	}
	if err := h.cache.Expire(ctx, key, shared.SyncResultTTL); err != nil {
		logger.Error("SyncWarehouse: failed to set result ttl", err)
	}
}
