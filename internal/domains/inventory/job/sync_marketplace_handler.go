package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/domains/inventory/service"
	productRepo "inventory-backend/internal/domains/product/repository"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/infrastructure/marketplace"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// SyncMarketplaceHandler push available quantity của toàn bộ catalog
// lên một marketplace. Mỗi SKU fail độc lập, run vẫn chạy hết danh sách.
type SyncMarketplaceHandler struct {
	stocks   service.ServiceInterface
	products productRepo.RepositoryInterface
	registry *marketplace.Registry
	cache    cache.Cache
	metrics  TaskRecorder
}

func NewSyncMarketplaceHandler(
	stocks service.ServiceInterface,
	products productRepo.RepositoryInterface,
	registry *marketplace.Registry,
	cache cache.Cache,
	metrics TaskRecorder,
) *SyncMarketplaceHandler {
	return &SyncMarketplaceHandler{
		stocks:   stocks,
		products: products,
		registry: registry,
		cache:    cache,
		metrics:  metrics,
	}
}

// ProcessTask đẩy availability lên marketplace trong payload.
// Không cầm lock nào: đây là read từ DB rồi call ngoài, số liệu
// eventually consistent theo thiết kế.
func (h *SyncMarketplaceHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload shared.MarketplaceSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("SyncMarketplace: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal SyncMarketplace payload: %w", err)
	}

	adapter, err := h.registry.Get(payload.Marketplace)
	if err != nil {
		// Tên sai trong payload, retry không sửa được
		logger.Error("SyncMarketplace: unknown marketplace", err)
		return err
	}

	products, err := h.products.ListActive(ctx)
	if err != nil {
		logger.Error("SyncMarketplace: failed to list products", err)
		return err
	}

	synced := 0
	skipped := 0
	var errs []string

	for _, p := range products {
		available, err := h.availableFor(ctx, p.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("sku=%s: %v", p.SKU, err))
			continue
		}

		if err := adapter.UpdateStock(ctx, p.SKU, available); err != nil {
			if errors.Is(err, marketplace.ErrSKUNotListed) {
				skipped++
				continue
			}
			errs = append(errs, fmt.Sprintf("sku=%s: %v", p.SKU, err))
			continue
		}
		synced++
	}

	// Run chạy hết danh sách là success, SKU lỗi lẻ nằm trong Errors.
	// Failure chỉ dành cho run bị abort ở các nhánh return phía trên.
	status := shared.StatusSuccess
	h.metrics.SyncTask(shared.TypeSyncMarketplace, status, time.Since(start))

	if payload.TaskID != "" {
		h.pushResult(ctx, payload.TaskID, shared.SyncTaskResult{
			TaskType:    shared.TypeSyncMarketplace,
			Target:      payload.Marketplace,
			Status:      status,
			SyncedCount: synced,
			Errors:      errs,
			Duration:    time.Since(start),
			FinishedAt:  time.Now().UTC(),
		})
	}

	logger.Info("SyncMarketplace: finished", map[string]interface{}{
		"marketplace": payload.Marketplace,
		"products":    len(products),
		"synced":      synced,
		"skipped":     skipped,
		"errors":      len(errs),
		"task_id":     payload.TaskID,
	})

	return nil
}

// availableFor: tổng available trên mọi warehouse. Product chưa có
// dòng stock nào thì push 0 để marketplace không oversell.
func (h *SyncMarketplaceHandler) availableFor(ctx context.Context, productID string) (int, error) {
	resp, err := h.stocks.GetAvailable(ctx, productID, "")
	if err != nil {
		if model.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	if resp.Available < 0 {
		return 0, nil
	}
	return resp.Available, nil
}

func (h *SyncMarketplaceHandler) pushResult(ctx context.Context, taskID string, result shared.SyncTaskResult) {
	key := infraCache.SyncResultKey(taskID)
	if err := h.cache.RPush(ctx, key, result); err != nil {
		logger.Error("SyncMarketplace: failed to push result", err)
		return
	}
	if err := h.cache.Expire(ctx, key, shared.SyncResultTTL); err != nil {
		logger.Error("SyncMarketplace: failed to set result ttl", err)
	}
}
