package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/domains/inventory/service"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// BatchUpdateHandler chạy bulk adjustment ở background. API nhận request,
// enqueue rồi trả task_id ngay, client poll kết quả qua sync status.
type BatchUpdateHandler struct {
	stocks  service.ServiceInterface
	cache   cache.Cache
	metrics TaskRecorder
}

func NewBatchUpdateHandler(stocks service.ServiceInterface, cache cache.Cache, metrics TaskRecorder) *BatchUpdateHandler {
	return &BatchUpdateHandler{
		stocks:  stocks,
		cache:   cache,
		metrics: metrics,
	}
}

func (h *BatchUpdateHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload shared.BatchUpdatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("BatchUpdate: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal BatchUpdate payload: %w", err)
	}
	if payload.TaskID == "" {
		return fmt.Errorf("BatchUpdate: empty task_id in payload")
	}

	req := model.BatchUpdateRequest{
		Items: make([]model.BatchUpdateItemRequest, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		req.Items = append(req.Items, model.BatchUpdateItemRequest{
			ProductID:   item.ProductID,
			WarehouseID: item.WarehouseID,
			Delta:       item.Delta,
			ReferenceID: item.ReferenceID,
			Notes:       item.Notes,
		})
	}

	resp, err := h.stocks.BatchUpdate(ctx, req)
	if err != nil {
		logger.Error("BatchUpdate: failed", err)
		h.metrics.SyncTask(shared.TypeBatchUpdate, shared.StatusFailure, time.Since(start))
		return err
	}

	var errs []string
	for _, failed := range resp.Failed {
		errs = append(errs, fmt.Sprintf("product=%s warehouse=%s: %s",
			failed.ProductID, failed.WarehouseID, failed.Error))
	}

	// Run áp hết items là success, item fail nằm trong Errors
	status := shared.StatusSuccess
	h.metrics.SyncTask(shared.TypeBatchUpdate, status, time.Since(start))

	key := infraCache.SyncResultKey(payload.TaskID)
	entry := shared.SyncTaskResult{
		TaskType:    shared.TypeBatchUpdate,
		Target:      fmt.Sprintf("%d items", len(payload.Items)),
		Status:      status,
		SyncedCount: len(resp.Succeeded),
		Errors:      errs,
		Duration:    time.Since(start),
		FinishedAt:  time.Now().UTC(),
	}
	if err := h.cache.RPush(ctx, key, entry); err != nil {
		logger.Error("BatchUpdate: failed to push result", err)
	} else if err := h.cache.Expire(ctx, key, shared.SyncResultTTL); err != nil {
		logger.Error("BatchUpdate: failed to set result ttl", err)
	}

	logger.Info("BatchUpdate: finished", map[string]interface{}{
		"task_id":   payload.TaskID,
		"items":     len(payload.Items),
		"succeeded": len(resp.Succeeded),
		"failed":    len(resp.Failed),
	})

	return nil
}
