package job

import (
	"context"

	"github.com/hibiken/asynq"

	"inventory-backend/pkg/logger"
)

// FanOutEnqueuer mint child tasks cho một sync run. queue.Client thoả
// interface này, tests inject fake.
type FanOutEnqueuer interface {
	SyncAllWarehouses(ctx context.Context) (taskID string, enqueued int, err error)
	SyncAllMarketplaces(ctx context.Context) (taskID string, enqueued int, err error)
}

// SyncAllWarehousesHandler nhận trigger định kỳ và fan-out per warehouse
type SyncAllWarehousesHandler struct {
	enqueuer FanOutEnqueuer
}

func NewSyncAllWarehousesHandler(enqueuer FanOutEnqueuer) *SyncAllWarehousesHandler {
	return &SyncAllWarehousesHandler{enqueuer: enqueuer}
}

func (h *SyncAllWarehousesHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	taskID, enqueued, err := h.enqueuer.SyncAllWarehouses(ctx)
	if err != nil {
		logger.Error("SyncAllWarehouses: fan-out failed", err)
		return err
	}

	logger.Info("SyncAllWarehouses: fan-out dispatched", map[string]interface{}{
		"task_id":  taskID,
		"children": enqueued,
	})
	return nil
}

// SyncAllMarketplacesHandler nhận trigger định kỳ và fan-out per marketplace
type SyncAllMarketplacesHandler struct {
	enqueuer FanOutEnqueuer
}

func NewSyncAllMarketplacesHandler(enqueuer FanOutEnqueuer) *SyncAllMarketplacesHandler {
	return &SyncAllMarketplacesHandler{enqueuer: enqueuer}
}

func (h *SyncAllMarketplacesHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	taskID, enqueued, err := h.enqueuer.SyncAllMarketplaces(ctx)
	if err != nil {
		logger.Error("SyncAllMarketplaces: fan-out failed", err)
		return err
	}

	logger.Info("SyncAllMarketplaces: fan-out dispatched", map[string]interface{}{
		"task_id":  taskID,
		"children": enqueued,
	})
	return nil
}
