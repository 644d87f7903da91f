package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	warehouseRepo "inventory-backend/internal/domains/warehouse/repository"
	"inventory-backend/internal/infrastructure/marketplace"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/logger"
)

// Enqueue options per task family. Warehouse sync đi queue high vì
// số liệu kho ảnh hưởng trực tiếp đến oversell, marketplace push chậm
// hơn một chút cũng không sao.
const (
	warehouseSyncTimeout   = 60 * time.Second
	marketplaceSyncTimeout = 120 * time.Second
	flashSaleTimeout       = 30 * time.Second
	batchUpdateTimeout     = 10 * time.Minute
	reconcileTimeout       = 10 * time.Minute
)

// Client wrap asynq.Client với các enqueue helpers của inventory core
type Client struct {
	client       *asynq.Client
	warehouses   warehouseRepo.Repository
	marketplaces *marketplace.Registry
}

func NewClient(redisAddr, redisPassword string, db int, warehouses warehouseRepo.Repository, marketplaces *marketplace.Registry) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       db,
		}),
		warehouses:   warehouses,
		marketplaces: marketplaces,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueWarehouseSync enqueue sync cho một warehouse. taskID rỗng là
// enqueue lẻ, không ghi kết quả vào fan-out list.
func (c *Client) EnqueueWarehouseSync(ctx context.Context, warehouseID, taskID string) error {
	payload, err := json.Marshal(shared.WarehouseSyncPayload{
		WarehouseID: warehouseID,
		TaskID:      taskID,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeSyncWarehouse, payload),
		asynq.Queue(shared.QueueHigh),
		asynq.MaxRetry(3),
		asynq.Timeout(warehouseSyncTimeout),
	)
	return err
}

// SyncAllWarehouses fan-out một sync run ra mọi warehouse active.
// Trả về task_id để client poll kết quả.
func (c *Client) SyncAllWarehouses(ctx context.Context) (string, int, error) {
	warehouses, err := c.warehouses.ListActive(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to list warehouses for sync: %w", err)
	}

	taskID := uuid.NewString()
	enqueued := 0
	for _, wh := range warehouses {
		if err := c.EnqueueWarehouseSync(ctx, wh.ID, taskID); err != nil {
			logger.Error("failed to enqueue warehouse sync", err)
			continue
		}
		enqueued++
	}

	logger.Info("warehouse sync fan-out enqueued", map[string]interface{}{
		"task_id":    taskID,
		"warehouses": enqueued,
	})
	return taskID, enqueued, nil
}

// EnqueueMarketplaceSync enqueue push availability lên một marketplace
func (c *Client) EnqueueMarketplaceSync(ctx context.Context, name, taskID string) error {
	payload, err := json.Marshal(shared.MarketplaceSyncPayload{
		Marketplace: name,
		TaskID:      taskID,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeSyncMarketplace, payload),
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(marketplaceSyncTimeout),
	)
	return err
}

// SyncAllMarketplaces fan-out push ra mọi marketplace đã đăng ký
func (c *Client) SyncAllMarketplaces(ctx context.Context) (string, int, error) {
	taskID := uuid.NewString()
	enqueued := 0
	for _, name := range c.marketplaces.Names() {
		if err := c.EnqueueMarketplaceSync(ctx, name, taskID); err != nil {
			logger.Error("failed to enqueue marketplace sync", err)
			continue
		}
		enqueued++
	}

	logger.Info("marketplace sync fan-out enqueued", map[string]interface{}{
		"task_id":      taskID,
		"marketplaces": enqueued,
	})
	return taskID, enqueued, nil
}

// EnqueueFlashSaleOrder đưa order vào queue critical. Retry nhanh và
// dày: trong flash sale, chậm một giây là khách bỏ đi.
func (c *Client) EnqueueFlashSaleOrder(ctx context.Context, p shared.FlashSaleOrderPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeFlashSaleOrder, payload),
		asynq.Queue(shared.QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(flashSaleTimeout),
	)
	return err
}

// EnqueueBatchUpdate đẩy bulk adjustment chạy nền, trả task_id ngay
func (c *Client) EnqueueBatchUpdate(ctx context.Context, items []shared.BatchUpdateItem) (string, error) {
	taskID := uuid.NewString()
	payload, err := json.Marshal(shared.BatchUpdatePayload{
		TaskID: taskID,
		Items:  items,
	})
	if err != nil {
		return "", err
	}

	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeBatchUpdate, payload),
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(batchUpdateTimeout),
	)
	if err != nil {
		return "", err
	}
	return taskID, nil
}

// EnqueueReconcile chạy reconcile theo yêu cầu, warehouseID rỗng là toàn hệ thống
func (c *Client) EnqueueReconcile(ctx context.Context, warehouseID string) (string, error) {
	taskID := uuid.NewString()
	payload, err := json.Marshal(shared.ReconcilePayload{
		WarehouseID: warehouseID,
		TaskID:      taskID,
	})
	if err != nil {
		return "", err
	}

	_, err = c.client.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeReconcile, payload),
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(reconcileTimeout),
	)
	if err != nil {
		return "", err
	}
	return taskID, nil
}
