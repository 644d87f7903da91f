package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/domains/inventory/service"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/logger"
)

// FlashSaleHandler xử lý reservation trong flash sale. Orders được
// enqueue vào queue critical, worker xử lý tuần tự dưới flash sale lock
// (TTL ngắn, retry dày) để hấp thụ burst mà không oversell.
type FlashSaleHandler struct {
	stocks service.ServiceInterface
	locks  service.LockFactory
}

func NewFlashSaleHandler(stocks service.ServiceInterface, locks service.LockFactory) *FlashSaleHandler {
	return &FlashSaleHandler{
		stocks: stocks,
		locks:  locks,
	}
}

// ProcessTask reserve hàng cho một flash sale order.
// Business errors (hết hàng, order trùng) là kết quả cuối cùng, không
// retry. Lỗi hạ tầng (lock, DB) trả về cho asynq retry.
func (h *FlashSaleHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.FlashSaleOrderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("FlashSale: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal FlashSale payload: %w", err)
	}
	if payload.ProductID == "" || payload.OrderID == "" {
		return fmt.Errorf("FlashSale: missing product_id or order_id in payload")
	}

	l := h.locks.FlashSaleLock(payload.ProductID)
	if err := l.Acquire(ctx); err != nil {
		logger.Error("FlashSale: lock not acquired", err)
		return err
	}
	defer l.Release(ctx)

	_, err := h.stocks.Reserve(ctx, payload.ProductID, model.ReserveStockRequest{
		WarehouseID: payload.WarehouseID,
		Quantity:    payload.Quantity,
		OrderID:     payload.OrderID,
	})
	if err != nil {
		if model.IsBusinessRuleError(err) {
			logger.Warn("FlashSale: reservation rejected", map[string]interface{}{
				"order_id":   payload.OrderID,
				"product_id": payload.ProductID,
				"quantity":   payload.Quantity,
				"reason":     err.Error(),
			})
			return nil
		}
		logger.Error("FlashSale: reservation failed", err)
		return err
	}

	logger.Info("FlashSale: order reserved", map[string]interface{}{
		"order_id":     payload.OrderID,
		"product_id":   payload.ProductID,
		"warehouse_id": payload.WarehouseID,
		"quantity":     payload.Quantity,
	})

	return nil
}
