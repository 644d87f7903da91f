package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"inventory-backend/internal/domains/inventory/service"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// ===================================
// REFRESH VIEWS
// ===================================

// RefreshViewsHandler refresh các materialized views phục vụ dashboard
type RefreshViewsHandler struct {
	stocks service.ServiceInterface
}

func NewRefreshViewsHandler(stocks service.ServiceInterface) *RefreshViewsHandler {
	return &RefreshViewsHandler{stocks: stocks}
}

func (h *RefreshViewsHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()

	if err := h.stocks.RefreshViews(ctx); err != nil {
		logger.Error("RefreshViews: failed", err)
		return err
	}

	logger.Info("RefreshViews: finished", map[string]interface{}{
		"duration": time.Since(start).String(),
	})
	return nil
}

// ===================================
// RECONCILE
// ===================================

// ReconcileHandler chạy một lượt reconcile, toàn hệ thống hoặc một kho
type ReconcileHandler struct {
	stocks  service.ServiceInterface
	cache   cache.Cache
	metrics TaskRecorder
}

func NewReconcileHandler(stocks service.ServiceInterface, cache cache.Cache, metrics TaskRecorder) *ReconcileHandler {
	return &ReconcileHandler{
		stocks:  stocks,
		cache:   cache,
		metrics: metrics,
	}
}

func (h *ReconcileHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload shared.ReconcilePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Reconcile: failed to unmarshal payload", err)
			return fmt.Errorf("unmarshal Reconcile payload: %w", err)
		}
	}

	result, err := h.stocks.Reconcile(ctx, payload.WarehouseID)
	if err != nil {
		logger.Error("Reconcile: failed", err)
		h.metrics.SyncTask(shared.TypeReconcile, shared.StatusFailure, time.Since(start))
		return err
	}

	// Lượt quét chạy hết là success, row sửa không được nằm trong Errors
	status := shared.StatusSuccess
	h.metrics.SyncTask(shared.TypeReconcile, status, time.Since(start))

	if payload.TaskID != "" {
		target := payload.WarehouseID
		if target == "" {
			target = "all"
		}
		key := infraCache.SyncResultKey(payload.TaskID)
		entry := shared.SyncTaskResult{
			TaskType:    shared.TypeReconcile,
			Target:      target,
			Status:      status,
			SyncedCount: result.CorrectionsMade,
			Errors:      result.Errors,
			Duration:    time.Since(start),
			FinishedAt:  time.Now().UTC(),
		}
		if err := h.cache.RPush(ctx, key, entry); err != nil {
			logger.Error("Reconcile: failed to push result", err)
		} else if err := h.cache.Expire(ctx, key, shared.SyncResultTTL); err != nil {
			logger.Error("Reconcile: failed to set result ttl", err)
		}
	}

	return nil
}

// ===================================
// TRANSACTION RETENTION
// ===================================

// CleanupTransactionsHandler xoá transaction log cũ hơn retention window
type CleanupTransactionsHandler struct {
	stocks           service.ServiceInterface
	defaultRetention int
}

func NewCleanupTransactionsHandler(stocks service.ServiceInterface, defaultRetention int) *CleanupTransactionsHandler {
	return &CleanupTransactionsHandler{
		stocks:           stocks,
		defaultRetention: defaultRetention,
	}
}

func (h *CleanupTransactionsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CleanupTransactionsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("CleanupTransactions: failed to unmarshal payload", err)
			return fmt.Errorf("unmarshal CleanupTransactions payload: %w", err)
		}
	}

	days := payload.RetentionDays
	if days <= 0 {
		days = h.defaultRetention
	}

	deleted, err := h.stocks.CleanupTransactions(ctx, days)
	if err != nil {
		logger.Error("CleanupTransactions: failed", err)
		return err
	}

	logger.Info("CleanupTransactions: finished", map[string]interface{}{
		"retention_days": days,
		"deleted":        deleted,
	})
	return nil
}

// ===================================
// LOW STOCK ALERT
// ===================================

// StockAlertHandler quét low stock view và log alert theo level.
// Alert là log-based: ops cào log hoặc xem dashboard, không gửi mail.
type StockAlertHandler struct {
	stocks           service.ServiceInterface
	defaultThreshold int
}

func NewStockAlertHandler(stocks service.ServiceInterface, defaultThreshold int) *StockAlertHandler {
	return &StockAlertHandler{
		stocks:           stocks,
		defaultThreshold: defaultThreshold,
	}
}

func (h *StockAlertHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.StockAlertPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("StockAlert: failed to unmarshal payload", err)
			return fmt.Errorf("unmarshal StockAlert payload: %w", err)
		}
	}

	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = h.defaultThreshold
	}

	alerts, err := h.stocks.GetLowStockAlerts(ctx, threshold)
	if err != nil {
		logger.Error("StockAlert: failed to load alerts", err)
		return err
	}

	for _, alert := range alerts {
		logger.Warn("StockAlert: low stock", map[string]interface{}{
			"sku":       alert.SKU,
			"product":   alert.ProductName,
			"warehouse": alert.WarehouseCode,
			"available": alert.Available,
			"level":     alert.AlertLevel,
		})
	}

	logger.Info("StockAlert: finished", map[string]interface{}{
		"threshold": threshold,
		"alerts":    len(alerts),
	})
	return nil
}
