package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/domains/inventory/service"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/shared"
	"inventory-backend/internal/shared/response"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// Enqueuer là phần queue client mà handler cần. queue.Client thoả.
type Enqueuer interface {
	EnqueueWarehouseSync(ctx context.Context, warehouseID, taskID string) error
	SyncAllWarehouses(ctx context.Context) (string, int, error)
	SyncAllMarketplaces(ctx context.Context) (string, int, error)
	EnqueueFlashSaleOrder(ctx context.Context, p shared.FlashSaleOrderPayload) error
	EnqueueBatchUpdate(ctx context.Context, items []shared.BatchUpdateItem) (string, error)
	EnqueueReconcile(ctx context.Context, warehouseID string) (string, error)
}

type Handler struct {
	service  service.ServiceInterface
	enqueuer Enqueuer
	cache    cache.Cache
}

func NewHandler(service service.ServiceInterface, enqueuer Enqueuer, cache cache.Cache) *Handler {
	return &Handler{
		service:  service,
		enqueuer: enqueuer,
		cache:    cache,
	}
}

// ===================================
// RESERVATION
// ===================================

// Reserve handles POST /api/v1/products/:id/reserve
func (h *Handler) Reserve(c *gin.Context) {
	var req model.ReserveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err, "Failed to reserve stock")
		return
	}

	response.Success(c, http.StatusOK, "Stock reserved successfully", result)
}

// Release handles POST /api/v1/products/:id/release
func (h *Handler) Release(c *gin.Context) {
	var req model.ReleaseStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	result, err := h.service.Release(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err, "Failed to release stock")
		return
	}

	response.Success(c, http.StatusOK, "Stock released successfully", result)
}

// GetAvailability handles GET /api/v1/products/:id/availability?warehouse_id=xxx
// warehouse_id rỗng trả tổng trên mọi warehouse kèm breakdown
func (h *Handler) GetAvailability(c *gin.Context) {
	result, err := h.service.GetAvailable(c.Request.Context(), c.Param("id"), c.Query("warehouse_id"))
	if err != nil {
		h.handleError(c, err, "Failed to get availability")
		return
	}

	response.Success(c, http.StatusOK, "Availability retrieved successfully", result)
}

// FlashSaleOrder handles POST /api/v1/products/:id/flash-sale
// Order intake cho flash sale không reserve inline: đẩy vào queue
// critical để worker xử lý tuần tự dưới flash-sale lock, trả 202 ngay.
func (h *Handler) FlashSaleOrder(c *gin.Context) {
	var req model.FlashSaleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	payload := shared.FlashSaleOrderPayload{
		ProductID:   c.Param("id"),
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		OrderID:     req.OrderID,
	}
	if err := h.enqueuer.EnqueueFlashSaleOrder(c.Request.Context(), payload); err != nil {
		logger.Error("failed to enqueue flash sale order", err)
		response.InternalServerError(c, "Failed to enqueue flash sale order")
		return
	}

	response.Success(c, http.StatusAccepted, "Flash sale order accepted", gin.H{
		"order_id": req.OrderID,
	})
}

// ===================================
// WAREHOUSE VIEWS
// ===================================

// GetWarehouseInventory handles GET /api/v1/warehouses/:id/inventory
func (h *Handler) GetWarehouseInventory(c *gin.Context) {
	stocks, err := h.service.GetWarehouseInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Failed to get warehouse inventory")
		return
	}

	response.Success(c, http.StatusOK, "Warehouse inventory retrieved successfully", stocks)
}

// GetWarehouseLowStock handles GET /api/v1/warehouses/:id/low-stock?threshold=10
func (h *Handler) GetWarehouseLowStock(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "10"))

	alerts, err := h.service.GetLowStockAlerts(c.Request.Context(), threshold)
	if err != nil {
		h.handleError(c, err, "Failed to get low stock alerts")
		return
	}

	warehouseID := c.Param("id")
	filtered := make([]model.LowStockAlert, 0, len(alerts))
	for _, alert := range alerts {
		if alert.WarehouseID == warehouseID {
			filtered = append(filtered, alert)
		}
	}

	response.Success(c, http.StatusOK, "Low stock alerts retrieved successfully", filtered)
}

// SyncWarehouse handles POST /api/v1/warehouses/:id/sync
// Enqueue sync cho một warehouse, trả 202 với task_id để poll
func (h *Handler) SyncWarehouse(c *gin.Context) {
	taskID := uuid.NewString()
	if err := h.enqueuer.EnqueueWarehouseSync(c.Request.Context(), c.Param("id"), taskID); err != nil {
		logger.Error("failed to enqueue warehouse sync", err)
		response.InternalServerError(c, "Failed to enqueue warehouse sync")
		return
	}

	response.Success(c, http.StatusAccepted, "Warehouse sync enqueued", gin.H{
		"task_id": taskID,
	})
}

// ===================================
// STOCK OPERATIONS
// ===================================

// Adjust handles POST /api/v1/stocks/adjust
func (h *Handler) Adjust(c *gin.Context) {
	var req model.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	result, err := h.service.Adjust(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "Failed to adjust stock")
		return
	}

	response.Success(c, http.StatusOK, "Stock adjusted successfully", result)
}

// BatchUpdate handles POST /api/v1/stocks/batch-update
// Batch lớn chạy nền qua queue, trả 202 với task_id
func (h *Handler) BatchUpdate(c *gin.Context) {
	var req model.BatchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	items := make([]shared.BatchUpdateItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, shared.BatchUpdateItem{
			ProductID:   item.ProductID,
			WarehouseID: item.WarehouseID,
			Delta:       item.Delta,
			ReferenceID: item.ReferenceID,
			Notes:       item.Notes,
		})
	}

	taskID, err := h.enqueuer.EnqueueBatchUpdate(c.Request.Context(), items)
	if err != nil {
		logger.Error("failed to enqueue batch update", err)
		response.InternalServerError(c, "Failed to enqueue batch update")
		return
	}

	response.Success(c, http.StatusAccepted, "Batch update enqueued", gin.H{
		"task_id": taskID,
		"items":   len(items),
	})
}

// Reconcile handles POST /api/v1/stocks/reconcile?warehouse_id=xxx
func (h *Handler) Reconcile(c *gin.Context) {
	taskID, err := h.enqueuer.EnqueueReconcile(c.Request.Context(), c.Query("warehouse_id"))
	if err != nil {
		logger.Error("failed to enqueue reconcile", err)
		response.InternalServerError(c, "Failed to enqueue reconciliation")
		return
	}

	response.Success(c, http.StatusAccepted, "Reconciliation enqueued", gin.H{
		"task_id": taskID,
	})
}

// ListTransactions handles GET /api/v1/transactions với filters
func (h *Handler) ListTransactions(c *gin.Context) {
	filter := model.ListTransactionsRequest{}

	if v := c.Query("product_id"); v != "" {
		filter.ProductID = &v
	}
	if v := c.Query("warehouse_id"); v != "" {
		filter.WarehouseID = &v
	}
	if v := c.Query("type"); v != "" {
		filter.TransactionType = &v
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "Invalid from timestamp, expected RFC3339")
			return
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "Invalid to timestamp, expected RFC3339")
			return
		}
		filter.To = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err, "Failed to list transactions")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.TotalItems,
	})
}

// ===================================
// SYNC ORCHESTRATION
// ===================================

// SyncAllWarehouses handles POST /api/v1/sync/warehouses
func (h *Handler) SyncAllWarehouses(c *gin.Context) {
	taskID, enqueued, err := h.enqueuer.SyncAllWarehouses(c.Request.Context())
	if err != nil {
		logger.Error("failed to fan out warehouse sync", err)
		response.InternalServerError(c, "Failed to start warehouse sync")
		return
	}

	response.Success(c, http.StatusAccepted, "Warehouse sync started", gin.H{
		"task_id":    taskID,
		"warehouses": enqueued,
	})
}

// SyncAllMarketplaces handles POST /api/v1/sync/marketplaces
func (h *Handler) SyncAllMarketplaces(c *gin.Context) {
	taskID, enqueued, err := h.enqueuer.SyncAllMarketplaces(c.Request.Context())
	if err != nil {
		logger.Error("failed to fan out marketplace sync", err)
		response.InternalServerError(c, "Failed to start marketplace sync")
		return
	}

	response.Success(c, http.StatusAccepted, "Marketplace sync started", gin.H{
		"task_id":      taskID,
		"marketplaces": enqueued,
	})
}

// GetSyncStatus handles GET /api/v1/sync/status?task_id=xxx
// Đọc redis list kết quả của fan-out run. List đã expire hoặc chưa có
// kết quả nào thì trả danh sách rỗng, client tự poll tiếp.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	taskID := c.Query("task_id")
	if taskID == "" {
		response.BadRequest(c, "task_id is required")
		return
	}

	entries, err := h.cache.LRange(c.Request.Context(), infraCache.SyncResultKey(taskID))
	if err != nil {
		logger.Error("failed to read sync results", err)
		response.InternalServerError(c, "Failed to read sync status")
		return
	}

	results := make([]shared.SyncTaskResult, 0, len(entries))
	for _, entry := range entries {
		var result shared.SyncTaskResult
		if err := json.Unmarshal([]byte(entry), &result); err != nil {
			logger.Error("corrupt sync result entry", err)
			continue
		}
		results = append(results, result)
	}

	response.Success(c, http.StatusOK, "Sync status retrieved successfully", gin.H{
		"task_id":   taskID,
		"completed": len(results),
		"results":   results,
	})
}

// ===================================
// REPORTS
// ===================================

// StockReport handles GET /api/v1/reports/stock?warehouse_id=xxx
func (h *Handler) StockReport(c *gin.Context) {
	report, err := h.service.StockReport(c.Request.Context(), c.Query("warehouse_id"))
	if err != nil {
		h.handleError(c, err, "Failed to generate stock report")
		return
	}

	response.Success(c, http.StatusOK, "Stock report generated successfully", report)
}

// ===================================
// ERROR MAPPING
// ===================================

// handleError map domain errors sang HTTP status.
// Thứ tự check quan trọng: not found trước business rule.
func (h *Handler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case isValidationError(err):
		response.ErrorJSON(c, http.StatusBadRequest, "Validation failed", err.Error())
	case model.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case model.IsOptimisticLockError(err):
		response.Conflict(c, "Stock was modified concurrently, retry the request")
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrOverRelease):
		response.Conflict(c, err.Error())
	case model.IsBusinessRuleError(err):
		response.ErrorJSON(c, http.StatusBadRequest, "Business rule violation", err.Error())
	case model.IsLockError(err):
		response.ServiceUnavailable(c, "Inventory is busy, retry shortly")
	default:
		logger.Error(fallback, err)
		response.InternalServerError(c, fallback)
	}
}

func isValidationError(err error) bool {
	var errs validation.Errors
	return errors.As(err, &errs)
}
