package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inventory-backend/internal/domains/warehouse/model"
	"inventory-backend/internal/domains/warehouse/service"
	"inventory-backend/internal/shared/response"
	"inventory-backend/pkg/logger"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// ==================== ADMIN CRUD ====================

// CreateWarehouse tạo kho mới (admin only)
// POST /api/v1/warehouses
func (h *Handler) CreateWarehouse(c *gin.Context) {
	var req model.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	warehouse, err := h.svc.CreateWarehouse(c.Request.Context(), req)
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, "Warehouse created successfully", warehouse)
}

// UpdateWarehouse cập nhật thông tin kho
// PUT /api/v1/warehouses/:id
func (h *Handler) UpdateWarehouse(c *gin.Context) {
	var req model.UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	warehouse, err := h.svc.UpdateWarehouse(c.Request.Context(), c.Param("id"), req)
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, "Warehouse updated successfully", warehouse)
}

// DeleteWarehouse xóa kho (từ chối nếu còn tồn)
// DELETE /api/v1/warehouses/:id
func (h *Handler) DeleteWarehouse(c *gin.Context) {
	err := h.svc.DeleteWarehouse(c.Request.Context(), c.Param("id"))
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, "Warehouse deleted successfully", nil)
}

// GetWarehouse lấy chi tiết kho theo ID
// GET /api/v1/warehouses/:id
func (h *Handler) GetWarehouse(c *gin.Context) {
	warehouse, err := h.svc.GetWarehouse(c.Request.Context(), c.Param("id"))
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, "Warehouse retrieved successfully", warehouse)
}

// ListWarehouses list kho với filter và paging
// GET /api/v1/warehouses?keyword=&active=&page=&limit=
func (h *Handler) ListWarehouses(c *gin.Context) {
	filter := model.ListWarehouseFilter{
		Keyword: c.Query("keyword"),
		Page:    1,
		Limit:   20,
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.IsActive = &active
		}
	}

	warehouses, total, err := h.svc.ListWarehouses(c.Request.Context(), filter)
	if err != nil {
		logger.Error("failed to list warehouses", err)
		response.InternalServerError(c, "Failed to list warehouses")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, warehouses, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs):
		response.ErrorJSON(c, http.StatusBadRequest, "Validation failed", validationErrs)
	case errors.Is(err, model.ErrWarehouseNotFound):
		response.NotFound(c, "Warehouse not found")
	case errors.Is(err, model.ErrCodeAlreadyExists):
		response.Conflict(c, "A warehouse with this code already exists")
	case errors.Is(err, model.ErrWarehouseHasStock):
		response.Conflict(c, "Warehouse still holds stock and cannot be deleted")
	default:
		logger.Error("warehouse handler error", err)
		response.InternalServerError(c, "Internal server error")
	}
	return true
}
