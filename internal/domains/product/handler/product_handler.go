package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inventory-backend/internal/domains/product/model"
	"inventory-backend/internal/domains/product/service"
	"inventory-backend/internal/shared/response"
	"inventory-backend/pkg/logger"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListProducts - GET /api/v1/products
// Query params: search, category, active, page, limit
func (h *Handler) ListProducts(c *gin.Context) {
	filter := model.ListProductsRequest{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     1,
		Limit:    20,
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
			filter.Active = &active
		}
	}

	products, total, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		logger.Error("failed to list products", err)
		response.InternalServerError(c, "Failed to list products")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, products, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetProduct - GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if h.handleError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, "Product retrieved", product)
}

// CreateProduct - POST /api/v1/products (admin)
func (h *Handler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req)
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct - PUT /api/v1/products/:id (admin)
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if h.handleError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, "Product updated", product)
}

// DeleteProduct - DELETE /api/v1/products/:id (admin)
func (h *Handler) DeleteProduct(c *gin.Context) {
	err := h.service.DeleteProduct(c.Request.Context(), c.Param("id"))
	if h.handleError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, "Product deleted", nil)
}

// handleError map lỗi nghiệp vụ sang HTTP status, trả true nếu đã respond
func (h *Handler) handleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs):
		response.ErrorJSON(c, http.StatusBadRequest, "Validation failed", validationErrs)
	case errors.Is(err, model.ErrProductNotFound):
		response.NotFound(c, "Product not found")
	case errors.Is(err, model.ErrSKUAlreadyExists):
		response.Conflict(c, "A product with this SKU already exists")
	case errors.Is(err, model.ErrInvalidPrice):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("product handler error", err)
		response.InternalServerError(c, "Internal server error")
	}
	return true
}
