package warehouse

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"inventory-backend/internal/config"
)

// RemoteStock là số đếm thực tế của một SKU theo warehouse management system
type RemoteStock struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// StockSource pull số tồn thực tế từ hệ thống quản lý kho.
// Sync job so số này với DB và áp chênh lệch qua reservation engine.
type StockSource interface {
	FetchStocks(ctx context.Context, warehouseCode string) ([]RemoteStock, error)
}

type httpStockSource struct {
	client *resty.Client
}

// NewHTTPStockSource tạo client tới warehouse API
func NewHTTPStockSource(cfg config.WarehouseAPIConfig) StockSource {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2)

	return &httpStockSource{client: client}
}

type stocksResponse struct {
	Stocks []RemoteStock `json:"stocks"`
}

func (s *httpStockSource) FetchStocks(ctx context.Context, warehouseCode string) ([]RemoteStock, error) {
	var result stocksResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/warehouses/" + warehouseCode + "/stocks")
	if err != nil {
		return nil, fmt.Errorf("fetch stocks for %s: %w", warehouseCode, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("warehouse api returned %d for %s", resp.StatusCode(), warehouseCode)
	}

	return result.Stocks, nil
}
