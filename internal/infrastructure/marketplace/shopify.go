package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"inventory-backend/internal/config"
)

// shopifyAdapter nói chuyện với Shopify Admin API của một shop
type shopifyAdapter struct {
	client   *resty.Client
	shopName string
}

func NewShopifyAdapter(cfg config.ShopifyConfig) Adapter {
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetHeader("X-Shopify-Access-Token", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &shopifyAdapter{
		client:   client,
		shopName: cfg.ShopName,
	}
}

func (s *shopifyAdapter) Name() string { return Shopify }

type shopifyInventoryLevel struct {
	SKU       string `json:"sku"`
	Available int    `json:"available"`
}

func (s *shopifyAdapter) UpdateStock(ctx context.Context, sku string, quantity int) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(shopifyInventoryLevel{SKU: sku, Available: quantity}).
		Post("/admin/api/2024-01/inventory_levels/set.json")
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return ErrSKUNotListed
	default:
		return &apiError{marketplace: Shopify, operation: "update_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

type shopifyLevelResponse struct {
	InventoryLevel shopifyInventoryLevel `json:"inventory_level"`
}

func (s *shopifyAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	var result shopifyLevelResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("sku", sku).
		Get("/admin/api/2024-01/inventory_levels.json")
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result.InventoryLevel.Available, nil
	case http.StatusNotFound:
		return 0, ErrSKUNotListed
	default:
		return 0, &apiError{marketplace: Shopify, operation: "get_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

type shopifyOrdersResponse struct {
	Orders []Order `json:"orders"`
}

func (s *shopifyAdapter) ListOrders(ctx context.Context, from, to time.Time) ([]Order, error) {
	var result shopifyOrdersResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParams(map[string]string{
			"created_at_min": from.UTC().Format(time.RFC3339),
			"created_at_max": to.UTC().Format(time.RFC3339),
			"status":         "any",
		}).
		Get("/admin/api/2024-01/orders.json")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &apiError{marketplace: Shopify, operation: "list_orders", status: resp.StatusCode(), body: string(resp.Body())}
	}

	return result.Orders, nil
}
