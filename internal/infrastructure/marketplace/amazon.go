package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"inventory-backend/internal/config"
)

// amazonAdapter nói chuyện với Amazon Selling Partner inventory feed API
type amazonAdapter struct {
	client   *resty.Client
	sellerID string
}

func NewAmazonAdapter(cfg config.AmazonConfig) Adapter {
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetHeader("x-amz-access-token", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &amazonAdapter{
		client:   client,
		sellerID: cfg.SellerID,
	}
}

func (a *amazonAdapter) Name() string { return Amazon }

type amazonStockUpdate struct {
	SellerID string `json:"seller_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (a *amazonAdapter) UpdateStock(ctx context.Context, sku string, quantity int) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(amazonStockUpdate{SellerID: a.sellerID, SKU: sku, Quantity: quantity}).
		Put("/feeds/2021-06-30/inventory")
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ErrSKUNotListed
	default:
		return &apiError{marketplace: Amazon, operation: "update_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

type amazonStockResponse struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (a *amazonAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	var result amazonStockResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("seller_id", a.sellerID).
		Get("/fba/inventory/v1/summaries/" + sku)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result.Quantity, nil
	case http.StatusNotFound:
		return 0, ErrSKUNotListed
	default:
		return 0, &apiError{marketplace: Amazon, operation: "get_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

type amazonOrdersResponse struct {
	Orders []Order `json:"orders"`
}

func (a *amazonAdapter) ListOrders(ctx context.Context, from, to time.Time) ([]Order, error) {
	var result amazonOrdersResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParams(map[string]string{
			"seller_id":     a.sellerID,
			"created_after": from.UTC().Format(time.RFC3339),
			"created_until": to.UTC().Format(time.RFC3339),
		}).
		Get("/orders/v0/orders")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &apiError{marketplace: Amazon, operation: "list_orders", status: resp.StatusCode(), body: string(resp.Body())}
	}

	return result.Orders, nil
}
