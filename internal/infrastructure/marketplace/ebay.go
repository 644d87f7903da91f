package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"inventory-backend/internal/config"
)

// ebayAdapter nói chuyện với eBay Sell Inventory API
type ebayAdapter struct {
	client *resty.Client
}

func NewEbayAdapter(cfg config.EbayConfig) Adapter {
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetHeader("Authorization", "Bearer "+cfg.UserToken).
		SetHeader("X-EBAY-API-APP-ID", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &ebayAdapter{client: client}
}

func (e *ebayAdapter) Name() string { return Ebay }

type ebayInventoryItem struct {
	Availability struct {
		ShipToLocationAvailability struct {
			Quantity int `json:"quantity"`
		} `json:"shipToLocationAvailability"`
	} `json:"availability"`
}

func (e *ebayAdapter) UpdateStock(ctx context.Context, sku string, quantity int) error {
	var item ebayInventoryItem
	item.Availability.ShipToLocationAvailability.Quantity = quantity

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(item).
		Put("/sell/inventory/v1/inventory_item/" + sku)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrSKUNotListed
	default:
		return &apiError{marketplace: Ebay, operation: "update_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

func (e *ebayAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	var item ebayInventoryItem
	resp, err := e.client.R().
		SetContext(ctx).
		SetResult(&item).
		Get("/sell/inventory/v1/inventory_item/" + sku)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return item.Availability.ShipToLocationAvailability.Quantity, nil
	case http.StatusNotFound:
		return 0, ErrSKUNotListed
	default:
		return 0, &apiError{marketplace: Ebay, operation: "get_stock", status: resp.StatusCode(), body: string(resp.Body())}
	}
}

type ebayOrdersResponse struct {
	Orders []Order `json:"orders"`
}

func (e *ebayAdapter) ListOrders(ctx context.Context, from, to time.Time) ([]Order, error) {
	var result ebayOrdersResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("filter", "creationdate:["+from.UTC().Format(time.RFC3339)+".."+to.UTC().Format(time.RFC3339)+"]").
		Get("/sell/fulfillment/v1/order")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &apiError{marketplace: Ebay, operation: "list_orders", status: resp.StatusCode(), body: string(resp.Body())}
	}

	return result.Orders, nil
}
