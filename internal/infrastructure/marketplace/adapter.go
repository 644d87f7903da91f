package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Marketplace names, dùng làm metric label và task payload value
const (
	Amazon  = "amazon"
	Ebay    = "ebay"
	Shopify = "shopify"
)

var (
	// ErrUnknownMarketplace khi task payload chứa tên không có adapter
	ErrUnknownMarketplace = errors.New("unknown marketplace")

	// ErrSKUNotListed khi SKU chưa được list trên marketplace
	ErrSKUNotListed = errors.New("sku not listed on marketplace")
)

// Order là đơn hàng pull về từ marketplace
type Order struct {
	OrderID   string    `json:"order_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Adapter là capability surface chung cho mọi marketplace.
// Implementations không được giữ distributed lock khi gọi ra ngoài.
type Adapter interface {
	Name() string

	// UpdateStock push available quantity của một SKU lên marketplace
	UpdateStock(ctx context.Context, sku string, quantity int) error

	// GetStock đọc quantity đang list trên marketplace
	GetStock(ctx context.Context, sku string) (int, error)

	// ListOrders pull đơn trong khoảng thời gian
	ListOrders(ctx context.Context, from, to time.Time) ([]Order, error)
}

// apiError chuẩn hoá lỗi HTTP từ marketplace để caller log được status
type apiError struct {
	marketplace string
	operation   string
	status      int
	body        string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s %s failed: status=%d body=%s", e.marketplace, e.operation, e.status, e.body)
}
