package lock

import (
	"fmt"
	"time"

	"inventory-backend/internal/config"
)

// Lock namespaces. Mọi mutation path phải dùng đúng namespace của nó,
// hai caller khoá cùng resource phải sinh ra cùng key.
const (
	NamespaceProduct          = "product"
	NamespaceProductWarehouse = "product_warehouse"
	NamespaceWarehouse        = "warehouse"
	NamespaceOrder            = "order"
	NamespaceFlashSale        = "flashsale"
)

// Flash sale locks: lease ngắn, retry dày vì contention cao
const (
	flashSaleTTL        = 5 * time.Second
	flashSaleRetryTimes = 10
	flashSaleRetryDelay = 50 * time.Millisecond
)

// Manager mint locks cho các inventory resources với settings từ config
type Manager struct {
	clients    []Client
	ttl        time.Duration
	retryTimes int
	retryDelay time.Duration
	recorder   Recorder
}

// NewManager kết nối tới từng server trong Redlock cluster
func NewManager(cfg config.LockConfig, password string, rec Recorder) *Manager {
	clients := make([]Client, 0, len(cfg.Servers))
	for _, srv := range cfg.Servers {
		clients = append(clients, NewClient(srv.Addr, password, srv.DB))
	}
	return NewManagerWithClients(clients, cfg.TTL, cfg.RetryTimes, cfg.RetryDelay, rec)
}

// NewManagerWithClients nhận clients trực tiếp (tests inject fakes qua đây)
func NewManagerWithClients(clients []Client, ttl time.Duration, retryTimes int, retryDelay time.Duration, rec Recorder) *Manager {
	return &Manager{
		clients:    clients,
		ttl:        ttl,
		retryTimes: retryTimes,
		retryDelay: retryDelay,
		recorder:   rec,
	}
}

// ProductLock khoá toàn bộ stock của một product trên mọi warehouse
func (m *Manager) ProductLock(productID string) *Lock {
	resource := fmt.Sprintf("inventory:product:%s", productID)
	return newLock(resource, NamespaceProduct, m.clients, m.ttl, m.retryTimes, m.retryDelay, m.recorder)
}

// ProductWarehouseLock khoá một dòng (product, warehouse) cụ thể
func (m *Manager) ProductWarehouseLock(productID, warehouseID string) *Lock {
	resource := fmt.Sprintf("inventory:product:%s:warehouse:%s", productID, warehouseID)
	return newLock(resource, NamespaceProductWarehouse, m.clients, m.ttl, m.retryTimes, m.retryDelay, m.recorder)
}

// WarehouseLock khoá cả warehouse, dùng cho sync job
func (m *Manager) WarehouseLock(warehouseID string) *Lock {
	resource := fmt.Sprintf("inventory:warehouse:%s", warehouseID)
	return newLock(resource, NamespaceWarehouse, m.clients, m.ttl, m.retryTimes, m.retryDelay, m.recorder)
}

// OrderLock khoá theo order id
func (m *Manager) OrderLock(orderID string) *Lock {
	resource := fmt.Sprintf("inventory:order:%s", orderID)
	return newLock(resource, NamespaceOrder, m.clients, m.ttl, m.retryTimes, m.retryDelay, m.recorder)
}

// FlashSaleLock dùng settings riêng: TTL 5s, 10 retries cách 50ms
func (m *Manager) FlashSaleLock(productID string) *Lock {
	resource := fmt.Sprintf("inventory:flashsale:%s", productID)
	return newLock(resource, NamespaceFlashSale, m.clients, flashSaleTTL, flashSaleRetryTimes, flashSaleRetryDelay, m.recorder)
}
