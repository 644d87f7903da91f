package cache

import (
	"fmt"
)

// Cache key scheme cho stock reads.
// Per-warehouse: stock:{product_id}:{warehouse_id}
// Aggregate:     stock:{product_id}:all

const aggregateSuffix = "all"

// StockKey trả về key cho availability của product tại một warehouse
func StockKey(productID, warehouseID string) string {
	return fmt.Sprintf("stock:%s:%s", productID, warehouseID)
}

// StockAggregateKey trả về key cho tổng availability của product trên mọi warehouse
func StockAggregateKey(productID string) string {
	return fmt.Sprintf("stock:%s:%s", productID, aggregateSuffix)
}

// StockInvalidationKeys liệt kê các keys phải xoá sau một mutation.
// Key cụ thể trước, key tổng sau. Mọi write path đều phải xoá cả hai.
func StockInvalidationKeys(productID, warehouseID string) []string {
	return []string{
		StockKey(productID, warehouseID),
		StockAggregateKey(productID),
	}
}

// SyncResultKey là redis list chứa kết quả per-task của một fan-out sync run
func SyncResultKey(taskID string) string {
	return fmt.Sprintf("sync:result:%s", taskID)
}

// MarketplaceStockKey cache kết quả GetStock từ marketplace (TTL 5 phút)
func MarketplaceStockKey(marketplace, sku string) string {
	return fmt.Sprintf("marketplace:%s:stock:%s", marketplace, sku)
}
