package marketplace

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/config"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/logger"
)

// getStockCacheTTL: marketplace reads đắt, cache 5 phút là đủ tươi
const getStockCacheTTL = 5 * time.Minute

// Registry giữ toàn bộ adapters đã cấu hình, lookup theo tên
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry build adapters từ config. Marketplace thiếu credentials
// vẫn được đăng ký, call sẽ fail với 401 từ phía kia, còn hơn là fail
// im lặng lúc startup.
func NewRegistry(cfg config.MarketplaceConfig, c cache.Cache) *Registry {
	adapters := map[string]Adapter{
		Amazon:  newCachedAdapter(NewAmazonAdapter(cfg.Amazon), c),
		Ebay:    newCachedAdapter(NewEbayAdapter(cfg.Ebay), c),
		Shopify: newCachedAdapter(NewShopifyAdapter(cfg.Shopify), c),
	}
	return &Registry{adapters: adapters}
}

// NewRegistryWithAdapters nhận adapters trực tiếp, không qua config.
// Dùng cho tests và tooling chạy trên fake adapters.
func NewRegistryWithAdapters(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Get trả về adapter theo tên
func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarketplace, name)
	}
	return adapter, nil
}

// Names liệt kê marketplaces đã đăng ký, dùng cho fan-out
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// cachedAdapter wrap một Adapter với read cache cho GetStock.
// Writes đi thẳng, không cache.
type cachedAdapter struct {
	Adapter
	cache cache.Cache
}

func newCachedAdapter(inner Adapter, c cache.Cache) Adapter {
	return &cachedAdapter{Adapter: inner, cache: c}
}

func (a *cachedAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	key := infraCache.MarketplaceStockKey(a.Name(), sku)

	var cached int
	if found, err := a.cache.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	quantity, err := a.Adapter.GetStock(ctx, sku)
	if err != nil {
		return 0, err
	}

	if err := a.cache.Set(ctx, key, quantity, getStockCacheTTL); err != nil {
		// cache lỗi không chặn read
		logger.Error("marketplace: failed to cache stock", err)
	}

	return quantity, nil
}
