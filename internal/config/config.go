package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Lock        LockConfig
	Cache       CacheConfig
	Sync        SyncConfig
	Marketplace MarketplaceConfig
	Warehouse   WarehouseAPIConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// LockConfig cấu hình cho distributed lock (Redlock)
// Servers phải là số lẻ >= 3 để quorum có ý nghĩa
type LockConfig struct {
	TTL        time.Duration // LOCK_TIMEOUT
	RetryTimes int
	RetryDelay time.Duration
	Servers    []RedisServer // parsed từ REDLOCK_SERVERS
}

// RedisServer là một instance trong Redlock cluster
type RedisServer struct {
	Addr string
	DB   int
}

type CacheConfig struct {
	StockTTL time.Duration // CACHE_TTL_SECONDS
}

type SyncConfig struct {
	WorkerPoolSize    int
	RetentionDays     int // TRANSACTION_RETENTION_DAYS
	LowStockThreshold int
}

// MarketplaceConfig giữ credentials cho từng marketplace adapter
type MarketplaceConfig struct {
	Amazon  AmazonConfig
	Ebay    EbayConfig
	Shopify ShopifyConfig
}

type AmazonConfig struct {
	APIURL   string
	APIKey   string
	SellerID string
}

type EbayConfig struct {
	APIURL    string
	APIKey    string
	UserToken string
}

type ShopifyConfig struct {
	APIURL   string
	APIKey   string
	ShopName string
}

// WarehouseAPIConfig là endpoint của warehouse management system
// dùng cho job pull tồn kho thực tế về
type WarehouseAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	lockServers, err := ParseRedlockServers(getEnv("REDLOCK_SERVERS", "localhost:6379/1,localhost:6379/2,localhost:6379/3"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDLOCK_SERVERS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Inventory API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "inventory"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		Lock: LockConfig{
			TTL:        getEnvDuration("LOCK_TIMEOUT", 30*time.Second),
			RetryTimes: getEnvInt("LOCK_RETRY_TIMES", 3),
			RetryDelay: getEnvDuration("LOCK_RETRY_DELAY", 200*time.Millisecond),
			Servers:    lockServers,
		},
		Cache: CacheConfig{
			StockTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Sync: SyncConfig{
			WorkerPoolSize:    getEnvInt("WORKER_POOL_SIZE", 20),
			RetentionDays:     getEnvInt("TRANSACTION_RETENTION_DAYS", 90),
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		Marketplace: MarketplaceConfig{
			Amazon: AmazonConfig{
				APIURL:   getEnv("AMAZON_API_URL", "https://sellingpartnerapi.amazon.com"),
				APIKey:   getEnv("AMAZON_API_KEY", ""),
				SellerID: getEnv("AMAZON_SELLER_ID", ""),
			},
			Ebay: EbayConfig{
				APIURL:    getEnv("EBAY_API_URL", "https://api.ebay.com"),
				APIKey:    getEnv("EBAY_API_KEY", ""),
				UserToken: getEnv("EBAY_USER_TOKEN", ""),
			},
			Shopify: ShopifyConfig{
				APIURL:   getEnv("SHOPIFY_API_URL", "https://myshopify.com"),
				APIKey:   getEnv("SHOPIFY_API_KEY", ""),
				ShopName: getEnv("SHOPIFY_SHOP_NAME", ""),
			},
		},
		Warehouse: WarehouseAPIConfig{
			BaseURL: getEnv("WAREHOUSE_API_URL", "http://localhost:9090"),
			APIKey:  getEnv("WAREHOUSE_API_KEY", ""),
			Timeout: getEnvDuration("WAREHOUSE_API_TIMEOUT", 15*time.Second),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ParseRedlockServers parse chuỗi "host:port/db,host:port/db,..."
// thành danh sách RedisServer. Phần /db là optional (default 0).
func ParseRedlockServers(raw string) ([]RedisServer, error) {
	parts := strings.Split(raw, ",")
	servers := make([]RedisServer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		addr := part
		db := 0
		if idx := strings.LastIndex(part, "/"); idx != -1 {
			addr = part[:idx]
			parsed, err := strconv.Atoi(part[idx+1:])
			if err != nil {
				return nil, fmt.Errorf("bad db index in %q", part)
			}
			db = parsed
		}

		if !strings.Contains(addr, ":") {
			return nil, fmt.Errorf("missing port in %q", part)
		}

		servers = append(servers, RedisServer{Addr: addr, DB: db})
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers configured")
	}

	return servers, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	// Production environment phải có secret thật
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if len(c.Lock.Servers) < 3 {
			return fmt.Errorf("REDLOCK_SERVERS needs at least 3 instances in production")
		}
		if len(c.Lock.Servers)%2 == 0 {
			fmt.Println("WARNING: REDLOCK_SERVERS should be an odd number of instances")
		}
	}

	if c.Lock.TTL <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	if c.Sync.RetentionDays <= 0 {
		return fmt.Errorf("TRANSACTION_RETENTION_DAYS must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration đọc duration, chấp nhận cả dạng "30s" lẫn số giây trần "30"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
