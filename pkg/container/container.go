package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"inventory-backend/internal/config"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/infrastructure/database"
	"inventory-backend/internal/infrastructure/lock"
	"inventory-backend/internal/infrastructure/marketplace"
	"inventory-backend/internal/infrastructure/metrics"
	"inventory-backend/internal/infrastructure/queue"
	warehouseAPI "inventory-backend/internal/infrastructure/warehouse"
	"inventory-backend/pkg/cache"
	"inventory-backend/pkg/jwt"

	inventoryHandler "inventory-backend/internal/domains/inventory/handler"
	inventoryRepo "inventory-backend/internal/domains/inventory/repository"
	inventoryService "inventory-backend/internal/domains/inventory/service"
	productHandler "inventory-backend/internal/domains/product/handler"
	productRepo "inventory-backend/internal/domains/product/repository"
	productService "inventory-backend/internal/domains/product/service"
	warehouseHandler "inventory-backend/internal/domains/warehouse/handler"
	warehouseRepo "inventory-backend/internal/domains/warehouse/repository"
	warehouseService "inventory-backend/internal/domains/warehouse/service"
)

// Container chứa toàn bộ dependency graph của application.
// Cả api lẫn worker đều build từ đây, worker thì bỏ qua handlers.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================

	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	Locks       *lock.Manager
	Metrics     *metrics.Metrics
	Queue       *queue.Client
	JWTManager  *jwt.Manager
	Marketplace *marketplace.Registry
	StockSource warehouseAPI.StockSource

	// ========================================
	// REPOSITORY LAYER
	// ========================================

	ProductRepo   productRepo.RepositoryInterface
	WarehouseRepo warehouseRepo.Repository
	InventoryRepo inventoryRepo.RepositoryInterface

	// ========================================
	// SERVICE LAYER
	// ========================================

	ProductService   productService.ServiceInterface
	WarehouseService warehouseService.Service
	InventoryService inventoryService.ServiceInterface

	// ========================================
	// HANDLER LAYER
	// ========================================

	ProductHandler   *productHandler.Handler
	WarehouseHandler *warehouseHandler.Handler
	InventoryHandler *inventoryHandler.Handler
}

// NewContainer khởi tạo dependency graph theo thứ tự:
// config -> db/redis/locks/metrics -> external adapters -> queue ->
// repositories -> services -> handlers.
// Sai thứ tự là nil pointer lúc runtime, không phải lúc compile.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: REDIS CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis down không chặn startup: cache miss hết, lock sẽ fail
			// riêng từng request với 503
			log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
	}
	c.Cache = redisCache

	// ========================================
	// STEP 4: METRICS + DISTRIBUTED LOCKS
	// ========================================
	c.Metrics = metrics.New()

	c.Locks = lock.NewManager(cfg.Lock, cfg.Redis.Password, c.Metrics)
	log.Printf("✅ Lock manager ready (%d redlock instances)", len(cfg.Lock.Servers))

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// ========================================
	// STEP 5: EXTERNAL ADAPTERS
	// ========================================
	c.Marketplace = marketplace.NewRegistry(cfg.Marketplace, c.Cache)
	c.StockSource = warehouseAPI.NewHTTPStockSource(cfg.Warehouse)
	log.Println("✅ External adapters ready")

	// ========================================
	// STEP 6: REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()

	// ========================================
	// STEP 7: QUEUE CLIENT
	// ========================================
	// Queue cần WarehouseRepo cho fan-out nên đứng sau repositories
	c.Queue = queue.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
		c.WarehouseRepo,
		c.Marketplace,
	)
	log.Println("✅ Queue client ready")

	// ========================================
	// STEP 8: SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices()

	// ========================================
	// STEP 9: HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.ProductRepo = productRepo.NewRepository(pool)
	c.WarehouseRepo = warehouseRepo.NewRepository(pool)
	c.InventoryRepo = inventoryRepo.NewRepository(pool)
}

func (c *Container) initServices() {
	c.ProductService = productService.NewService(c.ProductRepo)
	c.WarehouseService = warehouseService.NewService(c.WarehouseRepo)
	c.InventoryService = inventoryService.NewService(
		c.InventoryRepo,
		c.Locks,
		c.Cache,
		c.Metrics,
		c.Config.Cache.StockTTL,
	)
}

func (c *Container) initHandlers() {
	c.ProductHandler = productHandler.NewHandler(c.ProductService)
	c.WarehouseHandler = warehouseHandler.NewHandler(c.WarehouseService)
	c.InventoryHandler = inventoryHandler.NewHandler(c.InventoryService, c.Queue, c.Cache)
}

// Cleanup dọn resources khi shutdown, gọi từ graceful shutdown path
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Printf("⚠️  Failed to close queue client: %v", err)
		} else {
			log.Println("✅ Queue client closed")
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Container cleanup completed")
}
