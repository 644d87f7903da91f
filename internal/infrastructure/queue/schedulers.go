package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"inventory-backend/internal/config"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	syncCfg   config.SyncConfig
}

func NewScheduler(redisAddr, redisPassword string, db int, syncCfg config.SyncConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       db,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		syncCfg:   syncCfg,
	}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerRefreshViewsJob(); err != nil {
		return err
	}
	if err := s.registerWarehouseSyncJob(); err != nil {
		return err
	}
	if err := s.registerMarketplaceSyncJob(); err != nil {
		return err
	}
	if err := s.registerReconcileJob(); err != nil {
		return err
	}
	if err := s.registerStockAlertJob(); err != nil {
		return err
	}
	if err := s.registerCleanupTransactionsJob(); err != nil {
		return err
	}
	return nil
}

// ================================================
// JOB 1: Refresh Materialized Views (Every 5 minutes)
// ================================================
func (s *Scheduler) registerRefreshViewsJob() error {
	task := asynq.NewTask(shared.TypeRefreshViews, nil)

	_, err := s.scheduler.Register(
		"*/5 * * * *",
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RefreshViews job", err)
		return err
	}

	logger.Info("✓ Registered RefreshViews: every 5 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Warehouse Sync Fan-out (Every 30 minutes)
// ================================================
// Worker nhận task này rồi enqueue một child task per warehouse active,
// scheduler không query DB nên danh sách kho luôn tươi tại lúc chạy.
func (s *Scheduler) registerWarehouseSyncJob() error {
	task := asynq.NewTask(shared.TypeSyncAllWarehouses, nil)

	_, err := s.scheduler.Register(
		"*/30 * * * *",
		task,
		asynq.Queue(shared.QueueHigh),
		asynq.MaxRetry(2),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register SyncAllWarehouses job", err)
		return err
	}

	logger.Info("✓ Registered SyncAllWarehouses: every 30 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 3: Marketplace Sync Fan-out (Every 15 minutes)
// ================================================
// Push thường xuyên hơn pull: availability trên marketplace càng tươi
// thì càng ít order phải từ chối lúc reserve.
func (s *Scheduler) registerMarketplaceSyncJob() error {
	task := asynq.NewTask(shared.TypeSyncAllMarketplaces, nil)

	_, err := s.scheduler.Register(
		"*/15 * * * *",
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register SyncAllMarketplaces job", err)
		return err
	}

	logger.Info("✓ Registered SyncAllMarketplaces: every 15 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 4: Reconcile (Hourly)
// ================================================
func (s *Scheduler) registerReconcileJob() error {
	payload, err := json.Marshal(shared.ReconcilePayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcile, payload)

	_, err = s.scheduler.Register(
		"0 * * * *",
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register Reconcile job", err)
		return err
	}

	logger.Info("✓ Registered Reconcile: hourly", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 5: Low Stock Alert (Every 30 minutes)
// ================================================
func (s *Scheduler) registerStockAlertJob() error {
	payload, err := json.Marshal(shared.StockAlertPayload{
		Threshold: s.syncCfg.LowStockThreshold,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeStockAlert, payload)

	_, err = s.scheduler.Register(
		"15,45 * * * *", // lệch pha với warehouse sync để đọc số sau sync
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register StockAlert job", err)
		return err
	}

	logger.Info("✓ Registered StockAlert: every 30 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 6: Cleanup Old Transactions (Daily at 3 AM)
// ================================================
// 3 AM là low traffic, DELETE lớn không tranh IO với mutation path
func (s *Scheduler) registerCleanupTransactionsJob() error {
	payload, err := json.Marshal(shared.CleanupTransactionsPayload{
		RetentionDays: s.syncCfg.RetentionDays,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCleanupTransactions, payload)

	_, err = s.scheduler.Register(
		"0 3 * * *",
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupTransactions job", err)
		return err
	}

	logger.Info("✓ Registered CleanupTransactions: daily at 3 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
