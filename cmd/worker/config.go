package main

import (
	"log"

	"inventory-backend/internal/config"
)

// Config holds all configuration for the worker
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Sync          config.SyncConfig
}

// loadConfig derives worker configuration from the application config.
// Container đã load env rồi, worker không đọc env lần hai.
func loadConfig(appCfg *config.Config) *Config {
	concurrency := appCfg.Sync.WorkerPoolSize
	if concurrency <= 0 {
		concurrency = 10
	}

	cfg := &Config{
		RedisAddr:     appCfg.Redis.Host,
		RedisPassword: appCfg.Redis.Password,
		RedisDB:       appCfg.Redis.DB,
		Concurrency:   concurrency,
		Sync:          appCfg.Sync,
	}

	log.Printf("[Config] Redis: %s, Concurrency: %d, Retention: %dd",
		cfg.RedisAddr, cfg.Concurrency, cfg.Sync.RetentionDays)

	return cfg
}
