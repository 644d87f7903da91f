// invctl - ops CLI cho inventory backend.
//
// Usage:
//
//	invctl check-low-stock [-threshold N] [-export file.csv]
//	invctl reconcile [-warehouse CODE] [-async]
//	invctl sync-all [-warehouse CODE] [-marketplace NAME]
//
// Exit code 0 khi sạch, 1 khi có alert/discrepancy/lỗi. Cron và
// monitoring scripts dựa vào exit code này.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/pkg/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("❌ Failed to initialize container: %v", err)
	}
	defer c.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var exitCode int
	switch os.Args[1] {
	case "check-low-stock":
		exitCode = runCheckLowStock(ctx, c, os.Args[2:])
	case "reconcile":
		exitCode = runReconcile(ctx, c, os.Args[2:])
	case "sync-all":
		exitCode = runSyncAll(ctx, c, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		exitCode = 1
	}

	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: invctl <command> [flags]

commands:
  check-low-stock   list SKUs below threshold, optionally export CSV
  reconcile         repair drift between quantity and transaction log
  sync-all          dispatch warehouse/marketplace sync fan-out`)
}

// ========================================
// CHECK LOW STOCK
// ========================================
func runCheckLowStock(ctx context.Context, c *container.Container, args []string) int {
	fs := flag.NewFlagSet("check-low-stock", flag.ExitOnError)
	threshold := fs.Int("threshold", c.Config.Sync.LowStockThreshold, "alert when available drops below this")
	export := fs.String("export", "", "write alerts to CSV file")
	fs.Parse(args)

	alerts, err := c.InventoryService.GetLowStockAlerts(ctx, *threshold)
	if err != nil {
		log.Printf("❌ check-low-stock failed: %v", err)
		return 1
	}

	if len(alerts) == 0 {
		fmt.Printf("✅ No SKUs below threshold %d\n", *threshold)
		return 0
	}

	fmt.Printf("⚠️  %d SKUs below threshold %d:\n", len(alerts), *threshold)
	for _, a := range alerts {
		fmt.Printf("  [%s] %s (%s) @ %s: %d available\n",
			a.AlertLevel, a.SKU, a.ProductName, a.WarehouseCode, a.Available)
	}

	if *export != "" {
		if err := exportAlertsCSV(*export, alerts); err != nil {
			log.Printf("❌ CSV export failed: %v", err)
			return 1
		}
		fmt.Printf("📄 Exported to %s\n", *export)
	}

	return 1
}

func exportAlertsCSV(path string, alerts []model.LowStockAlert) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"sku", "product", "warehouse", "available", "level"}); err != nil {
		return err
	}
	for _, a := range alerts {
		record := []string{a.SKU, a.ProductName, a.WarehouseCode, strconv.Itoa(a.Available), a.AlertLevel}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// ========================================
// RECONCILE
// ========================================
func runReconcile(ctx context.Context, c *container.Container, args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	warehouseCode := fs.String("warehouse", "", "warehouse code, empty = whole system")
	async := fs.Bool("async", false, "enqueue instead of running inline")
	fs.Parse(args)

	// Resolve code -> id; payload và service đều làm việc trên id
	warehouseID := ""
	if *warehouseCode != "" {
		wh, err := c.WarehouseRepo.GetByCode(ctx, *warehouseCode)
		if err != nil {
			log.Printf("❌ unknown warehouse %q: %v", *warehouseCode, err)
			return 1
		}
		warehouseID = wh.ID
	}

	if *async {
		taskID, err := c.Queue.EnqueueReconcile(ctx, warehouseID)
		if err != nil {
			log.Printf("❌ enqueue failed: %v", err)
			return 1
		}
		fmt.Printf("📨 Reconcile enqueued, task_id=%s\n", taskID)
		fmt.Println("   Poll GET /api/v1/sync/status?task_id=... for the result")
		return 0
	}

	result, err := c.InventoryService.Reconcile(ctx, warehouseID)
	if err != nil {
		log.Printf("❌ reconcile failed: %v", err)
		return 1
	}

	fmt.Printf("✅ Reconcile done: checked=%d discrepancies=%d corrections=%d\n",
		result.TotalChecked, result.DiscrepanciesFound, result.CorrectionsMade)
	for _, e := range result.Errors {
		fmt.Printf("  ⚠️  %s\n", e)
	}

	if result.DiscrepanciesFound > 0 || len(result.Errors) > 0 {
		return 1
	}
	return 0
}

// ========================================
// SYNC ALL
// ========================================
func runSyncAll(ctx context.Context, c *container.Container, args []string) int {
	fs := flag.NewFlagSet("sync-all", flag.ExitOnError)
	warehouseCode := fs.String("warehouse", "", "sync one warehouse by code instead of all")
	marketplaceName := fs.String("marketplace", "", "sync one marketplace by name instead of all")
	fs.Parse(args)

	// Target cụ thể: enqueue một child task lẻ, vẫn trả task_id để poll
	if *warehouseCode != "" || *marketplaceName != "" {
		return syncSingleTargets(ctx, c, *warehouseCode, *marketplaceName)
	}

	code := 0
	taskID, enqueued, err := c.Queue.SyncAllWarehouses(ctx)
	if err != nil {
		log.Printf("❌ warehouse fan-out failed: %v", err)
		code = 1
	} else {
		fmt.Printf("📨 Warehouse sync dispatched: task_id=%s children=%d\n", taskID, enqueued)
	}

	taskID, enqueued, err = c.Queue.SyncAllMarketplaces(ctx)
	if err != nil {
		log.Printf("❌ marketplace fan-out failed: %v", err)
		code = 1
	} else {
		fmt.Printf("📨 Marketplace sync dispatched: task_id=%s children=%d\n", taskID, enqueued)
	}

	return code
}

func syncSingleTargets(ctx context.Context, c *container.Container, warehouseCode, marketplaceName string) int {
	code := 0

	if warehouseCode != "" {
		wh, err := c.WarehouseRepo.GetByCode(ctx, warehouseCode)
		if err != nil {
			log.Printf("❌ unknown warehouse %q: %v", warehouseCode, err)
			return 1
		}
		taskID := uuid.NewString()
		if err := c.Queue.EnqueueWarehouseSync(ctx, wh.ID, taskID); err != nil {
			log.Printf("❌ enqueue failed: %v", err)
			code = 1
		} else {
			fmt.Printf("📨 Warehouse %s sync enqueued: task_id=%s\n", warehouseCode, taskID)
		}
	}

	if marketplaceName != "" {
		if _, err := c.Marketplace.Get(marketplaceName); err != nil {
			log.Printf("❌ %v", err)
			return 1
		}
		taskID := uuid.NewString()
		if err := c.Queue.EnqueueMarketplaceSync(ctx, marketplaceName, taskID); err != nil {
			log.Printf("❌ enqueue failed: %v", err)
			code = 1
		} else {
			fmt.Printf("📨 Marketplace %s sync enqueued: task_id=%s\n", marketplaceName, taskID)
		}
	}

	return code
}
