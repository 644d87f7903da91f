package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/pkg/logger"
)

// ===================================
// MATERIALIZED VIEWS
// ===================================

// RefreshViews refreshes both aggregation views. CONCURRENTLY cần unique
// index trên view; nếu chưa có (fresh deploy) fall back sang blocking refresh.
func (r *postgresRepository) RefreshViews(ctx context.Context) error {
	for _, view := range []string{"aggregated_stock", "low_stock_alert"} {
		_, err := r.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+view)
		if err == nil {
			continue
		}

		logger.Warn("concurrent refresh failed, falling back to blocking refresh", map[string]interface{}{
			"view":  view,
			"error": err.Error(),
		})

		if _, err := r.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW "+view); err != nil {
			return fmt.Errorf("failed to refresh view %s: %w", view, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetAggregatedStock(ctx context.Context, productID string) (*model.AggregatedStock, error) {
	query := `
		SELECT product_id, sku, total_quantity, total_reserved, total_available, warehouse_count, last_updated
		FROM aggregated_stock
		WHERE product_id = $1
	`

	var agg model.AggregatedStock
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&agg.ProductID,
		&agg.SKU,
		&agg.TotalQuantity,
		&agg.TotalReserved,
		&agg.TotalAvailable,
		&agg.WarehouseCount,
		&agg.LastUpdated,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrStockNotFound
		}
		return nil, fmt.Errorf("failed to get aggregated stock: %w", err)
	}

	return &agg, nil
}

func (r *postgresRepository) GetLowStockAlerts(ctx context.Context, threshold int) ([]model.LowStockAlert, error) {
	query := `
		SELECT product_id, sku, product_name, warehouse_id, warehouse_code, available, alert_level
		FROM low_stock_alert
		WHERE available < $1
		ORDER BY available ASC, sku ASC
	`

	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.LowStockAlert
	for rows.Next() {
		var a model.LowStockAlert
		err := rows.Scan(
			&a.ProductID,
			&a.SKU,
			&a.ProductName,
			&a.WarehouseID,
			&a.WarehouseCode,
			&a.Available,
			&a.AlertLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return alerts, nil
}

// ===================================
// REPORTING
// ===================================

// GetStockReportRows - báo cáo định giá; warehouseID rỗng nghĩa là toàn hệ thống
func (r *postgresRepository) GetStockReportRows(ctx context.Context, warehouseID string) ([]model.StockReportRow, error) {
	query := `
		SELECT
			s.product_id, p.sku, p.name, s.warehouse_id,
			s.quantity, s.reserved, s.available,
			p.price, p.price * s.available AS total_value
		FROM stocks s
		JOIN products p ON s.product_id = p.id
		WHERE p.is_active = true
	`
	args := []interface{}{}
	if warehouseID != "" {
		query += " AND s.warehouse_id = $1"
		args = append(args, warehouseID)
	}
	query += " ORDER BY p.sku ASC, s.warehouse_id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock report: %w", err)
	}
	defer rows.Close()

	var report []model.StockReportRow
	for rows.Next() {
		var row model.StockReportRow
		err := rows.Scan(
			&row.ProductID,
			&row.SKU,
			&row.ProductName,
			&row.WarehouseID,
			&row.Quantity,
			&row.Reserved,
			&row.Available,
			&row.UnitPrice,
			&row.TotalValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return report, nil
}
