package service

import (
	"context"
	"fmt"

	"inventory-backend/internal/domains/inventory/model"
	"inventory-backend/internal/infrastructure/metrics"
	"inventory-backend/pkg/logger"
)

// Reconcile quét các dòng stock và sửa những dòng vi phạm invariant
// quantity >= reserved >= 0 / available = quantity - reserved. Mọi correction
// đi qua adjustment path bình thường nên đều có SYNC transaction trong log.
// Idempotent: chạy lần hai trên data sạch phải ra 0 corrections.
func (s *StockService) Reconcile(ctx context.Context, warehouseID string) (*model.ReconcileResult, error) {
	var (
		stocks []model.Stock
		err    error
	)
	if warehouseID != "" {
		stocks, err = s.repo.GetStocksByWarehouse(ctx, warehouseID)
	} else {
		stocks, err = s.repo.ListAllStocks(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stocks for reconciliation: %w", err)
	}

	result := &model.ReconcileResult{TotalChecked: len(stocks)}

	for _, stock := range stocks {
		delta, drifted := quantityCorrection(stock)
		if !drifted {
			continue
		}

		result.DiscrepanciesFound++

		logger.Warn("stock discrepancy detected", map[string]interface{}{
			"product_id":   stock.ProductID,
			"warehouse_id": stock.WarehouseID,
			"quantity":     stock.Quantity,
			"reserved":     stock.Reserved,
			"available":    stock.Available,
			"correction":   delta,
		})

		ref := fmt.Sprintf("reconcile:%s:%d", stock.ID, stock.Version)
		var err error
		if delta != 0 {
			_, err = s.Adjust(ctx, model.AdjustStockRequest{
				ProductID:   stock.ProductID,
				WarehouseID: stock.WarehouseID,
				Delta:       delta,
				Kind:        model.TransactionSync,
				ReferenceID: ref,
				Notes:       "Reconciliation correction",
			})
		} else {
			_, err = s.repairAvailable(ctx, stock, ref)
		}
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("product=%s warehouse=%s: %v", stock.ProductID, stock.WarehouseID, err))
			continue
		}

		result.CorrectionsMade++
	}

	logger.Info("reconciliation finished", map[string]interface{}{
		"warehouse_id":  warehouseID,
		"total_checked": result.TotalChecked,
		"discrepancies": result.DiscrepanciesFound,
		"corrections":   result.CorrectionsMade,
		"errors":        len(result.Errors),
	})

	return result, nil
}

// quantityCorrection trả về quantity delta cần áp để khôi phục invariant.
// delta 0 với drifted=true nghĩa là quantity/reserved hợp lệ nhưng
// available lệch: row cần ghi lại để available được derive lại.
func quantityCorrection(stock model.Stock) (delta int, drifted bool) {
	// Sync ghi đè quantity trong khi order đang giữ hàng: kéo quantity
	// lên bằng reserved, phần chênh sẽ được lượt sync sau giải quyết.
	if stock.Quantity < stock.Reserved {
		return stock.Reserved - stock.Quantity, true
	}
	// Available lệch khỏi quantity - reserved. Quantity và reserved là số
	// đếm gốc, available chỉ là derived value nên không bao giờ suy quantity
	// từ available.
	if stock.Available != stock.Quantity-stock.Reserved {
		return 0, true
	}
	return 0, false
}

// repairAvailable ghi lại row qua mutation path bình thường (lock, retry,
// invalidation, metric) để available khớp lại quantity - reserved.
func (s *StockService) repairAvailable(ctx context.Context, stock model.Stock, referenceID string) (*model.StockResponse, error) {
	return s.mutate(ctx, metrics.OpSync, stock.ProductID, stock.WarehouseID, func(ctx context.Context) (*model.Stock, error) {
		return s.repo.RepairStock(ctx, stock.ProductID, stock.WarehouseID, referenceID, "Reconciliation correction")
	})
}
