package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"inventory-backend/internal/domains/inventory/model"
)

// StockReport build báo cáo định giá tồn kho. Giá trị mỗi dòng là
// available * unit price, decimal để không lệch xu khi cộng dồn.
func (s *StockService) StockReport(ctx context.Context, warehouseID string) (*model.StockReport, error) {
	rows, err := s.repo.GetStockReportRows(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range rows {
		// Store nào chưa tính sẵn total_value thì derive tại đây
		if rows[i].TotalValue.IsZero() && rows[i].Available > 0 {
			rows[i].TotalValue = rows[i].UnitPrice.Mul(decimal.NewFromInt(int64(rows[i].Available)))
		}
		total = total.Add(rows[i].TotalValue)
	}

	return &model.StockReport{
		Rows:        rows,
		TotalValue:  total,
		GeneratedAt: time.Now(),
	}, nil
}
