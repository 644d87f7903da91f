package database

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/pkg/logger"
)

// PoolSnapshot là lát cắt connection pool stats tại một thời điểm
type PoolSnapshot struct {
	TotalConns      int32
	IdleConns       int32
	AcquiredConns   int32
	MaxConns        int32
	AcquireCount    int64
	AcquireDuration time.Duration
	CanceledCount   int64
}

// Ngưỡng cảnh báo cho pool health
const (
	utilizationWarnPct = 80.0
	acquireWaitWarn    = 100 * time.Millisecond
	cancelRateWarnPct  = 5.0
)

// Utilization - phần trăm connections đang bị giữ so với MaxConns
func (s PoolSnapshot) Utilization() float64 {
	if s.MaxConns == 0 {
		return 0
	}
	return float64(s.AcquiredConns) / float64(s.MaxConns) * 100
}

// AvgAcquireWait - thời gian chờ acquire trung bình trên lifetime của pool
func (s PoolSnapshot) AvgAcquireWait() time.Duration {
	if s.AcquireCount == 0 {
		return 0
	}
	return s.AcquireDuration / time.Duration(s.AcquireCount)
}

// CancelRate - phần trăm acquire bị cancel vì chờ quá lâu
func (s PoolSnapshot) CancelRate() float64 {
	if s.AcquireCount == 0 {
		return 0
	}
	return float64(s.CanceledCount) / float64(s.AcquireCount) * 100
}

// Warnings liệt kê các ngưỡng bị vượt. Rỗng nghĩa là pool khoẻ.
func (s PoolSnapshot) Warnings() []string {
	var out []string
	if u := s.Utilization(); u > utilizationWarnPct {
		out = append(out, fmt.Sprintf("pool utilization %.1f%% (%d/%d)", u, s.AcquiredConns, s.MaxConns))
	}
	if w := s.AvgAcquireWait(); w > acquireWaitWarn {
		out = append(out, fmt.Sprintf("avg acquire wait %v", w))
	}
	if r := s.CancelRate(); r > cancelRateWarnPct {
		out = append(out, fmt.Sprintf("acquire cancel rate %.1f%%", r))
	}
	return out
}

// Snapshot đọc pgxpool.Stat thành PoolSnapshot
func (db *PostgresDB) Snapshot() PoolSnapshot {
	stat := db.Pool.Stat()
	return PoolSnapshot{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration(),
		CanceledCount:   stat.CanceledAcquireCount(),
	}
}

// MonitorPoolHealth log cảnh báo định kỳ khi pool bị ép. Chạy trong
// goroutine riêng, dừng khi ctx bị cancel. Worker giữ connections lâu
// trong các sync run nên pool exhaustion hiện ra ở đây trước tiên.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if db.Pool == nil {
				continue
			}
			snap := db.Snapshot()
			for _, warning := range snap.Warnings() {
				logger.Warn("database pool pressure", map[string]interface{}{
					"issue":    warning,
					"total":    snap.TotalConns,
					"idle":     snap.IdleConns,
					"acquired": snap.AcquiredConns,
					"max":      snap.MaxConns,
				})
			}
		case <-ctx.Done():
			return
		}
	}
}
