package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-backend/internal/domains/inventory/model"
)

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const stockColumns = `
	id, product_id, warehouse_id, quantity, reserved, available,
	version, last_sync_at, updated_at`

func scanStock(row pgx.Row) (*model.Stock, error) {
	var s model.Stock
	err := row.Scan(
		&s.ID,
		&s.ProductID,
		&s.WarehouseID,
		&s.Quantity,
		&s.Reserved,
		&s.Available,
		&s.Version,
		&s.LastSyncAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ===================================
// READS
// ===================================

func (r *postgresRepository) GetStock(ctx context.Context, productID, warehouseID string) (*model.Stock, error) {
	query := `SELECT` + stockColumns + `
		FROM stocks
		WHERE product_id = $1 AND warehouse_id = $2`

	stock, err := scanStock(r.pool.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewStockNotFoundError(productID, warehouseID)
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	return stock, nil
}

func (r *postgresRepository) GetStocksByProduct(ctx context.Context, productID string) ([]model.Stock, error) {
	query := `SELECT` + stockColumns + `
		FROM stocks
		WHERE product_id = $1
		ORDER BY warehouse_id ASC`

	return r.queryStocks(ctx, query, productID)
}

func (r *postgresRepository) GetStocksByWarehouse(ctx context.Context, warehouseID string) ([]model.Stock, error) {
	query := `SELECT` + stockColumns + `
		FROM stocks
		WHERE warehouse_id = $1
		ORDER BY product_id ASC`

	return r.queryStocks(ctx, query, warehouseID)
}

// ListAllStocks - dùng cho reconciler, quét toàn bảng
func (r *postgresRepository) ListAllStocks(ctx context.Context) ([]model.Stock, error) {
	query := `SELECT` + stockColumns + `
		FROM stocks
		ORDER BY product_id ASC, warehouse_id ASC`

	return r.queryStocks(ctx, query)
}

func (r *postgresRepository) queryStocks(ctx context.Context, query string, args ...interface{}) ([]model.Stock, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []model.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		stocks = append(stocks, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock rows: %w", err)
	}

	return stocks, nil
}

// EnsureStock upserts a zero row so adjustments can init stock lazily.
// ON CONFLICT DO NOTHING giữ idempotency; sau đó đọc lại row hiện tại.
func (r *postgresRepository) EnsureStock(ctx context.Context, productID, warehouseID string) (*model.Stock, error) {
	insertQuery := `
		INSERT INTO stocks (id, product_id, warehouse_id, quantity, reserved, version, updated_at)
		VALUES ($1, $2, $3, 0, 0, 1, NOW())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, insertQuery, uuid.New().String(), productID, warehouseID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return nil, r.fkError(pgErr)
		}
		return nil, fmt.Errorf("failed to ensure stock row: %w", err)
	}

	return r.GetStock(ctx, productID, warehouseID)
}

func (r *postgresRepository) fkError(pgErr *pgconn.PgError) error {
	if pgErr.ConstraintName == "stocks_warehouse_id_fkey" {
		return model.ErrWarehouseNotFound
	}
	return model.ErrProductNotFound
}

// ===================================
// ATOMIC MUTATORS
// ===================================

// lockStockRow selects the row FOR UPDATE inside the given transaction
func lockStockRow(ctx context.Context, tx pgx.Tx, productID, warehouseID string) (*model.Stock, error) {
	query := `SELECT` + stockColumns + `
		FROM stocks
		WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`

	stock, err := scanStock(tx.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewStockNotFoundError(productID, warehouseID)
		}
		return nil, fmt.Errorf("failed to lock stock row: %w", err)
	}

	return stock, nil
}

// hasTransactionTx checks the audit log for the same kind + reference inside the tx.
// Đây là idempotency guard: retry của client không được trừ hàng hai lần.
func hasTransactionTx(ctx context.Context, tx pgx.Tx, stockID, kind, referenceID string) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM stock_transactions
		WHERE stock_id = $1 AND transaction_type = $2 AND reference_id = $3
	)`

	var exists bool
	if err := tx.QueryRow(ctx, query, stockID, kind, referenceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return exists, nil
}

// applyStockUpdate runs the versioned UPDATE and refreshes generated columns
func applyStockUpdate(ctx context.Context, tx pgx.Tx, stock *model.Stock, quantity, reserved int) error {
	query := `
		UPDATE stocks
		SET quantity = $3, reserved = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING quantity, reserved, available, version, updated_at
	`

	err := tx.QueryRow(ctx, query, stock.ID, stock.Version, quantity, reserved).Scan(
		&stock.Quantity,
		&stock.Reserved,
		&stock.Available,
		&stock.Version,
		&stock.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row was locked FOR UPDATE so this means version drift, not deletion
			return model.ErrOptimisticLockFailed
		}
		return fmt.Errorf("failed to update stock: %w", err)
	}

	return nil
}

// appendTransaction writes one audit row inside the mutator transaction
func appendTransaction(ctx context.Context, tx pgx.Tx, stockID, kind string, quantity int, referenceID, notes string) error {
	query := `
		INSERT INTO stock_transactions (id, stock_id, transaction_type, quantity, reference_id, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), 'system', NOW())
	`

	if _, err := tx.Exec(ctx, query, uuid.New().String(), stockID, kind, quantity, referenceID, notes); err != nil {
		return fmt.Errorf("failed to append stock transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) ReserveStock(ctx context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stock, err := lockStockRow(ctx, tx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if orderID != "" {
		duplicate, err := hasTransactionTx(ctx, tx, stock.ID, model.TransactionReserve, orderID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, fmt.Errorf("%w: order_id=%s", model.ErrDuplicateReference, orderID)
		}
	}

	if stock.Available < quantity {
		return nil, model.NewInsufficientStockError(quantity, stock.Available)
	}

	if err := applyStockUpdate(ctx, tx, stock, stock.Quantity, stock.Reserved+quantity); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Reserved %d units for order %s", quantity, orderID)
	if err := appendTransaction(ctx, tx, stock.ID, model.TransactionReserve, quantity, orderID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stock, nil
}

func (r *postgresRepository) ReleaseStock(ctx context.Context, productID, warehouseID string, quantity int, orderID string) (*model.Stock, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stock, err := lockStockRow(ctx, tx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if orderID != "" {
		duplicate, err := hasTransactionTx(ctx, tx, stock.ID, model.TransactionRelease, orderID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, fmt.Errorf("%w: order_id=%s", model.ErrDuplicateReference, orderID)
		}
	}

	if stock.Reserved < quantity {
		return nil, model.NewOverReleaseError(quantity, stock.Reserved)
	}

	if err := applyStockUpdate(ctx, tx, stock, stock.Quantity, stock.Reserved-quantity); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Released %d reserved units for order %s", quantity, orderID)
	if err := appendTransaction(ctx, tx, stock.ID, model.TransactionRelease, -quantity, orderID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stock, nil
}

// AdjustStock đổi quantity theo delta (IN/OUT/ADJUST/SYNC). Row chưa có thì
// EnsureStock tạo row zero trước khi vào critical section.
func (r *postgresRepository) AdjustStock(ctx context.Context, productID, warehouseID string, delta int, kind, referenceID, notes string) (*model.Stock, error) {
	if !model.IsValidTransactionType(kind) {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTransactionType, kind)
	}
	if delta == 0 {
		return nil, model.ErrInvalidQuantity
	}

	if _, err := r.EnsureStock(ctx, productID, warehouseID); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stock, err := lockStockRow(ctx, tx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if referenceID != "" {
		duplicate, err := hasTransactionTx(ctx, tx, stock.ID, kind, referenceID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, fmt.Errorf("%w: reference_id=%s", model.ErrDuplicateReference, referenceID)
		}
	}

	newQuantity := stock.Quantity + delta
	if newQuantity < 0 || newQuantity < stock.Reserved {
		return nil, fmt.Errorf("%w: quantity=%d, delta=%d, reserved=%d",
			model.ErrNegativeStock, stock.Quantity, delta, stock.Reserved)
	}

	if err := applyStockUpdate(ctx, tx, stock, newQuantity, stock.Reserved); err != nil {
		return nil, err
	}

	if notes == "" {
		notes = fmt.Sprintf("%s adjustment of %d units", kind, delta)
	}
	if err := appendTransaction(ctx, tx, stock.ID, kind, delta, referenceID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stock, nil
}

// RepairStock ghi lại row với quantity/reserved giữ nguyên để generated
// column available được tính lại từ quantity - reserved. Quantity và
// reserved là số đếm gốc, available chỉ là derived value.
func (r *postgresRepository) RepairStock(ctx context.Context, productID, warehouseID, referenceID, notes string) (*model.Stock, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stock, err := lockStockRow(ctx, tx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if referenceID != "" {
		duplicate, err := hasTransactionTx(ctx, tx, stock.ID, model.TransactionSync, referenceID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, fmt.Errorf("%w: reference_id=%s", model.ErrDuplicateReference, referenceID)
		}
	}

	if err := applyStockUpdate(ctx, tx, stock, stock.Quantity, stock.Reserved); err != nil {
		return nil, err
	}

	if notes == "" {
		notes = "Stock repair, available rederived"
	}
	if err := appendTransaction(ctx, tx, stock.ID, model.TransactionSync, 0, referenceID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stock, nil
}

// MarkSynced stamps last_sync_at, ngoài critical section nên không đụng version
func (r *postgresRepository) MarkSynced(ctx context.Context, stockID string, at time.Time) error {
	result, err := r.pool.Exec(ctx, "UPDATE stocks SET last_sync_at = $2 WHERE id = $1", stockID, at)
	if err != nil {
		return fmt.Errorf("failed to mark stock synced: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrStockNotFound
	}
	return nil
}
