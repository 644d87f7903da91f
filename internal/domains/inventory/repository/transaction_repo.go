package repository

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/domains/inventory/model"
)

// ===================================
// TRANSACTION LOG
// ===================================

func (r *postgresRepository) ListTransactions(ctx context.Context, filter model.ListTransactionsRequest) ([]model.StockTransaction, int, error) {
	queryBuilder := `
		SELECT
			st.id, st.stock_id, st.transaction_type, st.quantity,
			st.reference_id, st.notes, st.created_by, st.created_at
		FROM stock_transactions st
		JOIN stocks s ON st.stock_id = s.id
		WHERE 1=1
	`
	countQuery := `
		SELECT COUNT(*)
		FROM stock_transactions st
		JOIN stocks s ON st.stock_id = s.id
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.ProductID != nil {
		clause := fmt.Sprintf(" AND s.product_id = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *filter.ProductID)
		argCount++
	}

	if filter.WarehouseID != nil {
		clause := fmt.Sprintf(" AND s.warehouse_id = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *filter.WarehouseID)
		argCount++
	}

	if filter.TransactionType != nil {
		clause := fmt.Sprintf(" AND st.transaction_type = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *filter.TransactionType)
		argCount++
	}

	if filter.From != nil {
		clause := fmt.Sprintf(" AND st.created_at >= $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *filter.From)
		argCount++
	}

	if filter.To != nil {
		clause := fmt.Sprintf(" AND st.created_at <= $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *filter.To)
		argCount++
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	queryBuilder += " ORDER BY st.created_at DESC, st.id ASC"
	offset := (filter.Page - 1) * filter.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]model.StockTransaction, 0, filter.Limit)
	for rows.Next() {
		var t model.StockTransaction
		err := rows.Scan(
			&t.ID,
			&t.StockID,
			&t.TransactionType,
			&t.Quantity,
			&t.ReferenceID,
			&t.Notes,
			&t.CreatedBy,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, totalCount, nil
}

// HasTransaction - idempotency check ngoài mutator (flash sale handler dùng)
func (r *postgresRepository) HasTransaction(ctx context.Context, stockID, kind, referenceID string) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM stock_transactions
		WHERE stock_id = $1 AND transaction_type = $2 AND reference_id = $3
	)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, stockID, kind, referenceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return exists, nil
}

// DeleteTransactionsBefore - retention job, trả về số dòng đã xóa
func (r *postgresRepository) DeleteTransactionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM stock_transactions WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old transactions: %w", err)
	}

	return result.RowsAffected(), nil
}
