package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-backend/internal/domains/warehouse/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const warehouseColumns = "id, code, name, location, priority, is_active, created_at, updated_at"

func scanWarehouse(row pgx.Row) (*model.Warehouse, error) {
	var w model.Warehouse
	err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Location, &w.Priority, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *postgresRepository) Create(ctx context.Context, warehouse *model.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, code, name, location, priority, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		warehouse.ID,
		warehouse.Code,
		warehouse.Name,
		warehouse.Location,
		warehouse.Priority,
		warehouse.IsActive,
	).Scan(&warehouse.CreatedAt, &warehouse.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrCodeAlreadyExists
		}
		return fmt.Errorf("failed to create warehouse: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*model.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1`

	warehouse, err := scanWarehouse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse by id: %w", err)
	}

	return warehouse, nil
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*model.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE code = $1`

	warehouse, err := scanWarehouse(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse by code: %w", err)
	}

	return warehouse, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.Keyword != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d OR location ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+filter.Keyword+"%")
		idx++
	}
	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *filter.IsActive)
		idx++
	}

	whereStr := strings.Join(where, " AND ")

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM warehouses WHERE " + whereStr
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count warehouses: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+warehouseColumns+` FROM warehouses WHERE %s ORDER BY priority ASC, code ASC LIMIT $%d OFFSET $%d`,
		whereStr, idx, idx+1)
	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := make([]model.Warehouse, 0, filter.Limit)
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan warehouse row: %w", err)
		}
		warehouses = append(warehouses, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating warehouse rows: %w", err)
	}

	return warehouses, totalCount, nil
}

// ListActive - dùng cho sync fan-out, sắp theo priority
func (r *postgresRepository) ListActive(ctx context.Context) ([]model.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE is_active = true ORDER BY priority ASC, code ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warehouse row: %w", err)
		}
		warehouses = append(warehouses, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warehouse rows: %w", err)
	}

	return warehouses, nil
}

func (r *postgresRepository) Update(ctx context.Context, warehouse *model.Warehouse) error {
	query := `
		UPDATE warehouses
		SET name = $2, location = $3, priority = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		warehouse.ID,
		warehouse.Name,
		warehouse.Location,
		warehouse.Priority,
		warehouse.IsActive,
	).Scan(&warehouse.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrWarehouseNotFound
		}
		return fmt.Errorf("failed to update warehouse: %w", err)
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM warehouses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete warehouse: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrWarehouseNotFound
	}

	return nil
}

func (r *postgresRepository) HasStock(ctx context.Context, warehouseID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM stocks WHERE warehouse_id = $1 AND (quantity > 0 OR reserved > 0))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, warehouseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check warehouse stock: %w", err)
	}

	return exists, nil
}
