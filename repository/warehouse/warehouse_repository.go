package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
)

type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, w *model.Warehouse) error
	// GetWarehouseByID returns nil when the warehouse does not exist.
	GetWarehouseByID(ctx context.Context, id string) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	// UpdateWarehouseStatus returns sql.ErrNoRows when the warehouse does not exist.
	UpdateWarehouseStatus(ctx context.Context, id string, status constant.WarehouseStatus) error
}

type SQL struct {
	conn *sqlx.DB
}

func NewWarehouseRepository(conn *sqlx.DB) WarehouseRepository {
	return &SQL{conn: conn}
}

func (r *SQL) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	q := "INSERT INTO warehouse (id, name, status, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.conn.ExecContext(ctx, q, w.ID, w.Name, w.Status, w.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *SQL) GetWarehouseByID(ctx context.Context, id string) (*model.Warehouse, error) {
	var w model.Warehouse
	q := "SELECT id, name, status, created_at FROM warehouse WHERE id = ?"
	if err := r.conn.GetContext(ctx, &w, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *SQL) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	out := make([]model.Warehouse, 0)
	if err := r.conn.SelectContext(ctx, &out, "SELECT id, name, status, created_at FROM warehouse ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQL) UpdateWarehouseStatus(ctx context.Context, id string, status constant.WarehouseStatus) error {
	res, err := r.conn.ExecContext(ctx, "UPDATE warehouse SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero rows when the status is unchanged, so check existence.
		w, err := r.GetWarehouseByID(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return sql.ErrNoRows
		}
	}
	return nil
}
