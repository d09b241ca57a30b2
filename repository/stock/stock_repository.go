package stock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"go.uber.org/zap"
)

// StockLedger is the only writer of StockRecord quantities. Each mutation is a single
// atomic conditional update on one record: when the precondition does not hold nothing changes.
//
// Reserve fails with ErrInsufficientStock, Commit and Release with ErrInvalidState, and all
// three with ErrProductNotStocked when the record does not exist. A nil error means the
// mutation was applied, even when the returned record is nil. Any other error leaves the
// outcome unknown: the write may or may not have landed.
type StockLedger interface {
	Reserve(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error)
	Commit(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error)
	Release(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error)
	// Receive is the intake hook: it creates the record or adds qty to total and available.
	Receive(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error)
	// Get returns nil when the product is not stocked at the warehouse.
	Get(ctx context.Context, productID, warehouseID string) (*model.StockRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]model.StockRecord, error)
	ReservedByWarehouse(ctx context.Context, warehouseID string) (int64, error)
}

type SQL struct {
	conn   *sqlx.DB
	driver string
	now    func() time.Time
}

func NewStockRepository(conn *sqlx.DB) StockLedger {
	return &SQL{conn: conn, driver: conn.DriverName(), now: time.Now}
}

const (
	reserveStockQuery = `UPDATE warehouse_stock SET available = available - ?, reserved = reserved + ?, updated_at = ?
WHERE product_id = ? AND warehouse_id = ? AND available >= ?`

	commitStockQuery = `UPDATE warehouse_stock SET reserved = reserved - ?, total = total - ?, updated_at = ?
WHERE product_id = ? AND warehouse_id = ? AND reserved >= ?`

	releaseStockQuery = `UPDATE warehouse_stock SET available = available + ?, reserved = reserved - ?, updated_at = ?
WHERE product_id = ? AND warehouse_id = ? AND reserved >= ?`

	receiveStockMySQL = `INSERT INTO warehouse_stock (product_id, warehouse_id, available, reserved, total, updated_at)
VALUES (?, ?, ?, 0, ?, ?)
ON DUPLICATE KEY UPDATE available = available + VALUES(available), total = total + VALUES(total), updated_at = VALUES(updated_at)`

	receiveStockSQLite = `INSERT INTO warehouse_stock (product_id, warehouse_id, available, reserved, total, updated_at)
VALUES (?, ?, ?, 0, ?, ?)
ON CONFLICT(product_id, warehouse_id) DO UPDATE SET available = available + excluded.available, total = total + excluded.total, updated_at = excluded.updated_at`

	stockColumns = `product_id, warehouse_id, available, reserved, total, updated_at`

	getStockQuery            = `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE product_id = ? AND warehouse_id = ?`
	listStockByProductQuery  = `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE product_id = ? ORDER BY warehouse_id`
	reservedByWarehouseQuery = `SELECT COALESCE(SUM(reserved), 0) FROM warehouse_stock WHERE warehouse_id = ?`
)

func (r *SQL) Reserve(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.apply(ctx, reserveStockQuery, constant.ErrInsufficientStock, productID, warehouseID, qty, qty)
}

func (r *SQL) Commit(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.apply(ctx, commitStockQuery, constant.ErrInvalidState, productID, warehouseID, qty, qty)
}

func (r *SQL) Release(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.apply(ctx, releaseStockQuery, constant.ErrInvalidState, productID, warehouseID, qty, qty)
}

// apply runs one conditional UPDATE. Zero affected rows means either the record is missing or
// the guard failed; a follow-up read tells the two apart. Once the row is updated the mutation has
// happened, so a failed read-back returns a nil record and no error.
func (r *SQL) apply(ctx context.Context, query string, guardErr constant.ErrorType, productID, warehouseID string, qty, guard int64) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	res, err := r.conn.ExecContext(ctx, query, qty, qty, r.now().UTC(), productID, warehouseID, guard)
	if err != nil {
		return nil, fmt.Errorf("update warehouse_stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		rec, err := r.Get(ctx, productID, warehouseID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, errors.SetCustomError(constant.ErrProductNotStocked)
		}
		return nil, errors.SetCustomError(guardErr)
	}

	rec, err := r.Get(ctx, productID, warehouseID)
	if err != nil {
		logger.Warn("[StockLedger] read back after update",
			zap.String("product_id", productID), zap.String("warehouse_id", warehouseID), zap.String("error", err.Error()))
		return nil, nil
	}
	return rec, nil
}

func (r *SQL) Receive(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	q := receiveStockMySQL
	if r.driver == "sqlite" {
		q = receiveStockSQLite
	}
	if _, err := r.conn.ExecContext(ctx, q, productID, warehouseID, qty, qty, r.now().UTC()); err != nil {
		return nil, fmt.Errorf("upsert warehouse_stock: %w", err)
	}
	return r.Get(ctx, productID, warehouseID)
}

func (r *SQL) Get(ctx context.Context, productID, warehouseID string) (*model.StockRecord, error) {
	var rec model.StockRecord
	if err := r.conn.GetContext(ctx, &rec, getStockQuery, productID, warehouseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse_stock: %w", err)
	}
	return &rec, nil
}

func (r *SQL) ListByProduct(ctx context.Context, productID string) ([]model.StockRecord, error) {
	recs := make([]model.StockRecord, 0)
	if err := r.conn.SelectContext(ctx, &recs, listStockByProductQuery, productID); err != nil {
		return nil, fmt.Errorf("list warehouse_stock: %w", err)
	}
	return recs, nil
}

func (r *SQL) ReservedByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	var total int64
	if err := r.conn.GetContext(ctx, &total, reservedByWarehouseQuery, warehouseID); err != nil {
		return 0, fmt.Errorf("sum reserved: %w", err)
	}
	return total, nil
}
