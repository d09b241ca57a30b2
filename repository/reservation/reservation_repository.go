package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
)

const defaultListLimit = 100

// ReservationRepository persists reservations. Status changes go through a two step claim:
// Claim marks an active reservation with the target status, Finalize applies it. Only one
// caller can hold the claim, so exactly one transition ever reaches the ledger.
type ReservationRepository interface {
	Insert(ctx context.Context, r *model.Reservation) error
	// Get returns nil when the reservation does not exist.
	Get(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error)
	// ListExpired returns unclaimed, unquarantined active reservations with expires_at <= now,
	// in (expires_at, id) order and strictly after the cursor.
	ListExpired(ctx context.Context, now time.Time, after model.ExpiryCursor, limit int) ([]model.Reservation, error)
	// Claim reports whether the caller won the right to move id to target.
	Claim(ctx context.Context, id string, target constant.ReservationStatus, now time.Time) (bool, error)
	Finalize(ctx context.Context, id string, now time.Time) error
	ReleaseClaim(ctx context.Context, id string, now time.Time) error
	Quarantine(ctx context.Context, id string, now time.Time) error
	ListQuarantined(ctx context.Context, limit int) ([]model.Reservation, error)
}

type SQL struct {
	conn *sqlx.DB
}

func NewReservationRepository(conn *sqlx.DB) ReservationRepository {
	return &SQL{conn: conn}
}

const (
	reservationColumns = `id, reference_id, product_id, warehouse_id, quantity, status, pending_status, quarantined, created_at, expires_at, updated_at`

	insertReservationQuery = `INSERT INTO stock_reservation (` + reservationColumns + `)
VALUES (:id, :reference_id, :product_id, :warehouse_id, :quantity, :status, :pending_status, :quarantined, :created_at, :expires_at, :updated_at)`

	getReservationQuery = `SELECT ` + reservationColumns + ` FROM stock_reservation WHERE id = ?`

	listExpiredQuery = `SELECT ` + reservationColumns + ` FROM stock_reservation
WHERE status = ? AND expires_at <= ? AND pending_status = '' AND quarantined = 0
AND (expires_at > ? OR (expires_at = ? AND id > ?))
ORDER BY expires_at, id LIMIT ?`

	claimReservationQuery = `UPDATE stock_reservation SET pending_status = ?, updated_at = ?
WHERE id = ? AND status = ? AND pending_status = '' AND quarantined = 0`

	finalizeReservationQuery = `UPDATE stock_reservation SET status = pending_status, pending_status = '', updated_at = ?
WHERE id = ? AND status = ? AND pending_status <> ''`

	releaseClaimQuery = `UPDATE stock_reservation SET pending_status = '', updated_at = ? WHERE id = ? AND status = ?`

	quarantineReservationQuery = `UPDATE stock_reservation SET quarantined = 1, pending_status = '', updated_at = ? WHERE id = ?`

	listQuarantinedQuery = `SELECT ` + reservationColumns + ` FROM stock_reservation
WHERE quarantined = 1 ORDER BY updated_at DESC LIMIT ?`
)

func (r *SQL) Insert(ctx context.Context, res *model.Reservation) error {
	if _, err := r.conn.NamedExecContext(ctx, insertReservationQuery, res); err != nil {
		return fmt.Errorf("insert stock_reservation: %w", err)
	}
	return nil
}

func (r *SQL) Get(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.conn.GetContext(ctx, &res, getReservationQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock_reservation: %w", err)
	}
	return &res, nil
}

func (r *SQL) List(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error) {
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if filter.ProductID != "" {
		conds = append(conds, "product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.WarehouseID != "" {
		conds = append(conds, "warehouse_id = ?")
		args = append(args, filter.WarehouseID)
	}
	if filter.ReferenceID != "" {
		conds = append(conds, "reference_id = ?")
		args = append(args, filter.ReferenceID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	q := `SELECT ` + reservationColumns + ` FROM stock_reservation`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, listLimit(filter.Limit))

	out := make([]model.Reservation, 0)
	if err := r.conn.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list stock_reservation: %w", err)
	}
	return out, nil
}

func (r *SQL) ListExpired(ctx context.Context, now time.Time, after model.ExpiryCursor, limit int) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	from := after.ExpiresAt.UTC()
	if err := r.conn.SelectContext(ctx, &out, listExpiredQuery, constant.ReservationStatusActive, now.UTC(),
		from, from, after.ID, listLimit(limit)); err != nil {
		return nil, fmt.Errorf("list expired stock_reservation: %w", err)
	}
	return out, nil
}

func (r *SQL) Claim(ctx context.Context, id string, target constant.ReservationStatus, now time.Time) (bool, error) {
	res, err := r.conn.ExecContext(ctx, claimReservationQuery, target, now.UTC(), id, constant.ReservationStatusActive)
	if err != nil {
		return false, fmt.Errorf("claim stock_reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQL) Finalize(ctx context.Context, id string, now time.Time) error {
	res, err := r.conn.ExecContext(ctx, finalizeReservationQuery, now.UTC(), id, constant.ReservationStatusActive)
	if err != nil {
		return fmt.Errorf("finalize stock_reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finalize stock_reservation %s: no pending transition", id)
	}
	return nil
}

func (r *SQL) ReleaseClaim(ctx context.Context, id string, now time.Time) error {
	if _, err := r.conn.ExecContext(ctx, releaseClaimQuery, now.UTC(), id, constant.ReservationStatusActive); err != nil {
		return fmt.Errorf("release claim stock_reservation: %w", err)
	}
	return nil
}

func (r *SQL) Quarantine(ctx context.Context, id string, now time.Time) error {
	if _, err := r.conn.ExecContext(ctx, quarantineReservationQuery, now.UTC(), id); err != nil {
		return fmt.Errorf("quarantine stock_reservation: %w", err)
	}
	return nil
}

func (r *SQL) ListQuarantined(ctx context.Context, limit int) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	if err := r.conn.SelectContext(ctx, &out, listQuarantinedQuery, listLimit(limit)); err != nil {
		return nil, fmt.Errorf("list quarantined stock_reservation: %w", err)
	}
	return out, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
