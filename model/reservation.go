package model

import (
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
)

type Reservation struct {
	ID            string                     `db:"id" json:"id"`
	ReferenceID   string                     `db:"reference_id" json:"reference_id,omitempty"`
	ProductID     string                     `db:"product_id" json:"product_id"`
	WarehouseID   string                     `db:"warehouse_id" json:"warehouse_id"`
	Quantity      int64                      `db:"quantity" json:"quantity"`
	Status        constant.ReservationStatus `db:"status" json:"status"`
	PendingStatus constant.ReservationStatus `db:"pending_status" json:"pending_status,omitempty"`
	Quarantined   bool                       `db:"quarantined" json:"quarantined,omitempty"`
	CreatedAt     time.Time                  `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time                  `db:"expires_at" json:"expires_at"`
	UpdatedAt     time.Time                  `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the hold has lapsed at now.
func (r *Reservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// ExpiryCursor is a position in (expires_at, id) order. The zero value starts at the oldest.
type ExpiryCursor struct {
	ExpiresAt time.Time
	ID        string
}

// Cursor returns the position just after r.
func (r *Reservation) Cursor() ExpiryCursor {
	return ExpiryCursor{ExpiresAt: r.ExpiresAt, ID: r.ID}
}

// Precedes reports whether r sorts after the cursor.
func (c ExpiryCursor) Precedes(r *Reservation) bool {
	if r.ExpiresAt.Equal(c.ExpiresAt) {
		return r.ID > c.ID
	}
	return r.ExpiresAt.After(c.ExpiresAt)
}

type ReservationRequest struct {
	ProductID   string `json:"product_id" validate:"required,max=64,stock_key"`
	WarehouseID string `json:"warehouse_id" validate:"required,max=64,stock_key"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	ReferenceID string `json:"reference_id" validate:"max=128"`
}

type ReservationFilter struct {
	ProductID   string
	WarehouseID string
	ReferenceID string
	Status      constant.ReservationStatus
	Limit       int
}

type SweepResult struct {
	Scanned  int           `json:"scanned"`
	Expired  int           `json:"expired"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// ReservationQuery is the query string accepted by the internal listing endpoint.
type ReservationQuery struct {
	ProductID   string `validate:"max=64"`
	WarehouseID string `validate:"max=64"`
	ReferenceID string `validate:"max=128"`
	Status      string `validate:"omitempty,reservation_status"`
	Limit       int    `validate:"gte=0,lte=1000"`
}

// ReservationExpirationMessage schedules a delayed expiry attempt for one reservation.
type ReservationExpirationMessage struct {
	ReservationID string    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// InvalidStateAlert reports a reservation whose ledger transition was rejected.
type InvalidStateAlert struct {
	ReservationID string    `json:"reservation_id"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Quantity      int64     `json:"quantity"`
	Operation     string    `json:"operation"`
	Reason        string    `json:"reason"`
	DetectedAt    time.Time `json:"detected_at"`
}
