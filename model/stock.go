package model

import "time"

// StockRecord is the ledger row for one (product, warehouse) pair.
type StockRecord struct {
	ProductID   string    `db:"product_id" json:"product_id"`
	WarehouseID string    `db:"warehouse_id" json:"warehouse_id"`
	Available   int64     `db:"available" json:"available"`
	Reserved    int64     `db:"reserved" json:"reserved"`
	Total       int64     `db:"total" json:"total"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Consistent reports whether the quantity invariants hold for the record.
func (s StockRecord) Consistent() bool {
	return s.Available >= 0 && s.Reserved >= 0 && s.Available+s.Reserved <= s.Total
}

type RegisterStockRequest struct {
	ProductID   string `json:"product_id" validate:"required,max=64,stock_key"`
	WarehouseID string `json:"warehouse_id" validate:"required,max=64,stock_key"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
}
