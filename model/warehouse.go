package model

import (
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
)

type Warehouse struct {
	ID        string                   `db:"id" json:"id"`
	Name      string                   `db:"name" json:"name"`
	Status    constant.WarehouseStatus `db:"status" json:"status"`
	CreatedAt time.Time                `db:"created_at" json:"created_at"`
}

type CreateWarehouseRequest struct {
	ID   string `json:"id" validate:"required,max=64,stock_key"`
	Name string `json:"name" validate:"required,max=255"`
}
