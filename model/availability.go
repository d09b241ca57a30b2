package model

type WarehouseAvailability struct {
	WarehouseID string `json:"warehouse_id"`
	Available   int64  `json:"available"`
}

type Availability struct {
	ProductID      string                  `json:"product_id"`
	TotalAvailable int64                   `json:"total_available"`
	PerWarehouse   []WarehouseAvailability `json:"per_warehouse"`
}
