package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	validatorx "github.com/muhammadheryan/stock-reservation/utils/validator"
)

// RegisterStock handler
// @Summary Receive stock
// @Description Adds received units to a warehouse, creating the stock record when needed
// @Tags Internal
// @Accept json
// @Produce json
// @Security InternalKey
// @Param request body model.RegisterStockRequest true "Stock intake"
// @Success 200 {object} model.StockRecord
// @Router /internal/v1/stock [post]
func (s *RestHandler) RegisterStock(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if s.WarehouseApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	rec, err := s.WarehouseApp.RegisterStock(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, rec)
}

// CreateWarehouse handler
// @Summary Create warehouse
// @Tags Internal
// @Accept json
// @Produce json
// @Security InternalKey
// @Param request body model.CreateWarehouseRequest true "Warehouse"
// @Success 200 {object} model.Warehouse
// @Router /internal/v1/warehouses [post]
func (s *RestHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req model.CreateWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if s.WarehouseApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	wh, err := s.WarehouseApp.CreateWarehouse(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, wh)
}

// ListWarehouses handler
// @Summary List warehouses
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Success 200 {array} model.Warehouse
// @Router /internal/v1/warehouses [get]
func (s *RestHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	if s.WarehouseApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}
	list, err := s.WarehouseApp.ListWarehouses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, list)
}

// ActivateWarehouse handler
// @Summary Activate warehouse
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Param id path string true "Warehouse ID"
// @Success 200 {object} Response
// @Router /internal/v1/warehouses/{id}/activate [post]
func (s *RestHandler) ActivateWarehouse(w http.ResponseWriter, r *http.Request) {
	if s.WarehouseApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}
	if err := s.WarehouseApp.ActivateWarehouse(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, nil)
}

// DeactivateWarehouse handler
// @Summary Deactivate warehouse
// @Description Refused while the warehouse still holds reserved units
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Param id path string true "Warehouse ID"
// @Success 200 {object} Response
// @Failure 409 {object} Response
// @Router /internal/v1/warehouses/{id}/deactivate [post]
func (s *RestHandler) DeactivateWarehouse(w http.ResponseWriter, r *http.Request) {
	if s.WarehouseApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}
	if err := s.WarehouseApp.DeactivateWarehouse(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, nil)
}

// Sweep handler
// @Summary Run one expiry sweep
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Success 200 {object} model.SweepResult
// @Router /internal/v1/sweep [post]
func (s *RestHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if s.Sweeper == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}
	res, err := s.Sweeper.SweepOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, res)
}

// ListReservations handler
// @Summary List reservations
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Param product_id query string false "Product ID"
// @Param warehouse_id query string false "Warehouse ID"
// @Param reference_id query string false "Caller reference"
// @Param status query string false "active, committed, released or expired"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} model.Reservation
// @Router /internal/v1/reservations [get]
func (s *RestHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := model.ReservationQuery{
		ProductID:   q.Get("product_id"),
		WarehouseID: q.Get("warehouse_id"),
		ReferenceID: q.Get("reference_id"),
		Status:      q.Get("status"),
	}
	limit, ok := parseLimit(q.Get("limit"))
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	query.Limit = limit
	if err := validatorx.ValidateStruct(&query); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	list, err := s.ReservationApp.ListReservations(r.Context(), model.ReservationFilter{
		ProductID:   query.ProductID,
		WarehouseID: query.WarehouseID,
		ReferenceID: query.ReferenceID,
		Status:      constant.ReservationStatus(query.Status),
		Limit:       query.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, list)
}

// ListQuarantined handler
// @Summary List quarantined reservations
// @Description Reservations whose ledger transition was rejected, pending manual reconciliation
// @Tags Internal
// @Produce json
// @Security InternalKey
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} model.Reservation
// @Router /internal/v1/reservations/quarantined [get]
func (s *RestHandler) ListQuarantined(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}
	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}
	list, err := s.ReservationApp.ListQuarantined(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, list)
}

func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 1000 {
		return 0, false
	}
	return n, true
}
