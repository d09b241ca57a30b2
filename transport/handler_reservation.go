package transport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	validatorx "github.com/muhammadheryan/stock-reservation/utils/validator"
)

// CreateReservation handler
// @Summary Reserve stock
// @Description Holds quantity units of a product at one warehouse until committed, released or expired
// @Tags Reservation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ReservationRequest true "Reservation Request"
// @Success 200 {object} model.Reservation
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 409 {object} Response "insufficient stock or inactive warehouse"
// @Router /v1/reservations [post]
func (s *RestHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	res, err := s.ReservationApp.CreateReservation(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetReservation handler
// @Summary Get reservation
// @Description Callers that timed out should check the status here before retrying a reservation
// @Tags Reservation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} model.Reservation
// @Failure 404 {object} Response
// @Router /v1/reservations/{id} [get]
func (s *RestHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	res, err := s.ReservationApp.GetReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// CommitReservation handler
// @Summary Commit reservation
// @Description Called on payment success; the held units leave inventory
// @Tags Reservation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} model.Reservation
// @Failure 404 {object} Response
// @Failure 409 {object} Response "reservation already terminal"
// @Failure 500 {object} Response
// @Router /v1/reservations/{id}/commit [post]
func (s *RestHandler) CommitReservation(w http.ResponseWriter, r *http.Request) {
	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	res, err := s.ReservationApp.CommitReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// ReleaseReservation handler
// @Summary Release reservation
// @Description Called on cancel or payment failure; the held units become available again
// @Tags Reservation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} model.Reservation
// @Failure 404 {object} Response
// @Failure 409 {object} Response "reservation already terminal"
// @Router /v1/reservations/{id}/release [post]
func (s *RestHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	if s.ReservationApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	res, err := s.ReservationApp.ReleaseReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetAvailability handler
// @Summary Product availability
// @Description Point-in-time sum of available units across active warehouses
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param product_id path string true "Product ID"
// @Success 200 {object} model.Availability
// @Router /v1/products/{product_id}/availability [get]
func (s *RestHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if s.AvailabilityApp == nil {
		writeError(w, errors.SetCustomError(constant.ErrInternal))
		return
	}

	res, err := s.AvailabilityApp.GetAvailability(r.Context(), mux.Vars(r)["product_id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}
