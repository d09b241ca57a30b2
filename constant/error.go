package constant

import "net/http"

type ErrorType int

const (
	Successful ErrorType = iota
	ErrInternal
	ErrNotFound
	ErrInvalidRequest
	ErrUnauthorize
	ErrInsufficientStock
	ErrReservationNotFound
	ErrReservationAlreadyTerminal
	ErrReservationNotExpired
	ErrWarehouseNotFound
	ErrWarehouseInactive
	ErrWarehouseHasReservedStock
	ErrProductNotStocked
	ErrInvalidState
)

var ErrorTypeMessage = map[ErrorType]string{
	Successful:                    "success",
	ErrInternal:                   "error internal",
	ErrNotFound:                   "data not found",
	ErrInvalidRequest:             "invalid request",
	ErrUnauthorize:                "unauthorize request",
	ErrInsufficientStock:          "insufficient stock",
	ErrReservationNotFound:        "reservation not found",
	ErrReservationAlreadyTerminal: "reservation already terminal",
	ErrReservationNotExpired:      "reservation not expired yet",
	ErrWarehouseNotFound:          "warehouse not found",
	ErrWarehouseInactive:          "warehouse inactive",
	ErrWarehouseHasReservedStock:  "warehouse still has reserved stock",
	ErrProductNotStocked:          "product not stocked at warehouse",
	ErrInvalidState:               "stock ledger and reservation diverged",
}

var ErrorTypeHTTPCode = map[ErrorType]int{
	Successful:                    http.StatusOK,
	ErrInternal:                   http.StatusInternalServerError,
	ErrNotFound:                   http.StatusNotFound,
	ErrInvalidRequest:             http.StatusBadRequest,
	ErrUnauthorize:                http.StatusUnauthorized,
	ErrInsufficientStock:          http.StatusConflict,
	ErrReservationNotFound:        http.StatusNotFound,
	ErrReservationAlreadyTerminal: http.StatusConflict,
	ErrReservationNotExpired:      http.StatusConflict,
	ErrWarehouseNotFound:          http.StatusNotFound,
	ErrWarehouseInactive:          http.StatusConflict,
	ErrWarehouseHasReservedStock:  http.StatusConflict,
	ErrProductNotStocked:          http.StatusNotFound,
	ErrInvalidState:               http.StatusInternalServerError,
}

var ErrorTypeCode = map[ErrorType]string{
	Successful:                    "0000",
	ErrInternal:                   "0001",
	ErrNotFound:                   "0002",
	ErrInvalidRequest:             "0003",
	ErrUnauthorize:                "0004",
	ErrInsufficientStock:          "1001",
	ErrReservationNotFound:        "1002",
	ErrReservationAlreadyTerminal: "1003",
	ErrReservationNotExpired:      "1004",
	ErrWarehouseNotFound:          "1101",
	ErrWarehouseInactive:          "1102",
	ErrWarehouseHasReservedStock:  "1103",
	ErrProductNotStocked:          "1104",
	ErrInvalidState:               "1900",
}
