package transport_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	availabilitymocks "github.com/muhammadheryan/stock-reservation/mocks/application/availability"
	reservationmocks "github.com/muhammadheryan/stock-reservation/mocks/application/reservation"
	sweepermocks "github.com/muhammadheryan/stock-reservation/mocks/application/sweeper"
	warehousemocks "github.com/muhammadheryan/stock-reservation/mocks/application/warehouse"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/transport"
	cerr "github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	jwtSecret = "test-secret"
	apiKey    = "internal-key"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

type handlers struct {
	reservation  *reservationmocks.ReservationApp
	availability *availabilitymocks.AvailabilityApp
	warehouse    *warehousemocks.WarehouseApp
	sweeper      *sweepermocks.Sweeper
}

func newServer(t *testing.T) (http.Handler, handlers) {
	h := handlers{
		reservation:  reservationmocks.NewReservationApp(t),
		availability: availabilitymocks.NewAvailabilityApp(t),
		warehouse:    warehousemocks.NewWarehouseApp(t),
		sweeper:      sweepermocks.NewSweeper(t),
	}
	srv := transport.NewTransport(transport.AuthConfig{JWTSecret: jwtSecret, InternalAPIKey: apiKey}, &transport.RestHandler{
		ReservationApp:  h.reservation,
		AvailabilityApp: h.availability,
		WarehouseApp:    h.warehouse,
		Sweeper:         h.sweeper,
	})
	return srv, h
}

func bearer(t *testing.T) string {
	tok, err := token.Issue(jwtSecret, "checkout", time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(srv http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) transport.Response {
	var resp transport.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateReservation(t *testing.T) {
	reqBody := model.ReservationRequest{ProductID: "p-1", WarehouseID: "WH-001", Quantity: 2}
	tests := []struct {
		name       string
		auth       func(t *testing.T) string
		body       interface{}
		mockCall   func(h handlers)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			auth: bearer,
			body: reqBody,
			mockCall: func(h handlers) {
				h.reservation.On("CreateReservation", mock.Anything, &reqBody).
					Return(&model.Reservation{ID: "r-1", Status: constant.ReservationStatusActive}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantCode:   constant.ErrorTypeCode[constant.Successful],
		},
		{
			name:       "missing token",
			auth:       func(t *testing.T) string { return "" },
			body:       reqBody,
			wantStatus: http.StatusUnauthorized,
			wantCode:   constant.ErrorTypeCode[constant.ErrUnauthorize],
		},
		{
			name:       "token signed with another secret",
			auth:       func(t *testing.T) string { tok, _ := token.Issue("other", "x", time.Hour, time.Now()); return "Bearer " + tok },
			body:       reqBody,
			wantStatus: http.StatusUnauthorized,
			wantCode:   constant.ErrorTypeCode[constant.ErrUnauthorize],
		},
		{
			name:       "zero quantity fails validation",
			auth:       bearer,
			body:       model.ReservationRequest{ProductID: "p-1", WarehouseID: "WH-001"},
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrorTypeCode[constant.ErrInvalidRequest],
		},
		{
			name: "insufficient stock maps to conflict",
			auth: bearer,
			body: reqBody,
			mockCall: func(h handlers) {
				h.reservation.On("CreateReservation", mock.Anything, &reqBody).
					Return(nil, cerr.SetCustomError(constant.ErrInsufficientStock)).Once()
			},
			wantStatus: http.StatusConflict,
			wantCode:   constant.ErrorTypeCode[constant.ErrInsufficientStock],
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv, h := newServer(t)
			if tt.mockCall != nil {
				tt.mockCall(h)
			}
			rec := do(srv, http.MethodPost, "/v1/reservations", tt.auth(t), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Code)
		})
	}
}

func TestReservationTransitions(t *testing.T) {
	srv, h := newServer(t)
	h.reservation.On("CommitReservation", mock.Anything, "r-1").
		Return(&model.Reservation{ID: "r-1", Status: constant.ReservationStatusCommitted}, nil).Once()
	h.reservation.On("ReleaseReservation", mock.Anything, "r-1").
		Return(nil, cerr.SetCustomError(constant.ErrReservationAlreadyTerminal)).Once()
	h.reservation.On("GetReservation", mock.Anything, "r-404").
		Return(nil, cerr.SetCustomError(constant.ErrReservationNotFound)).Once()

	rec := do(srv, http.MethodPost, "/v1/reservations/r-1/commit", bearer(t), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodPost, "/v1/reservations/r-1/release", bearer(t), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, constant.ErrorTypeCode[constant.ErrReservationAlreadyTerminal], decode(t, rec).Code)

	rec = do(srv, http.MethodGet, "/v1/reservations/r-404", bearer(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAvailability(t *testing.T) {
	srv, h := newServer(t)
	h.availability.On("GetAvailability", mock.Anything, "p-1").Return(&model.Availability{
		ProductID:      "p-1",
		TotalAvailable: 15,
		PerWarehouse:   []model.WarehouseAvailability{{WarehouseID: "WH-001", Available: 5}, {WarehouseID: "WH-002", Available: 10}},
	}, nil).Once()

	rec := do(srv, http.MethodGet, "/v1/products/p-1/availability", bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data model.Availability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(15), body.Data.TotalAvailable)
	assert.Len(t, body.Data.PerWarehouse, 2)
}

func TestInternalRoutes(t *testing.T) {
	t.Run("rejects a missing api key", func(t *testing.T) {
		srv, _ := newServer(t)
		rec := do(srv, http.MethodPost, "/internal/v1/sweep", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a checkout jwt", func(t *testing.T) {
		srv, _ := newServer(t)
		rec := do(srv, http.MethodPost, "/internal/v1/sweep", bearer(t), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sweep on demand", func(t *testing.T) {
		srv, h := newServer(t)
		h.sweeper.On("SweepOnce", mock.Anything).Return(&model.SweepResult{Scanned: 2, Expired: 2}, nil).Once()
		rec := do(srv, http.MethodPost, "/internal/v1/sweep", "Bearer "+apiKey, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stock intake", func(t *testing.T) {
		srv, h := newServer(t)
		body := model.RegisterStockRequest{ProductID: "p-1", WarehouseID: "WH-001", Quantity: 5}
		h.warehouse.On("RegisterStock", mock.Anything, &body).
			Return(&model.StockRecord{ProductID: "p-1", WarehouseID: "WH-001", Available: 5, Total: 5}, nil).Once()
		rec := do(srv, http.MethodPost, "/internal/v1/stock", "Bearer "+apiKey, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deactivate with reserved stock", func(t *testing.T) {
		srv, h := newServer(t)
		h.warehouse.On("DeactivateWarehouse", mock.Anything, "WH-001").
			Return(cerr.SetCustomError(constant.ErrWarehouseHasReservedStock)).Once()
		rec := do(srv, http.MethodPost, "/internal/v1/warehouses/WH-001/deactivate", "Bearer "+apiKey, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("list reservations with filter", func(t *testing.T) {
		srv, h := newServer(t)
		h.reservation.On("ListReservations", mock.Anything, model.ReservationFilter{
			ProductID: "p-1", Status: constant.ReservationStatusActive, Limit: 20,
		}).Return([]model.Reservation{}, nil).Once()
		rec := do(srv, http.MethodGet, "/internal/v1/reservations?product_id=p-1&status=active&limit=20", "Bearer "+apiKey, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list reservations with unknown status", func(t *testing.T) {
		srv, _ := newServer(t)
		rec := do(srv, http.MethodGet, "/internal/v1/reservations?status=pending", "Bearer "+apiKey, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("quarantined reservations", func(t *testing.T) {
		srv, h := newServer(t)
		h.reservation.On("ListQuarantined", mock.Anything, 0).Return([]model.Reservation{}, nil).Once()
		rec := do(srv, http.MethodGet, "/internal/v1/reservations/quarantined", "Bearer "+apiKey, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPublicRoutes(t *testing.T) {
	srv, _ := newServer(t)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/metrics", "", nil).Code)
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := newServer(t)

	rec := do(srv, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
