package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	availabilityapp "github.com/muhammadheryan/stock-reservation/application/availability"
	reservationapp "github.com/muhammadheryan/stock-reservation/application/reservation"
	"github.com/muhammadheryan/stock-reservation/application/sweeper"
	warehouseapp "github.com/muhammadheryan/stock-reservation/application/warehouse"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RestHandler struct {
	ReservationApp  reservationapp.ReservationApp
	AvailabilityApp availabilityapp.AvailabilityApp
	WarehouseApp    warehouseapp.WarehouseApp
	Sweeper         sweeper.Sweeper
}

type AuthConfig struct {
	JWTSecret      string
	InternalAPIKey string
}

func NewTransport(auth AuthConfig, rh *RestHandler) http.Handler {
	mux := mux.NewRouter()

	// Swagger UI
	mux.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	mux.HandleFunc("/healthz", rh.Health).Methods(http.MethodGet)

	// checkout callers, bearer JWT
	mux.HandleFunc("/v1/reservations", rh.CreateReservation).Methods(http.MethodPost)
	mux.HandleFunc("/v1/reservations/{id}", rh.GetReservation).Methods(http.MethodGet)
	mux.HandleFunc("/v1/reservations/{id}/commit", rh.CommitReservation).Methods(http.MethodPost)
	mux.HandleFunc("/v1/reservations/{id}/release", rh.ReleaseReservation).Methods(http.MethodPost)
	mux.HandleFunc("/v1/products/{product_id}/availability", rh.GetAvailability).Methods(http.MethodGet)

	// admin tooling and schedulers, static API key
	internal := mux.PathPrefix("/internal/v1").Subrouter()
	internal.Use(InternalMiddleware(auth.InternalAPIKey))
	internal.HandleFunc("/stock", rh.RegisterStock).Methods(http.MethodPost)
	internal.HandleFunc("/warehouses", rh.CreateWarehouse).Methods(http.MethodPost)
	internal.HandleFunc("/warehouses", rh.ListWarehouses).Methods(http.MethodGet)
	internal.HandleFunc("/warehouses/{id}/activate", rh.ActivateWarehouse).Methods(http.MethodPost)
	internal.HandleFunc("/warehouses/{id}/deactivate", rh.DeactivateWarehouse).Methods(http.MethodPost)
	internal.HandleFunc("/sweep", rh.Sweep).Methods(http.MethodPost)
	internal.HandleFunc("/reservations", rh.ListReservations).Methods(http.MethodGet)
	internal.HandleFunc("/reservations/quarantined", rh.ListQuarantined).Methods(http.MethodGet)

	// middleware
	mux.Use(LoggingMiddleware())
	mux.Use(AuthMiddleware(auth.JWTSecret))

	return mux
}

func (s *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}
