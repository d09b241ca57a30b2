package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	redisrepo "github.com/muhammadheryan/stock-reservation/repository/redis"
	reservationrepo "github.com/muhammadheryan/stock-reservation/repository/reservation"
	stockrepo "github.com/muhammadheryan/stock-reservation/repository/stock"
	warehouserepo "github.com/muhammadheryan/stock-reservation/repository/warehouse"
	utilsContext "github.com/muhammadheryan/stock-reservation/utils/context"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/metrics"
	"github.com/muhammadheryan/stock-reservation/utils/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ReservationApp interface {
	CreateReservation(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error)
	CommitReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
	ReleaseReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
	// ExpireReservation releases an active reservation whose hold has lapsed.
	ExpireReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
	ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error)
	ListQuarantined(ctx context.Context, limit int) ([]model.Reservation, error)
}

type ExpirationPublisher interface {
	PublishReservationExpiration(ctx context.Context, msg model.ReservationExpirationMessage) error
}

// Alerter is the operator facing channel for ledger divergence.
type Alerter interface {
	PublishInvalidState(ctx context.Context, alert model.InvalidStateAlert) error
}

type Option func(*reservationAppImpl)

func WithClock(now func() time.Time) Option {
	return func(s *reservationAppImpl) { s.now = now }
}

func WithExpirationPublisher(p ExpirationPublisher) Option {
	return func(s *reservationAppImpl) { s.publisher = p }
}

func WithAlerter(a Alerter) Option {
	return func(s *reservationAppImpl) { s.alerter = a }
}

type reservationAppImpl struct {
	holdDuration    time.Duration
	ledger          stockrepo.StockLedger
	reservationRepo reservationrepo.ReservationRepository
	warehouseRepo   warehouserepo.WarehouseRepository
	cacheRepo       redisrepo.Repository
	publisher       ExpirationPublisher
	alerter         Alerter
	now             func() time.Time
}

func NewReservationApp(holdDuration time.Duration, ledger stockrepo.StockLedger, reservationRepo reservationrepo.ReservationRepository, warehouseRepo warehouserepo.WarehouseRepository, cacheRepo redisrepo.Repository, opts ...Option) ReservationApp {
	if holdDuration <= 0 {
		holdDuration = constant.DefaultHoldDuration
	}
	s := &reservationAppImpl{
		holdDuration:    holdDuration,
		ledger:          ledger,
		reservationRepo: reservationRepo,
		warehouseRepo:   warehouseRepo,
		cacheRepo:       cacheRepo,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	opCreate  = "create"
	opCommit  = "commit"
	opRelease = "release"
	opExpire  = "expire"
)

func (s *reservationAppImpl) CreateReservation(ctx context.Context, req *model.ReservationRequest) (res *model.Reservation, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "reservation.Create", trace.WithAttributes(
		attribute.String("product_id", req.ProductID),
		attribute.String("warehouse_id", req.WarehouseID),
		attribute.Int64("quantity", req.Quantity),
	))
	defer func() { finish(span, opCreate, err) }()
	if caller, ok := utilsContext.GetCaller(ctx); ok {
		span.SetAttributes(attribute.String("caller", caller))
	}

	if req.ProductID == "" || req.WarehouseID == "" || req.Quantity <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	warehouse, err := s.warehouseRepo.GetWarehouseByID(ctx, req.WarehouseID)
	if err != nil {
		logger.Error("[CreateReservation] get warehouse", zap.String("warehouse_id", req.WarehouseID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if warehouse == nil {
		return nil, errors.SetCustomError(constant.ErrWarehouseNotFound)
	}
	if warehouse.Status != constant.WarehouseStatusActive {
		return nil, errors.SetCustomError(constant.ErrWarehouseInactive)
	}

	// an unknown-outcome error here leaves the units held without a reservation, never the reverse
	if _, err := s.ledger.Reserve(ctx, req.ProductID, req.WarehouseID, req.Quantity); err != nil {
		if businessError(err) {
			logger.Info("[CreateReservation] reserve rejected",
				zap.String("product_id", req.ProductID), zap.String("warehouse_id", req.WarehouseID),
				zap.Int64("quantity", req.Quantity), zap.String("reason", err.Error()))
			return nil, err
		}
		logger.Error("[CreateReservation] reserve stock", zap.String("product_id", req.ProductID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	now := s.now().UTC()
	res = &model.Reservation{
		ID:          uuid.NewString(),
		ReferenceID: req.ReferenceID,
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Status:      constant.ReservationStatusActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.holdDuration),
		UpdatedAt:   now,
	}
	if err := s.reservationRepo.Insert(ctx, res); err != nil {
		logger.Error("[CreateReservation] insert reservation", zap.String("reservation_id", res.ID), zap.String("error", err.Error()))
		// give the units back; if this fails too the stock stays held until reconciled
		if _, rerr := s.ledger.Release(ctx, req.ProductID, req.WarehouseID, req.Quantity); rerr != nil {
			logger.Error("[CreateReservation] compensate reserve",
				zap.String("product_id", req.ProductID), zap.String("warehouse_id", req.WarehouseID),
				zap.Int64("quantity", req.Quantity), zap.String("error", rerr.Error()))
		}
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	metrics.ReservedUnits.Add(float64(req.Quantity))
	span.SetAttributes(attribute.String("reservation_id", res.ID))

	s.invalidateAvailability(ctx, res.ProductID)

	if s.publisher != nil {
		msg := model.ReservationExpirationMessage{ReservationID: res.ID, ExpiresAt: res.ExpiresAt}
		if err := s.publisher.PublishReservationExpiration(ctx, msg); err != nil {
			logger.Error("[CreateReservation] publish reservation expiration", zap.String("reservation_id", res.ID), zap.String("error", err.Error()))
		}
	}

	return res, nil
}

func (s *reservationAppImpl) CommitReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.transition(ctx, opCommit, reservationID, constant.ReservationStatusCommitted, s.ledger.Commit)
}

func (s *reservationAppImpl) ReleaseReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.transition(ctx, opRelease, reservationID, constant.ReservationStatusReleased, s.ledger.Release)
}

func (s *reservationAppImpl) ExpireReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.transition(ctx, opExpire, reservationID, constant.ReservationStatusExpired, s.ledger.Release)
}

type ledgerFunc func(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error)

// transition moves an active reservation to target. The ledger is touched only by the caller
// holding the claim, and always before the status is persisted.
func (s *reservationAppImpl) transition(ctx context.Context, op, reservationID string, target constant.ReservationStatus, apply ledgerFunc) (res *model.Reservation, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "reservation."+op, trace.WithAttributes(attribute.String("reservation_id", reservationID)))
	defer func() { finish(span, op, err) }()
	if caller, ok := utilsContext.GetCaller(ctx); ok {
		span.SetAttributes(attribute.String("caller", caller))
	}

	tag := "[" + opName(op) + "]"
	res, err = s.reservationRepo.Get(ctx, reservationID)
	if err != nil {
		logger.Error(tag+" get reservation", zap.String("reservation_id", reservationID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if res == nil {
		return nil, errors.SetCustomError(constant.ErrReservationNotFound)
	}
	if err := transitionBlocked(res); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if target == constant.ReservationStatusExpired && !res.Expired(now) {
		return nil, errors.SetCustomError(constant.ErrReservationNotExpired)
	}

	claimed, err := s.reservationRepo.Claim(ctx, res.ID, target, now)
	if err != nil {
		logger.Error(tag+" claim reservation", zap.String("reservation_id", res.ID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if !claimed {
		// lost the race; report what the winner left behind
		latest, gerr := s.reservationRepo.Get(ctx, res.ID)
		if gerr == nil && latest != nil && latest.Quarantined {
			return nil, errors.SetCustomError(constant.ErrInvalidState)
		}
		return nil, errors.SetCustomError(constant.ErrReservationAlreadyTerminal)
	}

	if ctx.Err() != nil {
		// the ledger was never called, so the claim can go back
		s.releaseClaim(context.WithoutCancel(ctx), tag, res.ID, now)
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if _, err := apply(ctx, res.ProductID, res.WarehouseID, res.Quantity); err != nil {
		switch {
		case errors.IsType(err, constant.ErrInvalidState) || errors.IsType(err, constant.ErrProductNotStocked):
			s.quarantine(ctx, op, res, err)
			return nil, errors.SetCustomError(constant.ErrInvalidState)
		case errors.IsType(err, constant.ErrInvalidRequest):
			s.releaseClaim(ctx, tag, res.ID, now)
		default:
			// the write may have landed before the error; a second attempt could apply it twice,
			// so the claim stays pending until reconciled
			logger.Error(tag+" ledger outcome unknown, claim left pending",
				zap.String("reservation_id", res.ID), zap.String("status", string(target)),
				zap.String("product_id", res.ProductID), zap.String("warehouse_id", res.WarehouseID),
				zap.Int64("quantity", res.Quantity), zap.String("error", err.Error()))
		}
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.reservationRepo.Finalize(ctx, res.ID, now); err != nil {
		// ledger already applied; the claim stays pending so nothing touches the ledger again
		logger.Error(tag+" finalize reservation",
			zap.String("reservation_id", res.ID), zap.String("status", string(target)), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	s.invalidateAvailability(ctx, res.ProductID)

	res.Status = target
	res.PendingStatus = ""
	res.UpdatedAt = now
	return res, nil
}

func (s *reservationAppImpl) releaseClaim(ctx context.Context, tag, reservationID string, now time.Time) {
	if err := s.reservationRepo.ReleaseClaim(ctx, reservationID, now); err != nil {
		logger.Error(tag+" release claim", zap.String("reservation_id", reservationID), zap.String("error", err.Error()))
	}
}

func transitionBlocked(res *model.Reservation) error {
	if res.Quarantined {
		return errors.SetCustomError(constant.ErrInvalidState)
	}
	if res.Status != constant.ReservationStatusActive || res.PendingStatus != "" {
		return errors.SetCustomError(constant.ErrReservationAlreadyTerminal)
	}
	return nil
}

// quarantine takes a diverged reservation out of automated processing and reports it.
func (s *reservationAppImpl) quarantine(ctx context.Context, op string, res *model.Reservation, cause error) {
	now := s.now().UTC()
	metrics.InvalidState.Inc()
	logger.Error("["+opName(op)+"] ledger diverged from reservation",
		zap.String("reservation_id", res.ID), zap.String("product_id", res.ProductID),
		zap.String("warehouse_id", res.WarehouseID), zap.Int64("quantity", res.Quantity),
		zap.String("error", cause.Error()))

	if err := s.reservationRepo.Quarantine(ctx, res.ID, now); err != nil {
		logger.Error("["+opName(op)+"] quarantine reservation", zap.String("reservation_id", res.ID), zap.String("error", err.Error()))
	}
	if s.alerter == nil {
		return
	}
	alert := model.InvalidStateAlert{
		ReservationID: res.ID,
		ProductID:     res.ProductID,
		WarehouseID:   res.WarehouseID,
		Quantity:      res.Quantity,
		Operation:     op,
		Reason:        cause.Error(),
		DetectedAt:    now,
	}
	if err := s.alerter.PublishInvalidState(ctx, alert); err != nil {
		logger.Error("["+opName(op)+"] publish invalid state alert", zap.String("reservation_id", res.ID), zap.String("error", err.Error()))
	}
}

func (s *reservationAppImpl) GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	res, err := s.reservationRepo.Get(ctx, reservationID)
	if err != nil {
		logger.Error("[GetReservation] get reservation", zap.String("reservation_id", reservationID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if res == nil {
		return nil, errors.SetCustomError(constant.ErrReservationNotFound)
	}
	return res, nil
}

func (s *reservationAppImpl) ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	list, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		logger.Error("[ListReservations] list reservations", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return list, nil
}

func (s *reservationAppImpl) ListQuarantined(ctx context.Context, limit int) ([]model.Reservation, error) {
	list, err := s.reservationRepo.ListQuarantined(ctx, limit)
	if err != nil {
		logger.Error("[ListQuarantined] list quarantined", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return list, nil
}

func (s *reservationAppImpl) invalidateAvailability(ctx context.Context, productID string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.DeleteAvailability(ctx, productID); err != nil {
		logger.Warn("[InvalidateAvailability] delete cached availability", zap.String("product_id", productID), zap.String("error", err.Error()))
	}
}

// businessError reports whether err is an expected rejection that goes back to the caller as is.
func businessError(err error) bool {
	return errors.IsType(err, constant.ErrInsufficientStock) ||
		errors.IsType(err, constant.ErrProductNotStocked) ||
		errors.IsType(err, constant.ErrInvalidRequest)
}

func finish(span trace.Span, op string, err error) {
	defer span.End()
	switch {
	case err == nil:
		metrics.ReservationOps.WithLabelValues(op, metrics.OutcomeOK).Inc()
	case errors.IsType(err, constant.ErrInternal) || errors.IsType(err, constant.ErrInvalidState):
		metrics.ReservationOps.WithLabelValues(op, metrics.OutcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		metrics.ReservationOps.WithLabelValues(op, metrics.OutcomeRejected).Inc()
		span.SetAttributes(attribute.String("rejected", err.Error()))
	}
}

func opName(op string) string {
	switch op {
	case opCommit:
		return "CommitReservation"
	case opRelease:
		return "ReleaseReservation"
	case opExpire:
		return "ExpireReservation"
	default:
		return "CreateReservation"
	}
}
