package sweeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	reservationrepo "github.com/muhammadheryan/stock-reservation/repository/reservation"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sweeper reclaims stock held by reservations whose hold has lapsed.
type Sweeper interface {
	// Run sweeps on every tick until ctx is done.
	Run(ctx context.Context) error
	SweepOnce(ctx context.Context) (*model.SweepResult, error)
}

// Expirer is the release path used for each due reservation.
type Expirer interface {
	ExpireReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
}

type sweeperImpl struct {
	interval        time.Duration
	batchSize       int
	concurrency     int
	reservationRepo reservationrepo.ReservationRepository
	expirer         Expirer
	now             func() time.Time
}

func NewSweeper(cfg config.SweeperConfig, reservationRepo reservationrepo.ReservationRepository, expirer Expirer) Sweeper {
	return newSweeper(cfg, reservationRepo, expirer, time.Now)
}

// NewSweeperWithClock is NewSweeper with an explicit time source.
func NewSweeperWithClock(cfg config.SweeperConfig, reservationRepo reservationrepo.ReservationRepository, expirer Expirer, now func() time.Time) Sweeper {
	return newSweeper(cfg, reservationRepo, expirer, now)
}

func newSweeper(cfg config.SweeperConfig, reservationRepo reservationrepo.ReservationRepository, expirer Expirer, now func() time.Time) *sweeperImpl {
	s := &sweeperImpl{
		interval:        cfg.Interval,
		batchSize:       cfg.BatchSize,
		concurrency:     cfg.Concurrency,
		reservationRepo: reservationRepo,
		expirer:         expirer,
		now:             now,
	}
	if s.interval <= 0 {
		s.interval = constant.DefaultSweepInterval
	}
	if s.batchSize <= 0 {
		s.batchSize = constant.DefaultSweepBatchSize
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	return s
}

func (s *sweeperImpl) Run(ctx context.Context) error {
	logger.Info("[Sweeper] started", zap.Duration("interval", s.interval), zap.Int("batch_size", s.batchSize))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Sweeper] stopped")
			return nil
		case <-ticker.C:
			res, err := s.SweepOnce(ctx)
			if err != nil {
				// next tick retries
				continue
			}
			if res.Scanned > 0 {
				logger.Info("[Sweeper] sweep finished",
					zap.Int("scanned", res.Scanned), zap.Int("expired", res.Expired),
					zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed),
					zap.Duration("duration", res.Duration))
			}
		}
	}
}

// SweepOnce expires every due reservation. Failures are counted and left active, so the
// next cycle picks them up again.
func (s *sweeperImpl) SweepOnce(ctx context.Context) (*model.SweepResult, error) {
	start := time.Now()
	now := s.now().UTC()
	res := &model.SweepResult{}

	var cursor model.ExpiryCursor
	for {
		batch, err := s.reservationRepo.ListExpired(ctx, now, cursor, s.batchSize)
		if err != nil {
			logger.Error("[Sweeper] list expired reservations", zap.String("error", err.Error()))
			metrics.SweepRuns.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, errors.SetCustomError(constant.ErrInternal)
		}

		s.expireBatch(ctx, batch, res)
		res.Scanned += len(batch)

		// a short batch is the tail
		if len(batch) < s.batchSize || ctx.Err() != nil {
			break
		}
		// failed records stay active; the cursor moves past them so they cannot hide later ones
		cursor = batch[len(batch)-1].Cursor()
	}

	res.Duration = time.Since(start)
	metrics.SweepRuns.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.SweepDuration.Observe(res.Duration.Seconds())
	return res, nil
}

func (s *sweeperImpl) expireBatch(ctx context.Context, batch []model.Reservation, res *model.SweepResult) {
	var expired, skipped, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range batch {
		r := batch[i]
		g.Go(func() error {
			_, err := s.expirer.ExpireReservation(gctx, r.ID)
			switch {
			case err == nil:
				atomic.AddInt64(&expired, 1)
				metrics.SweepReservations.WithLabelValues(metrics.OutcomeOK).Inc()
			case errors.IsType(err, constant.ErrReservationAlreadyTerminal),
				errors.IsType(err, constant.ErrReservationNotExpired),
				errors.IsType(err, constant.ErrReservationNotFound):
				// another transition got there first
				atomic.AddInt64(&skipped, 1)
				metrics.SweepReservations.WithLabelValues(metrics.OutcomeRejected).Inc()
			default:
				atomic.AddInt64(&failed, 1)
				metrics.SweepReservations.WithLabelValues(metrics.OutcomeError).Inc()
				logger.Error("[Sweeper] expire reservation",
					zap.String("reservation_id", r.ID), zap.String("product_id", r.ProductID),
					zap.String("warehouse_id", r.WarehouseID), zap.String("error", err.Error()))
			}
			// never fail the group: one bad record must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	res.Expired += int(expired)
	res.Skipped += int(skipped)
	res.Failed += int(failed)
}
