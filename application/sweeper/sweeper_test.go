package sweeper_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	appreservation "github.com/muhammadheryan/stock-reservation/application/reservation"
	"github.com/muhammadheryan/stock-reservation/application/sweeper"
	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/constant"
	appmocks "github.com/muhammadheryan/stock-reservation/mocks/application/reservation"
	reservationmocks "github.com/muhammadheryan/stock-reservation/mocks/repository/reservation"
	"github.com/muhammadheryan/stock-reservation/model"
	reservationrepo "github.com/muhammadheryan/stock-reservation/repository/reservation"
	stockrepo "github.com/muhammadheryan/stock-reservation/repository/stock"
	warehouserepo "github.com/muhammadheryan/stock-reservation/repository/warehouse"
	cerr "github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

var (
	t0    = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	dueAt = t0.Add(-time.Minute)
	start = model.ExpiryCursor{}
)

func after(id string) model.ExpiryCursor {
	return model.ExpiryCursor{ExpiresAt: dueAt, ID: id}
}

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

func due(ids ...string) []model.Reservation {
	out := make([]model.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Reservation{ID: id, ProductID: "p-1", WarehouseID: "WH-001", Quantity: 1, Status: constant.ReservationStatusActive, ExpiresAt: dueAt})
	}
	return out
}

func TestSweeper_SweepOnce(t *testing.T) {
	type fields struct {
		reservationRepo *reservationmocks.ReservationRepository
		expirer         *appmocks.ReservationApp
	}
	tests := []struct {
		name      string
		batchSize int
		mockCall  func(f fields)
		want      model.SweepResult
		wantErr   bool
	}{
		{
			name:      "success: nothing due",
			batchSize: 10,
			mockCall: func(f fields) {
				f.reservationRepo.On("ListExpired", mock.Anything, t0, start, 10).Return([]model.Reservation{}, nil).Once()
			},
			want: model.SweepResult{},
		},
		{
			name:      "success: one failure does not stop the batch",
			batchSize: 10,
			mockCall: func(f fields) {
				f.reservationRepo.On("ListExpired", mock.Anything, t0, start, 10).Return(due("r-1", "r-2", "r-3", "r-4"), nil).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-1").Return(&model.Reservation{}, nil).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-2").Return(nil, errors.New("db error")).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-3").
					Return(nil, cerr.SetCustomError(constant.ErrReservationAlreadyTerminal)).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-4").
					Return(nil, cerr.SetCustomError(constant.ErrInvalidState)).Once()
			},
			want: model.SweepResult{Scanned: 4, Expired: 1, Skipped: 1, Failed: 2},
		},
		{
			name:      "success: full batches are drained",
			batchSize: 2,
			mockCall: func(f fields) {
				f.reservationRepo.On("ListExpired", mock.Anything, t0, start, 2).Return(due("r-1", "r-2"), nil).Once()
				f.reservationRepo.On("ListExpired", mock.Anything, t0, after("r-2"), 2).Return(due("r-3"), nil).Once()
				for _, id := range []string{"r-1", "r-2", "r-3"} {
					f.expirer.On("ExpireReservation", mock.Anything, id).Return(&model.Reservation{}, nil).Once()
				}
			},
			want: model.SweepResult{Scanned: 3, Expired: 3},
		},
		{
			name:      "success: a full batch of failures does not hide later records",
			batchSize: 2,
			mockCall: func(f fields) {
				f.reservationRepo.On("ListExpired", mock.Anything, t0, start, 2).Return(due("r-1", "r-2"), nil).Once()
				f.reservationRepo.On("ListExpired", mock.Anything, t0, after("r-2"), 2).Return(due("r-3"), nil).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-1").Return(nil, errors.New("db error")).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-2").Return(nil, errors.New("db error")).Once()
				f.expirer.On("ExpireReservation", mock.Anything, "r-3").Return(&model.Reservation{}, nil).Once()
			},
			want: model.SweepResult{Scanned: 3, Expired: 1, Failed: 2},
		},
		{
			name:      "error: listing fails",
			batchSize: 10,
			mockCall: func(f fields) {
				f.reservationRepo.On("ListExpired", mock.Anything, t0, start, 10).Return(nil, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := fields{
				reservationRepo: reservationmocks.NewReservationRepository(t),
				expirer:         appmocks.NewReservationApp(t),
			}
			tt.mockCall(f)
			s := sweeper.NewSweeperWithClock(config.SweeperConfig{BatchSize: tt.batchSize, Concurrency: 3}, f.reservationRepo, f.expirer,
				func() time.Time { return t0 })

			got, err := s.SweepOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("SweepOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !cerr.IsType(err, constant.ErrInternal) {
					t.Fatalf("error = %v, want internal", err)
				}
				return
			}
			got.Duration = 0
			if *got != tt.want {
				t.Fatalf("SweepOnce() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := reservationmocks.NewReservationRepository(t)
	expirer := appmocks.NewReservationApp(t)
	ticked := make(chan struct{}, 1)
	repo.On("ListExpired", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		}).
		Return([]model.Reservation{}, nil)

	s := sweeper.NewSweeper(config.SweeperConfig{Interval: 5 * time.Millisecond, BatchSize: 10, Concurrency: 2}, repo, expirer)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ticked")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reservation of 3 at t0 with a 15 minute hold; a sweep at t0+20m expires it and returns the units.
func TestSweeper_ExpiresAbandonedReservation(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: t0}

	ledger := stockrepo.NewMemoryLedger()
	reservations := reservationrepo.NewMemoryRepository()
	warehouses := warehouserepo.NewMemoryRepository()
	require.NoError(t, warehouses.CreateWarehouse(ctx, &model.Warehouse{ID: "WH-001", Name: "Main", Status: constant.WarehouseStatusActive, CreatedAt: t0}))
	_, err := ledger.Receive(ctx, "p-1", "WH-001", 10)
	require.NoError(t, err)

	app := appreservation.NewReservationApp(15*time.Minute, ledger, reservations, warehouses, nil, appreservation.WithClock(c.Now))
	kept, err := app.CreateReservation(ctx, &model.ReservationRequest{ProductID: "p-1", WarehouseID: "WH-001", Quantity: 2})
	require.NoError(t, err)
	abandoned, err := app.CreateReservation(ctx, &model.ReservationRequest{ProductID: "p-1", WarehouseID: "WH-001", Quantity: 3})
	require.NoError(t, err)
	_, err = app.CommitReservation(ctx, kept.ID)
	require.NoError(t, err)

	s := sweeper.NewSweeperWithClock(config.SweeperConfig{BatchSize: 100, Concurrency: 4}, reservations, app, c.Now)

	// nothing is due before the hold lapses
	res, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Scanned)

	c.mu.Lock()
	c.now = t0.Add(20 * time.Minute)
	c.mu.Unlock()

	res, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Expired)

	got, err := app.GetReservation(ctx, abandoned.ID)
	require.NoError(t, err)
	require.Equal(t, constant.ReservationStatusExpired, got.Status)

	rec, err := ledger.Get(ctx, "p-1", "WH-001")
	require.NoError(t, err)
	require.Equal(t, int64(8), rec.Available)
	require.Equal(t, int64(0), rec.Reserved)
	require.Equal(t, int64(8), rec.Total)

	// a second sweep finds nothing
	res, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Scanned)
}

// failingExpirer rejects the listed ids and expires everything else through the store.
type failingExpirer struct {
	repo  reservationrepo.ReservationRepository
	fail  map[string]bool
	clock func() time.Time
}

func (f *failingExpirer) ExpireReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if f.fail[id] {
		return nil, errors.New("ledger unavailable")
	}
	ok, err := f.repo.Claim(ctx, id, constant.ReservationStatusExpired, f.clock())
	if err != nil || !ok {
		return nil, cerr.SetCustomError(constant.ErrReservationAlreadyTerminal)
	}
	return nil, f.repo.Finalize(ctx, id, f.clock())
}

// The oldest due records keep failing; the one behind them still expires on the first cycle.
func TestSweeper_FailuresAtTheHeadDoNotBlock(t *testing.T) {
	ctx := context.Background()
	repo := reservationrepo.NewMemoryRepository()
	for i, id := range []string{"a", "b", "c"} {
		createdAt := t0.Add(-time.Hour + time.Duration(i)*time.Minute)
		require.NoError(t, repo.Insert(ctx, &model.Reservation{
			ID: id, ProductID: "p-1", WarehouseID: "WH-001", Quantity: 1, Status: constant.ReservationStatusActive,
			CreatedAt: createdAt, ExpiresAt: createdAt.Add(15 * time.Minute), UpdatedAt: createdAt,
		}))
	}

	now := func() time.Time { return t0 }
	expirer := &failingExpirer{repo: repo, fail: map[string]bool{"a": true, "b": true}, clock: now}
	s := sweeper.NewSweeperWithClock(config.SweeperConfig{BatchSize: 2, Concurrency: 2}, repo, expirer, now)

	res, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, res.Scanned)
	require.Equal(t, 1, res.Expired)
	require.Equal(t, 2, res.Failed)

	got, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, constant.ReservationStatusExpired, got.Status)

	// the failures are retried on the next cycle
	res, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Scanned)
	require.Equal(t, 2, res.Failed)
}
