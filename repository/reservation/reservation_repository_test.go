package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/repository/reservation"
	"github.com/muhammadheryan/stock-reservation/repository/schema"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func backends() map[string]func(t *testing.T) reservation.ReservationRepository {
	return map[string]func(t *testing.T) reservation.ReservationRepository{
		"memory": func(t *testing.T) reservation.ReservationRepository { return reservation.NewMemoryRepository() },
		"sqlite": func(t *testing.T) reservation.ReservationRepository {
			db, err := schema.OpenSQLite(context.Background(), ":memory:?_time_format=sqlite")
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return reservation.NewReservationRepository(db)
		},
	}
}

func newReservation(id string, createdAt time.Time, hold time.Duration) *model.Reservation {
	return &model.Reservation{
		ID:          id,
		ReferenceID: "checkout-" + id,
		ProductID:   "p-1",
		WarehouseID: "w-1",
		Quantity:    3,
		Status:      constant.ReservationStatusActive,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(hold),
		UpdatedAt:   createdAt,
	}
}

func TestReservationRepository_InsertGet(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			want := newReservation("r-1", t0, 15*time.Minute)
			require.NoError(t, repo.Insert(ctx, want))

			got, err := repo.Get(ctx, "r-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, want.ProductID, got.ProductID)
			require.Equal(t, want.Quantity, got.Quantity)
			require.Equal(t, constant.ReservationStatusActive, got.Status)
			require.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expires_at = %v, want %v", got.ExpiresAt, want.ExpiresAt)
			require.False(t, got.Quarantined)

			missing, err := repo.Get(ctx, "r-404")
			require.NoError(t, err)
			require.Nil(t, missing)

			require.Error(t, repo.Insert(ctx, want))
		})
	}
}

func TestReservationRepository_ClaimFinalize(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			require.NoError(t, repo.Insert(ctx, newReservation("r-1", t0, time.Minute)))

			ok, err := repo.Claim(ctx, "r-1", constant.ReservationStatusCommitted, t0)
			require.NoError(t, err)
			require.True(t, ok)

			// a second transition cannot claim while the first is pending
			ok, err = repo.Claim(ctx, "r-1", constant.ReservationStatusExpired, t0)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, repo.Finalize(ctx, "r-1", t0.Add(time.Second)))
			got, err := repo.Get(ctx, "r-1")
			require.NoError(t, err)
			require.Equal(t, constant.ReservationStatusCommitted, got.Status)
			require.Empty(t, got.PendingStatus)

			// terminal reservations cannot be claimed or finalized again
			ok, err = repo.Claim(ctx, "r-1", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.False(t, ok)
			require.Error(t, repo.Finalize(ctx, "r-1", t0))

			ok, err = repo.Claim(ctx, "r-404", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestReservationRepository_ReleaseClaim(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			require.NoError(t, repo.Insert(ctx, newReservation("r-1", t0, time.Minute)))

			ok, err := repo.Claim(ctx, "r-1", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, repo.ReleaseClaim(ctx, "r-1", t0))

			got, err := repo.Get(ctx, "r-1")
			require.NoError(t, err)
			require.Equal(t, constant.ReservationStatusActive, got.Status)
			require.Empty(t, got.PendingStatus)

			ok, err = repo.Claim(ctx, "r-1", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestReservationRepository_ConcurrentClaim(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			require.NoError(t, repo.Insert(ctx, newReservation("r-1", t0, time.Minute)))

			targets := []constant.ReservationStatus{
				constant.ReservationStatusCommitted,
				constant.ReservationStatusReleased,
				constant.ReservationStatusExpired,
			}
			var wins int64
			var wg sync.WaitGroup
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func(target constant.ReservationStatus) {
					defer wg.Done()
					ok, err := repo.Claim(ctx, "r-1", target, t0)
					if err == nil && ok {
						atomic.AddInt64(&wins, 1)
					}
				}(targets[i%len(targets)])
			}
			wg.Wait()
			require.Equal(t, int64(1), wins)
		})
	}
}

func TestReservationRepository_ListExpired(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			require.NoError(t, repo.Insert(ctx, newReservation("due-late", t0, 10*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("due-early", t0, 5*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("not-due", t0, 30*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("exact", t0, 20*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("claimed", t0, time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("quarantined", t0, time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("committed", t0, time.Minute)))

			_, err := repo.Claim(ctx, "claimed", constant.ReservationStatusCommitted, t0)
			require.NoError(t, err)
			require.NoError(t, repo.Quarantine(ctx, "quarantined", t0))
			_, err = repo.Claim(ctx, "committed", constant.ReservationStatusCommitted, t0)
			require.NoError(t, err)
			require.NoError(t, repo.Finalize(ctx, "committed", t0))
			// the claim on "claimed" is left pending

			now := t0.Add(20 * time.Minute)
			got, err := repo.ListExpired(ctx, now, model.ExpiryCursor{}, 10)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			require.Equal(t, []string{"due-early", "due-late", "exact"}, ids)

			limited, err := repo.ListExpired(ctx, now, model.ExpiryCursor{}, 2)
			require.NoError(t, err)
			require.Len(t, limited, 2)
		})
	}
}

func TestReservationRepository_ListExpiredAfterCursor(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			// "tie-a" and "tie-b" share expires_at and are ordered by id
			require.NoError(t, repo.Insert(ctx, newReservation("first", t0, time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("tie-b", t0, 2*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("tie-a", t0, 2*time.Minute)))
			require.NoError(t, repo.Insert(ctx, newReservation("last", t0, 3*time.Minute)))
			now := t0.Add(10 * time.Minute)

			var pages [][]string
			var cursor model.ExpiryCursor
			for {
				batch, err := repo.ListExpired(ctx, now, cursor, 2)
				require.NoError(t, err)
				if len(batch) == 0 {
					break
				}
				ids := make([]string, 0, len(batch))
				for _, r := range batch {
					ids = append(ids, r.ID)
				}
				pages = append(pages, ids)
				cursor = batch[len(batch)-1].Cursor()
			}
			require.Equal(t, [][]string{{"first", "tie-a"}, {"tie-b", "last"}}, pages)
		})
	}
}

func TestReservationRepository_ListAndQuarantine(t *testing.T) {
	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			for i := 0; i < 4; i++ {
				r := newReservation(fmt.Sprintf("r-%d", i), t0.Add(time.Duration(i)*time.Second), time.Minute)
				if i%2 == 1 {
					r.WarehouseID = "w-2"
				}
				require.NoError(t, repo.Insert(ctx, r))
			}

			all, err := repo.List(ctx, model.ReservationFilter{ProductID: "p-1"})
			require.NoError(t, err)
			require.Len(t, all, 4)
			require.Equal(t, "r-3", all[0].ID)

			byWarehouse, err := repo.List(ctx, model.ReservationFilter{WarehouseID: "w-2"})
			require.NoError(t, err)
			require.Len(t, byWarehouse, 2)

			byReference, err := repo.List(ctx, model.ReservationFilter{ReferenceID: "checkout-r-2"})
			require.NoError(t, err)
			require.Len(t, byReference, 1)
			require.Equal(t, "r-2", byReference[0].ID)

			none, err := repo.List(ctx, model.ReservationFilter{Status: constant.ReservationStatusExpired})
			require.NoError(t, err)
			require.Empty(t, none)

			ok, err := repo.Claim(ctx, "r-1", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, repo.Quarantine(ctx, "r-1", t0.Add(time.Minute)))

			q, err := repo.ListQuarantined(ctx, 0)
			require.NoError(t, err)
			require.Len(t, q, 1)
			require.Equal(t, "r-1", q[0].ID)
			require.True(t, q[0].Quarantined)
			require.Equal(t, constant.ReservationStatusActive, q[0].Status)
			require.Empty(t, q[0].PendingStatus)

			// quarantined reservations cannot be claimed again
			ok, err = repo.Claim(ctx, "r-1", constant.ReservationStatusReleased, t0)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}
