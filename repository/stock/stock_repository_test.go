package stock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/repository/schema"
	"github.com/muhammadheryan/stock-reservation/repository/stock"
	cerr "github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/stretchr/testify/require"
)

type ledgerFactory func(t *testing.T) stock.StockLedger

func backends() map[string]ledgerFactory {
	return map[string]ledgerFactory{
		"memory": func(t *testing.T) stock.StockLedger { return stock.NewMemoryLedger() },
		"sqlite": func(t *testing.T) stock.StockLedger {
			db, err := schema.OpenSQLite(context.Background(), ":memory:?_time_format=sqlite")
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return stock.NewStockRepository(db)
		},
	}
}

func requireErrorType(t *testing.T, err error, want constant.ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, cerr.IsType(err, want), "error = %v, want %s", err, constant.ErrorTypeMessage[want])
}

func requireRecord(t *testing.T, l stock.StockLedger, productID, warehouseID string, available, reserved, total int64) {
	t.Helper()
	rec, err := l.Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, available, rec.Available, "available")
	require.Equal(t, reserved, rec.Reserved, "reserved")
	require.Equal(t, total, rec.Total, "total")
	require.True(t, rec.Consistent())
}

func TestStockLedger_Transitions(t *testing.T) {
	for name, newLedger := range backends() {
		newLedger := newLedger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t)

			_, err := l.Receive(ctx, "p-1", "w-1", 10)
			require.NoError(t, err)

			rec, err := l.Reserve(ctx, "p-1", "w-1", 3)
			require.NoError(t, err)
			require.Equal(t, int64(7), rec.Available)
			require.Equal(t, int64(3), rec.Reserved)

			_, err = l.Commit(ctx, "p-1", "w-1", 2)
			require.NoError(t, err)
			requireRecord(t, l, "p-1", "w-1", 7, 1, 8)

			_, err = l.Release(ctx, "p-1", "w-1", 1)
			require.NoError(t, err)
			requireRecord(t, l, "p-1", "w-1", 8, 0, 8)

			_, err = l.Receive(ctx, "p-1", "w-1", 2)
			require.NoError(t, err)
			requireRecord(t, l, "p-1", "w-1", 10, 0, 10)
		})
	}
}

func TestStockLedger_Guards(t *testing.T) {
	tests := []struct {
		name    string
		op      func(ctx context.Context, l stock.StockLedger) error
		wantErr constant.ErrorType
	}{
		{
			name: "error: reserve more than available",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Reserve(ctx, "p-1", "w-1", 6)
				return err
			},
			wantErr: constant.ErrInsufficientStock,
		},
		{
			name: "error: commit more than reserved",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Commit(ctx, "p-1", "w-1", 3)
				return err
			},
			wantErr: constant.ErrInvalidState,
		},
		{
			name: "error: release more than reserved",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Release(ctx, "p-1", "w-1", 3)
				return err
			},
			wantErr: constant.ErrInvalidState,
		},
		{
			name: "error: reserve unknown record",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Reserve(ctx, "p-404", "w-1", 1)
				return err
			},
			wantErr: constant.ErrProductNotStocked,
		},
		{
			name: "error: commit unknown record",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Commit(ctx, "p-1", "w-404", 1)
				return err
			},
			wantErr: constant.ErrProductNotStocked,
		},
		{
			name: "error: zero quantity",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Reserve(ctx, "p-1", "w-1", 0)
				return err
			},
			wantErr: constant.ErrInvalidRequest,
		},
		{
			name: "error: negative intake",
			op: func(ctx context.Context, l stock.StockLedger) error {
				_, err := l.Receive(ctx, "p-1", "w-1", -4)
				return err
			},
			wantErr: constant.ErrInvalidRequest,
		},
	}

	for name, newLedger := range backends() {
		newLedger := newLedger
		for _, tt := range tests {
			tt := tt
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				ctx := context.Background()
				l := newLedger(t)
				_, err := l.Receive(ctx, "p-1", "w-1", 7)
				require.NoError(t, err)
				_, err = l.Reserve(ctx, "p-1", "w-1", 2)
				require.NoError(t, err)

				requireErrorType(t, tt.op(ctx, l), tt.wantErr)
				// failed operations leave the record untouched
				requireRecord(t, l, "p-1", "w-1", 5, 2, 7)
			})
		}
	}
}

// Five callers race for the last unit; exactly one wins.
func TestStockLedger_LastUnitRace(t *testing.T) {
	for name, newLedger := range backends() {
		newLedger := newLedger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t)
			_, err := l.Receive(ctx, "p-1", "w-1", 1)
			require.NoError(t, err)

			var wins, insufficient int64
			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := l.Reserve(ctx, "p-1", "w-1", 1)
					switch {
					case err == nil:
						atomic.AddInt64(&wins, 1)
					case cerr.IsType(err, constant.ErrInsufficientStock):
						atomic.AddInt64(&insufficient, 1)
					}
				}()
			}
			close(start)
			wg.Wait()

			require.Equal(t, int64(1), wins)
			require.Equal(t, int64(4), insufficient)
			requireRecord(t, l, "p-1", "w-1", 0, 1, 1)
		})
	}
}

// 100 units, 150 concurrent single-unit reservations: exactly 100 succeed.
func TestStockLedger_NoOversell(t *testing.T) {
	ctx := context.Background()
	l := stock.NewMemoryLedger()
	_, err := l.Receive(ctx, "p-1", "w-1", 100)
	require.NoError(t, err)

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Reserve(ctx, "p-1", "w-1", 1); err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(100), wins)
	requireRecord(t, l, "p-1", "w-1", 0, 100, 100)
}

func TestStockLedger_RecordIsolation(t *testing.T) {
	for name, newLedger := range backends() {
		newLedger := newLedger
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t)
			for _, w := range []string{"w-1", "w-2"} {
				_, err := l.Receive(ctx, "p-1", w, 5)
				require.NoError(t, err)
			}
			_, err := l.Receive(ctx, "p-2", "w-1", 5)
			require.NoError(t, err)

			_, err = l.Reserve(ctx, "p-1", "w-1", 5)
			require.NoError(t, err)

			requireRecord(t, l, "p-1", "w-2", 5, 0, 5)
			requireRecord(t, l, "p-2", "w-1", 5, 0, 5)

			recs, err := l.ListByProduct(ctx, "p-1")
			require.NoError(t, err)
			require.Len(t, recs, 2)
			require.Equal(t, "w-1", recs[0].WarehouseID)
			require.Equal(t, "w-2", recs[1].WarehouseID)

			reserved, err := l.ReservedByWarehouse(ctx, "w-1")
			require.NoError(t, err)
			require.Equal(t, int64(5), reserved)

			reserved, err = l.ReservedByWarehouse(ctx, "w-2")
			require.NoError(t, err)
			require.Zero(t, reserved)

			missing, err := l.Get(ctx, "p-2", "w-2")
			require.NoError(t, err)
			require.Nil(t, missing)
		})
	}
}

// The conditional update is the mutation: a read-back that fails afterwards must not be reported
// as a failed reserve or release, or callers would apply it a second time.
func TestSQLLedger_ReadBackFailureAfterWrite(t *testing.T) {
	ctx := context.Background()
	db, err := schema.OpenSQLite(ctx, ":memory:?_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	l := stock.NewStockRepository(db)

	_, err = l.Receive(ctx, "p-1", "w-1", 6)
	require.NoError(t, err)

	// leaves a value in updated_at that cannot be scanned back into time.Time
	_, err = db.ExecContext(ctx, `CREATE TRIGGER stock_unreadable AFTER UPDATE OF available ON warehouse_stock
BEGIN
	UPDATE warehouse_stock SET updated_at = 'not-a-time' WHERE product_id = NEW.product_id AND warehouse_id = NEW.warehouse_id;
END`)
	require.NoError(t, err)

	type quantities struct {
		Available int64 `db:"available"`
		Reserved  int64 `db:"reserved"`
		Total     int64 `db:"total"`
	}
	read := func() quantities {
		var q quantities
		require.NoError(t, db.GetContext(ctx, &q, `SELECT available, reserved, total FROM warehouse_stock WHERE product_id = ? AND warehouse_id = ?`, "p-1", "w-1"))
		return q
	}

	rec, err := l.Reserve(ctx, "p-1", "w-1", 4)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Equal(t, quantities{Available: 2, Reserved: 4, Total: 6}, read())

	rec, err = l.Release(ctx, "p-1", "w-1", 4)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Equal(t, quantities{Available: 6, Reserved: 0, Total: 6}, read())

	_, err = l.Get(ctx, "p-1", "w-1")
	require.Error(t, err)
}
