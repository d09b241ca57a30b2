package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/stock-reservation/cmd/database"
	redisclient "github.com/muhammadheryan/stock-reservation/cmd/redis"
	redisRepo "github.com/muhammadheryan/stock-reservation/repository/redis"
	reservationRepo "github.com/muhammadheryan/stock-reservation/repository/reservation"
	stockRepo "github.com/muhammadheryan/stock-reservation/repository/stock"
	warehouseRepo "github.com/muhammadheryan/stock-reservation/repository/warehouse"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"go.uber.org/zap"
)

// backends holds the repositories selected by DB_DRIVER, REDIS_ENABLED and LEDGER_BACKEND.
type backends struct {
	db           *sqlx.DB
	ledger       stockRepo.StockLedger
	reservations reservationRepo.ReservationRepository
	warehouses   warehouseRepo.WarehouseRepository
	cache        redisRepo.Repository
}

func openBackends(ctx context.Context) (*backends, error) {
	b := &backends{}

	if cfg.Database.Driver == "memory" {
		logger.Warn("memory driver selected, state is lost on restart")
		b.ledger = stockRepo.NewMemoryLedger()
		b.reservations = reservationRepo.NewMemoryRepository()
		b.warehouses = warehouseRepo.NewMemoryRepository()
	} else {
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.ledger = stockRepo.NewStockRepository(db)
		b.reservations = reservationRepo.NewReservationRepository(db)
		b.warehouses = warehouseRepo.NewWarehouseRepository(db)
	}

	if cfg.Redis.Enabled {
		if err := redisclient.New(cfg); err != nil {
			b.Close()
			return nil, err
		}
		if cfg.Reservation.LedgerBackend == "redis" {
			b.ledger = stockRepo.NewRedisLedger(redisclient.Get())
		}
	}
	// a nil client turns the availability cache into a pass-through
	b.cache = redisRepo.NewRepository()

	logger.Info("backends ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("ledger", cfg.Reservation.LedgerBackend),
		zap.Bool("redis", cfg.Redis.Enabled))
	return b, nil
}

func (b *backends) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
	_ = redisclient.Close()
}
