package availability

import (
	"context"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	redisrepo "github.com/muhammadheryan/stock-reservation/repository/redis"
	stockrepo "github.com/muhammadheryan/stock-reservation/repository/stock"
	warehouserepo "github.com/muhammadheryan/stock-reservation/repository/warehouse"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"go.uber.org/zap"
)

// AvailabilityApp answers how much of a product can still be reserved. The answer is a
// point-in-time snapshot: per-warehouse reads are not consistent with each other.
type AvailabilityApp interface {
	GetAvailability(ctx context.Context, productID string) (*model.Availability, error)
}

type availabilityAppImpl struct {
	cacheTTL      time.Duration
	ledger        stockrepo.StockLedger
	warehouseRepo warehouserepo.WarehouseRepository
	cacheRepo     redisrepo.Repository
}

func NewAvailabilityApp(cacheTTL time.Duration, ledger stockrepo.StockLedger, warehouseRepo warehouserepo.WarehouseRepository, cacheRepo redisrepo.Repository) AvailabilityApp {
	return &availabilityAppImpl{cacheTTL: cacheTTL, ledger: ledger, warehouseRepo: warehouseRepo, cacheRepo: cacheRepo}
}

func (s *availabilityAppImpl) GetAvailability(ctx context.Context, productID string) (*model.Availability, error) {
	if productID == "" {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	if s.cacheRepo != nil && s.cacheTTL > 0 {
		cached, err := s.cacheRepo.GetAvailability(ctx, productID)
		if err != nil {
			logger.Warn("[GetAvailability] read cache", zap.String("product_id", productID), zap.String("error", err.Error()))
		} else if cached != nil {
			return cached, nil
		}
	}

	records, err := s.ledger.ListByProduct(ctx, productID)
	if err != nil {
		logger.Error("[GetAvailability] list stock", zap.String("product_id", productID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	warehouses, err := s.warehouseRepo.ListWarehouses(ctx)
	if err != nil {
		logger.Error("[GetAvailability] list warehouses", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	active := make(map[string]bool, len(warehouses))
	for _, w := range warehouses {
		active[w.ID] = w.Status == constant.WarehouseStatusActive
	}

	out := &model.Availability{
		ProductID:    productID,
		PerWarehouse: make([]model.WarehouseAvailability, 0, len(records)),
	}
	for _, rec := range records {
		// inactive or unregistered warehouses cannot take reservations
		if !active[rec.WarehouseID] {
			continue
		}
		out.TotalAvailable += rec.Available
		out.PerWarehouse = append(out.PerWarehouse, model.WarehouseAvailability{
			WarehouseID: rec.WarehouseID,
			Available:   rec.Available,
		})
	}

	if s.cacheRepo != nil && s.cacheTTL > 0 {
		if err := s.cacheRepo.SetAvailability(ctx, out, s.cacheTTL); err != nil {
			logger.Warn("[GetAvailability] write cache", zap.String("product_id", productID), zap.String("error", err.Error()))
		}
	}
	return out, nil
}
