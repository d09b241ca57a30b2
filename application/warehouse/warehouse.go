package warehouse

import (
	"context"
	"database/sql"
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

type WarehouseApp interface {
	CreateWarehouse(ctx context.Context, req *model.CreateWarehouseRequest) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	ActivateWarehouse(ctx context.Context, warehouseID string) error
	DeactivateWarehouse(ctx context.Context, warehouseID string) error
	// RegisterStock is the intake hook for received units.
	RegisterStock(ctx context.Context, req *model.RegisterStockRequest) (*model.StockRecord, error)
}

type warehouseAppImpl struct {
	warehouseRepo warehouserepo.WarehouseRepository
	ledger        stockrepo.StockLedger
	cacheRepo     redisrepo.Repository
	now           func() time.Time
}

func NewWarehouseApp(warehouseRepo warehouserepo.WarehouseRepository, ledger stockrepo.StockLedger, cacheRepo redisrepo.Repository) WarehouseApp {
	return &warehouseAppImpl{
		warehouseRepo: warehouseRepo,
		ledger:        ledger,
		cacheRepo:     cacheRepo,
		now:           time.Now,
	}
}

func (s *warehouseAppImpl) CreateWarehouse(ctx context.Context, req *model.CreateWarehouseRequest) (*model.Warehouse, error) {
	if req.ID == "" || req.Name == "" {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	existing, err := s.warehouseRepo.GetWarehouseByID(ctx, req.ID)
	if err != nil {
		logger.Error("[CreateWarehouse] get warehouse failed", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if existing != nil {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	w := &model.Warehouse{
		ID:        req.ID,
		Name:      req.Name,
		Status:    constant.WarehouseStatusActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.warehouseRepo.CreateWarehouse(ctx, w); err != nil {
		logger.Error("[CreateWarehouse] insert warehouse failed", zap.String("warehouse_id", req.ID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return w, nil
}

func (s *warehouseAppImpl) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	list, err := s.warehouseRepo.ListWarehouses(ctx)
	if err != nil {
		logger.Error("[ListWarehouses] list warehouses failed", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return list, nil
}

func (s *warehouseAppImpl) ActivateWarehouse(ctx context.Context, warehouseID string) error {
	warehouse, err := s.warehouseRepo.GetWarehouseByID(ctx, warehouseID)
	if err != nil {
		logger.Error("[ActivateWarehouse] get warehouse failed", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	if warehouse == nil {
		return errors.SetCustomError(constant.ErrWarehouseNotFound)
	}

	return s.updateStatus(ctx, "[ActivateWarehouse]", warehouseID, constant.WarehouseStatusActive)
}

func (s *warehouseAppImpl) DeactivateWarehouse(ctx context.Context, warehouseID string) error {
	warehouse, err := s.warehouseRepo.GetWarehouseByID(ctx, warehouseID)
	if err != nil {
		logger.Error("[DeactivateWarehouse] get warehouse failed", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	if warehouse == nil {
		return errors.SetCustomError(constant.ErrWarehouseNotFound)
	}

	// Held units must be committed or released first
	reserved, err := s.ledger.ReservedByWarehouse(ctx, warehouseID)
	if err != nil {
		logger.Error("[DeactivateWarehouse] check reserved stock failed", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	if reserved > 0 {
		return errors.SetCustomError(constant.ErrWarehouseHasReservedStock)
	}

	return s.updateStatus(ctx, "[DeactivateWarehouse]", warehouseID, constant.WarehouseStatusInactive)
}

func (s *warehouseAppImpl) updateStatus(ctx context.Context, tag, warehouseID string, status constant.WarehouseStatus) error {
	err := s.warehouseRepo.UpdateWarehouseStatus(ctx, warehouseID, status)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.SetCustomError(constant.ErrWarehouseNotFound)
		}
		logger.Error(tag+" update status failed", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	return nil
}

func (s *warehouseAppImpl) RegisterStock(ctx context.Context, req *model.RegisterStockRequest) (*model.StockRecord, error) {
	if req.ProductID == "" || req.WarehouseID == "" || req.Quantity <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	warehouse, err := s.warehouseRepo.GetWarehouseByID(ctx, req.WarehouseID)
	if err != nil {
		logger.Error("[RegisterStock] get warehouse failed", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if warehouse == nil {
		return nil, errors.SetCustomError(constant.ErrWarehouseNotFound)
	}

	rec, err := s.ledger.Receive(ctx, req.ProductID, req.WarehouseID, req.Quantity)
	if err != nil {
		logger.Error("[RegisterStock] receive stock failed",
			zap.String("product_id", req.ProductID), zap.String("warehouse_id", req.WarehouseID), zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.DeleteAvailability(ctx, req.ProductID); err != nil {
			logger.Warn("[RegisterStock] delete cached availability", zap.String("product_id", req.ProductID), zap.String("error", err.Error()))
		}
	}
	return rec, nil
}
