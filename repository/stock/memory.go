package stock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
)

type stockKey struct {
	productID   string
	warehouseID string
}

// memoryEntry serializes every mutation of one record behind its own mutex.
type memoryEntry struct {
	mu  sync.Mutex
	rec model.StockRecord
}

// Memory is an in-process StockLedger. Records for different keys never contend.
type Memory struct {
	mu      sync.RWMutex
	entries map[stockKey]*memoryEntry
	now     func() time.Time
}

func NewMemoryLedger() *Memory {
	return &Memory{
		entries: make(map[stockKey]*memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) entry(productID, warehouseID string) *memoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[stockKey{productID, warehouseID}]
}

// mutate runs fn under the record lock. fn must leave rec untouched when it returns an error.
func (m *Memory) mutate(productID, warehouseID string, qty int64, fn func(rec *model.StockRecord) error) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	e := m.entry(productID, warehouseID)
	if e == nil {
		return nil, errors.SetCustomError(constant.ErrProductNotStocked)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(&e.rec); err != nil {
		return nil, err
	}
	e.rec.UpdatedAt = m.now().UTC()
	out := e.rec
	return &out, nil
}

func (m *Memory) Reserve(_ context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return m.mutate(productID, warehouseID, qty, func(rec *model.StockRecord) error {
		if rec.Available < qty {
			return errors.SetCustomError(constant.ErrInsufficientStock)
		}
		rec.Available -= qty
		rec.Reserved += qty
		return nil
	})
}

func (m *Memory) Commit(_ context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return m.mutate(productID, warehouseID, qty, func(rec *model.StockRecord) error {
		if rec.Reserved < qty {
			return errors.SetCustomError(constant.ErrInvalidState)
		}
		rec.Reserved -= qty
		rec.Total -= qty
		return nil
	})
}

func (m *Memory) Release(_ context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return m.mutate(productID, warehouseID, qty, func(rec *model.StockRecord) error {
		if rec.Reserved < qty {
			return errors.SetCustomError(constant.ErrInvalidState)
		}
		rec.Reserved -= qty
		rec.Available += qty
		return nil
	})
}

func (m *Memory) Receive(_ context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	k := stockKey{productID, warehouseID}

	m.mu.Lock()
	e, ok := m.entries[k]
	if !ok {
		e = &memoryEntry{rec: model.StockRecord{ProductID: productID, WarehouseID: warehouseID}}
		m.entries[k] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.Available += qty
	e.rec.Total += qty
	e.rec.UpdatedAt = m.now().UTC()
	out := e.rec
	return &out, nil
}

func (m *Memory) Get(_ context.Context, productID, warehouseID string) (*model.StockRecord, error) {
	e := m.entry(productID, warehouseID)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	out := e.rec
	e.mu.Unlock()
	return &out, nil
}

func (m *Memory) ListByProduct(_ context.Context, productID string) ([]model.StockRecord, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0)
	for k, e := range m.entries {
		if k.productID == productID {
			entries = append(entries, e)
		}
	}
	m.mu.RUnlock()

	recs := make([]model.StockRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		recs = append(recs, e.rec)
		e.mu.Unlock()
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].WarehouseID < recs[j].WarehouseID })
	return recs, nil
}

func (m *Memory) ReservedByWarehouse(_ context.Context, warehouseID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for k, e := range m.entries {
		if k.warehouseID != warehouseID {
			continue
		}
		e.mu.Lock()
		total += e.rec.Reserved
		e.mu.Unlock()
	}
	return total, nil
}
