package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
)

type Memory struct {
	mu   sync.RWMutex
	rows map[string]model.Warehouse
}

func NewMemoryRepository() *Memory {
	return &Memory{rows: make(map[string]model.Warehouse)}
}

func (m *Memory) CreateWarehouse(_ context.Context, w *model.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[w.ID]; ok {
		return fmt.Errorf("insert warehouse %s: duplicate id", w.ID)
	}
	m.rows[w.ID] = *w
	return nil
}

func (m *Memory) GetWarehouseByID(_ context.Context, id string) (*model.Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *Memory) ListWarehouses(_ context.Context) ([]model.Warehouse, error) {
	m.mu.RLock()
	out := make([]model.Warehouse, 0, len(m.rows))
	for _, w := range m.rows {
		out = append(out, w)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateWarehouseStatus(_ context.Context, id string, status constant.WarehouseStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	w.Status = status
	m.rows[id] = w
	return nil
}
