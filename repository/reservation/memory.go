package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
)

// Memory is an in-process ReservationRepository. Returned values are copies.
type Memory struct {
	mu   sync.Mutex
	rows map[string]*model.Reservation
}

func NewMemoryRepository() *Memory {
	return &Memory{rows: make(map[string]*model.Reservation)}
}

func (m *Memory) Insert(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; ok {
		return fmt.Errorf("insert reservation %s: duplicate id", r.ID)
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) List(_ context.Context, filter model.ReservationFilter) ([]model.Reservation, error) {
	out := m.collect(func(r *model.Reservation) bool {
		return (filter.ProductID == "" || r.ProductID == filter.ProductID) &&
			(filter.WarehouseID == "" || r.WarehouseID == filter.WarehouseID) &&
			(filter.ReferenceID == "" || r.ReferenceID == filter.ReferenceID) &&
			(filter.Status == "" || r.Status == filter.Status)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, filter.Limit), nil
}

func (m *Memory) ListExpired(_ context.Context, now time.Time, after model.ExpiryCursor, limit int) ([]model.Reservation, error) {
	out := m.collect(func(r *model.Reservation) bool {
		return r.Status == constant.ReservationStatusActive && r.PendingStatus == "" && !r.Quarantined &&
			r.Expired(now) && after.Precedes(r)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return truncate(out, limit), nil
}

func (m *Memory) Claim(_ context.Context, id string, target constant.ReservationStatus, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != constant.ReservationStatusActive || r.PendingStatus != "" || r.Quarantined {
		return false, nil
	}
	r.PendingStatus = target
	r.UpdatedAt = now.UTC()
	return true, nil
}

func (m *Memory) Finalize(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != constant.ReservationStatusActive || r.PendingStatus == "" {
		return fmt.Errorf("finalize reservation %s: no pending transition", id)
	}
	r.Status = r.PendingStatus
	r.PendingStatus = ""
	r.UpdatedAt = now.UTC()
	return nil
}

func (m *Memory) ReleaseClaim(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok && r.Status == constant.ReservationStatusActive {
		r.PendingStatus = ""
		r.UpdatedAt = now.UTC()
	}
	return nil
}

func (m *Memory) Quarantine(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		r.Quarantined = true
		r.PendingStatus = ""
		r.UpdatedAt = now.UTC()
	}
	return nil
}

func (m *Memory) ListQuarantined(_ context.Context, limit int) ([]model.Reservation, error) {
	out := m.collect(func(r *model.Reservation) bool { return r.Quarantined })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return truncate(out, limit), nil
}

func (m *Memory) collect(match func(r *model.Reservation) bool) []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, r := range m.rows {
		if match(r) {
			out = append(out, *r)
		}
	}
	return out
}

func truncate(rows []model.Reservation, limit int) []model.Reservation {
	limit = listLimit(limit)
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
