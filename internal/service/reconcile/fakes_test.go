package reconcile

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

// memInventory applies deductions all-or-nothing like the Mongo store.
type memInventory struct {
	mu    sync.Mutex
	parts map[string]model.PartInventory
}

func newMemInventory(parts ...model.PartInventory) *memInventory {
	inv := &memInventory{parts: make(map[string]model.PartInventory)}
	for _, p := range parts {
		inv.parts[p.PartID] = p
	}
	return inv
}

func (m *memInventory) onHand(partID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parts[partID].QuantityOnHand
}

func (m *memInventory) set(partID string, qty int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.parts[partID]
	p.QuantityOnHand = qty
	m.parts[partID] = p
}

func (m *memInventory) PartByID(_ context.Context, partID string) (model.PartInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[partID]
	if !ok {
		return model.PartInventory{}, model.ErrPartNotFound
	}
	return p, nil
}

func (m *memInventory) PartsByIDs(_ context.Context, ids []string) ([]model.PartInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PartInventory, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.parts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memInventory) Deduct(_ context.Context, ds []model.StockDeduction) ([]model.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var short []model.StockShortfall
	for _, d := range ds {
		if have := m.parts[d.PartID].QuantityOnHand; have < d.Quantity {
			short = append(short, model.StockShortfall{PartID: d.PartID, Requested: d.Quantity, Available: have})
		}
	}
	if len(short) > 0 {
		return nil, &model.InsufficientStockError{Shortfalls: short}
	}

	levels := make([]model.StockLevel, 0, len(ds))
	for _, d := range ds {
		p := m.parts[d.PartID]
		p.QuantityOnHand -= d.Quantity
		m.parts[d.PartID] = p
		levels = append(levels, model.StockLevel{
			PartID:       d.PartID,
			Deducted:     d.Quantity,
			Remaining:    p.QuantityOnHand,
			ReorderLevel: p.ReorderLevel,
		})
	}
	return levels, nil
}

func (m *memInventory) Restock(_ context.Context, ds []model.StockDeduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range ds {
		p := m.parts[d.PartID]
		p.QuantityOnHand += d.Quantity
		m.parts[d.PartID] = p
	}
	return nil
}

type memAllocations struct {
	mu          sync.Mutex
	allocs      []model.PartAllocation
	completions map[uuid.UUID]time.Time

	// beforeMark runs at the start of MarkConsumed, outside the lock.
	beforeMark func()
}

func newMemAllocations() *memAllocations {
	return &memAllocations{completions: make(map[uuid.UUID]time.Time)}
}

func (m *memAllocations) Create(_ context.Context, a model.PartAllocation) (model.PartAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.allocs = append(m.allocs, a)
	return a, nil
}

func (m *memAllocations) AllocationByID(_ context.Context, id uuid.UUID) (model.PartAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.allocs, func(a model.PartAllocation) bool { return a.ID == id })
	if i < 0 {
		return model.PartAllocation{}, model.ErrAllocationNotFound
	}
	return m.allocs[i], nil
}

func (m *memAllocations) ListByWorkOrder(_ context.Context, woID uuid.UUID) ([]model.PartAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PartAllocation, 0)
	for _, a := range m.allocs {
		if a.WorkOrderID == woID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAllocations) UpdateQuantity(_ context.Context, id uuid.UUID, qty int64, over bool) (model.PartAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.allocs, func(a model.PartAllocation) bool { return a.ID == id })
	if i < 0 {
		return model.PartAllocation{}, model.ErrAllocationNotFound
	}
	if m.allocs[i].Consumed() {
		return model.PartAllocation{}, model.ErrAllocationConsumed
	}
	m.allocs[i].Quantity = qty
	m.allocs[i].OverAllocated = over
	return m.allocs[i], nil
}

func (m *memAllocations) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.allocs, func(a model.PartAllocation) bool { return a.ID == id })
	if i < 0 {
		return model.ErrAllocationNotFound
	}
	m.allocs = slices.Delete(m.allocs, i, i+1)
	return nil
}

func (m *memAllocations) CompletedAt(_ context.Context, woID uuid.UUID) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at, ok := m.completions[woID]; ok {
		return &at, nil
	}
	return nil, nil
}

func (m *memAllocations) MarkConsumed(
	_ context.Context,
	woID uuid.UUID,
	deducted []model.PartAllocation,
	at time.Time,
	_ decimal.Decimal,
) error {
	if m.beforeMark != nil {
		m.beforeMark()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completions[woID]; ok {
		return model.ErrWorkOrderCompleted
	}

	expected := make(map[uuid.UUID]int64, len(deducted))
	for _, a := range deducted {
		expected[a.ID] = a.Quantity
	}
	var open []int
	for i, a := range m.allocs {
		if a.WorkOrderID != woID || a.Consumed() {
			continue
		}
		if want, ok := expected[a.ID]; !ok || want != a.Quantity {
			return model.ErrAllocationsChanged
		}
		open = append(open, i)
	}
	if len(open) != len(deducted) {
		return model.ErrAllocationsChanged
	}

	m.completions[woID] = at
	for _, i := range open {
		m.allocs[i].ConsumedAt = &at
		m.allocs[i].OverAllocated = false
	}
	return nil
}

func (m *memAllocations) RefreshOverAllocated(_ context.Context, partID string, onHand int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for i := range m.allocs {
		a := &m.allocs[i]
		if a.PartID != partID || a.Consumed() {
			continue
		}
		if over := a.Quantity > onHand; over != a.OverAllocated {
			a.OverAllocated = over
			changed++
		}
	}
	return changed, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []model.WorkOrderCompleted
}

func (s *recordingSender) Send(_ context.Context, e model.WorkOrderCompleted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return nil
}
