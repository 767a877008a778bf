package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockAllocationRepository struct {
	mock.Mock
}

func NewMockAllocationRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAllocationRepository {
	m := &MockAllocationRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAllocationRepository) Create(ctx context.Context, alloc model.PartAllocation) (model.PartAllocation, error) {
	args := m.Called(ctx, alloc)
	if fn, ok := args.Get(0).(func(context.Context, model.PartAllocation) (model.PartAllocation, error)); ok {
		return fn(ctx, alloc)
	}
	out, _ := args.Get(0).(model.PartAllocation)
	return out, args.Error(1)
}

func (m *MockAllocationRepository) AllocationByID(ctx context.Context, id uuid.UUID) (model.PartAllocation, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.PartAllocation)
	return out, args.Error(1)
}

func (m *MockAllocationRepository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]model.PartAllocation, error) {
	args := m.Called(ctx, workOrderID)
	out, _ := args.Get(0).([]model.PartAllocation)
	return out, args.Error(1)
}

func (m *MockAllocationRepository) UpdateQuantity(
	ctx context.Context,
	id uuid.UUID,
	quantity int64,
	overAllocated bool,
) (model.PartAllocation, error) {
	args := m.Called(ctx, id, quantity, overAllocated)
	out, _ := args.Get(0).(model.PartAllocation)
	return out, args.Error(1)
}

func (m *MockAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAllocationRepository) CompletedAt(ctx context.Context, workOrderID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, workOrderID)
	out, _ := args.Get(0).(*time.Time)
	return out, args.Error(1)
}

func (m *MockAllocationRepository) MarkConsumed(
	ctx context.Context,
	workOrderID uuid.UUID,
	deducted []model.PartAllocation,
	at time.Time,
	total decimal.Decimal,
) error {
	args := m.Called(ctx, workOrderID, deducted, at, total)
	return args.Error(0)
}

func (m *MockAllocationRepository) RefreshOverAllocated(ctx context.Context, partID string, onHand int64) (int64, error) {
	args := m.Called(ctx, partID, onHand)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
