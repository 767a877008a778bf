package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type completionFixture struct {
	svc    *service
	inv    *memInventory
	repo   *memAllocations
	events *recordingSender
	woID   uuid.UUID
}

func newCompletionFixture(parts ...model.PartInventory) completionFixture {
	f := completionFixture{
		inv:    newMemInventory(parts...),
		repo:   newMemAllocations(),
		events: &recordingSender{},
		woID:   uuid.New(),
	}
	f.svc = newSvc(f.repo, f.inv, f.events)
	return f
}

func (f completionFixture) allocate(t *testing.T, partID string, qty int64) model.PartAllocation {
	t.Helper()
	a, err := f.svc.AddAllocation(context.Background(), model.AddAllocationParams{
		WorkOrderID: f.woID,
		PartID:      partID,
		Quantity:    qty,
	})
	require.NoError(t, err)
	return a
}

func TestComplete_RefusesWhenShortAndLeavesStock(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 3})
	alloc := f.allocate(t, "partA", 5)
	assert.True(t, alloc.OverAllocated)

	_, err := f.svc.Complete(context.Background(), f.woID)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	var insufficient *model.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, []string{"partA"}, insufficient.PartIDs())
	assert.Equal(t, model.StockShortfall{PartID: "partA", Requested: 5, Available: 3}, insufficient.Shortfalls[0])

	assert.EqualValues(t, 3, f.inv.onHand("partA"))

	view, err := f.svc.WorkOrder(context.Background(), f.woID)
	require.NoError(t, err)
	assert.Nil(t, view.CompletedAt)
	assert.False(t, view.Allocations[0].Consumed())
	assert.Empty(t, f.events.sent)
}

func TestComplete_DeductsStock(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture(model.PartInventory{
		PartID:         "partA",
		UnitCost:       decimal.RequireFromString("12.50"),
		QuantityOnHand: 5,
		ReorderLevel:   3,
	})
	f.allocate(t, "partA", 2)

	res, err := f.svc.Complete(context.Background(), f.woID)
	require.NoError(t, err)

	assert.EqualValues(t, 3, f.inv.onHand("partA"))
	assert.Equal(t, "25.00", res.TotalCost.StringFixed(2))
	require.Len(t, res.StockLevels, 1)
	assert.EqualValues(t, 3, res.StockLevels[0].Remaining)
	assert.True(t, res.StockLevels[0].BelowReorder())

	view, err := f.svc.WorkOrder(context.Background(), f.woID)
	require.NoError(t, err)
	require.NotNil(t, view.CompletedAt)
	assert.True(t, view.Allocations[0].Consumed())

	require.Len(t, f.events.sent, 1)
	assert.Equal(t, []string{"partA"}, f.events.sent[0].PartIDs())
}

func TestComplete_SumsDuplicateParts(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 3})
	f.allocate(t, "partA", 2)
	f.allocate(t, "partA", 2)

	_, err := f.svc.Complete(context.Background(), f.woID)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	var insufficient *model.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.EqualValues(t, 4, insufficient.Shortfalls[0].Requested)
	assert.EqualValues(t, 3, f.inv.onHand("partA"))
}

func TestComplete_NamesEveryShortPart(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture(
		model.PartInventory{PartID: "filter", QuantityOnHand: 1},
		model.PartInventory{PartID: "shoe", QuantityOnHand: 10},
		model.PartInventory{PartID: "wiper", QuantityOnHand: 0},
	)
	f.allocate(t, "filter", 2)
	f.allocate(t, "shoe", 4)
	f.allocate(t, "wiper", 1)

	_, err := f.svc.Complete(context.Background(), f.woID)

	var insufficient *model.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, []string{"filter", "wiper"}, insufficient.PartIDs())
	assert.EqualValues(t, 10, f.inv.onHand("shoe"))
}

func TestComplete_ReadsFreshStock(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 5})
	f.allocate(t, "partA", 4)

	// Another work order consumed stock after the allocation was made.
	f.inv.set("partA", 2)

	_, err := f.svc.Complete(context.Background(), f.woID)
	require.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.EqualValues(t, 2, f.inv.onHand("partA"))
}

func TestComplete_AllocationsFrozenAfterwards(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	ctx := context.Background()
	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 5})
	alloc := f.allocate(t, "partA", 1)

	_, err := f.svc.Complete(ctx, f.woID)
	require.NoError(t, err)

	_, err = f.svc.UpdateAllocationQuantity(ctx, alloc.ID, 2)
	assert.ErrorIs(t, err, model.ErrAllocationConsumed)
	assert.ErrorIs(t, f.svc.RemoveAllocation(ctx, alloc.ID), model.ErrAllocationConsumed)

	_, err = f.svc.AddAllocation(ctx, model.AddAllocationParams{WorkOrderID: f.woID, PartID: "partA", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrWorkOrderCompleted)

	_, err = f.svc.Complete(ctx, f.woID)
	assert.ErrorIs(t, err, model.ErrWorkOrderCompleted)
	assert.EqualValues(t, 4, f.inv.onHand("partA"))
}

func TestComplete_EmptyWorkOrder(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	f := newCompletionFixture()

	res, err := f.svc.Complete(context.Background(), f.woID)
	require.NoError(t, err)
	assert.True(t, res.TotalCost.IsZero())
	assert.Empty(t, res.StockLevels)
}

func TestComplete_RestocksWhenConsumeFails(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	woID := uuid.New()
	allocs := []model.PartAllocation{
		{ID: uuid.New(), WorkOrderID: woID, PartID: "partA", Quantity: 2, UnitCost: decimal.NewFromInt(3)},
	}
	demand := []model.StockDeduction{{PartID: "partA", Quantity: 2}}

	d := newDeps(t)
	d.repository.On("CompletedAt", mock.Anything, woID).Return(nil, nil).Once()
	d.repository.On("ListByWorkOrder", mock.Anything, woID).Return(allocs, nil).Once()
	d.inventory.On("PartsByIDs", mock.Anything, []string{"partA"}).
		Return([]model.PartInventory{{PartID: "partA", QuantityOnHand: 5}}, nil).Once()
	d.inventory.On("Deduct", mock.Anything, demand).
		Return([]model.StockLevel{{PartID: "partA", Deducted: 2, Remaining: 3}}, nil).Once()
	d.repository.On("MarkConsumed", mock.Anything, woID, allocs, mock.Anything, mock.Anything).
		Return(errors.New("connection reset")).Once()
	d.inventory.On("Restock", mock.Anything, demand).Return(nil).Once()

	_, err := newSvc(d.repository, d.inventory, d.events).Complete(context.Background(), woID)
	require.Error(t, err)

	d.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestComplete_AllocationAddedDuringCompletion(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	ctx := context.Background()
	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 10})
	f.allocate(t, "partA", 2)

	var late model.PartAllocation
	f.repo.beforeMark = func() {
		f.repo.beforeMark = nil
		late = f.allocate(t, "partA", 5)
	}

	_, err := f.svc.Complete(ctx, f.woID)
	require.ErrorIs(t, err, model.ErrAllocationsChanged)

	assert.EqualValues(t, 10, f.inv.onHand("partA"))
	stored, err := f.repo.AllocationByID(ctx, late.ID)
	require.NoError(t, err)
	assert.False(t, stored.Consumed())
	assert.Empty(t, f.events.sent)

	res, err := f.svc.Complete(ctx, f.woID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.inv.onHand("partA"))
	require.Len(t, res.StockLevels, 1)
	assert.EqualValues(t, 7, res.StockLevels[0].Deducted)
}

func TestComplete_StoreRefusalIsInsufficientStock(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	woID := uuid.New()
	allocs := []model.PartAllocation{{ID: uuid.New(), WorkOrderID: woID, PartID: "partA", Quantity: 2}}

	d := newDeps(t)
	d.repository.On("CompletedAt", mock.Anything, woID).Return(nil, nil).Once()
	d.repository.On("ListByWorkOrder", mock.Anything, woID).Return(allocs, nil).Once()
	d.inventory.On("PartsByIDs", mock.Anything, []string{"partA"}).
		Return([]model.PartInventory{{PartID: "partA", QuantityOnHand: 2}}, nil).Once()
	// Stock moved between the read and the conditional decrement.
	d.inventory.On("Deduct", mock.Anything, mock.Anything).
		Return(nil, &model.InsufficientStockError{Shortfalls: []model.StockShortfall{{PartID: "partA", Requested: 2, Available: 1}}}).Once()

	_, err := newSvc(d.repository, d.inventory, d.events).Complete(context.Background(), woID)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	d.repository.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshOverAllocation(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	ctx := context.Background()
	f := newCompletionFixture(model.PartInventory{PartID: "partA", QuantityOnHand: 10})
	other := f
	other.woID = uuid.New()

	big := f.allocate(t, "partA", 6)
	done := other.allocate(t, "partA", 5)
	assert.False(t, big.OverAllocated)
	assert.False(t, done.OverAllocated)

	_, err := other.svc.Complete(ctx, other.woID)
	require.NoError(t, err)
	require.EqualValues(t, 5, f.inv.onHand("partA"))

	require.NoError(t, f.svc.RefreshOverAllocation(ctx, f.events.sent[0].PartIDs()))

	view, err := f.svc.WorkOrder(ctx, f.woID)
	require.NoError(t, err)
	assert.True(t, view.Allocations[0].OverAllocated)
	assert.Equal(t, []string{"partA"}, view.OverAllocatedParts)
}
