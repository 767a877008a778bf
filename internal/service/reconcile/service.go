package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type AllocationRepository interface {
	Create(ctx context.Context, alloc model.PartAllocation) (model.PartAllocation, error)
	AllocationByID(ctx context.Context, id uuid.UUID) (model.PartAllocation, error)
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]model.PartAllocation, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64, overAllocated bool) (model.PartAllocation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CompletedAt(ctx context.Context, workOrderID uuid.UUID) (*time.Time, error)
	MarkConsumed(ctx context.Context, workOrderID uuid.UUID, deducted []model.PartAllocation, at time.Time, total decimal.Decimal) error
	RefreshOverAllocated(ctx context.Context, partID string, onHand int64) (int64, error)
}

// InventoryStore is the shared stock of record. Quantities read from it are
// never cached between calls.
type InventoryStore interface {
	PartByID(ctx context.Context, partID string) (model.PartInventory, error)
	PartsByIDs(ctx context.Context, ids []string) ([]model.PartInventory, error)
	Deduct(ctx context.Context, deductions []model.StockDeduction) ([]model.StockLevel, error)
	Restock(ctx context.Context, deductions []model.StockDeduction) error
}

type CompletionSender interface {
	Send(ctx context.Context, event model.WorkOrderCompleted) error
}

type service struct {
	repo           AllocationRepository
	inventory      InventoryStore
	events         CompletionSender
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration

	now func() time.Time
}

func NewReconcileService(
	repository AllocationRepository,
	inventory InventoryStore,
	events CompletionSender,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repository,
		inventory:      inventory,
		events:         events,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (svc *service) AddAllocation(ctx context.Context, params model.AddAllocationParams) (model.PartAllocation, error) {
	const op string = "reconcile.service.AddAllocation"
	log := logger.With(
		logger.String("work_order_id", params.WorkOrderID.String()),
		logger.String("part_id", params.PartID),
		logger.Int64("quantity", params.Quantity),
	)

	if params.Quantity <= 0 {
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, model.ErrInvalidQuantity)
	}
	if params.WorkOrderID == uuid.Nil || params.PartID == "" {
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, model.ErrValidation)
	}
	if params.UnitCostOverride != nil && !model.ValidUnitCost(*params.UnitCostOverride) {
		return model.PartAllocation{}, fmt.Errorf("%s: %w: invalid unit cost %s", op, model.ErrValidation, params.UnitCostOverride)
	}

	if err := svc.ensureOpen(ctx, params.WorkOrderID); err != nil {
		log.Error(ctx, "work order state", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}

	part, err := svc.part(ctx, params.PartID)
	if err != nil {
		log.Error(ctx, "inventory part by id", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}

	alloc := model.PartAllocation{
		WorkOrderID:   params.WorkOrderID,
		PartID:        params.PartID,
		Quantity:      params.Quantity,
		UnitCost:      part.UnitCost,
		OverAllocated: params.Quantity > part.QuantityOnHand,
	}
	if params.UnitCostOverride != nil {
		alloc.UnitCost = *params.UnitCostOverride
	}
	if !model.ValidUnitCost(alloc.UnitCost) {
		log.Error(ctx, "catalog unit cost out of range", logger.String("unit_cost", alloc.UnitCost.String()))
		return model.PartAllocation{}, fmt.Errorf("%s: %w: invalid unit cost %s", op, model.ErrValidation, alloc.UnitCost)
	}
	if alloc.OverAllocated {
		warnOverAllocated(ctx, alloc, part.QuantityOnHand)
	}

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	created, err := svc.repo.Create(wdbCtx, alloc)
	if err != nil {
		log.Error(ctx, "repository create allocation", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (svc *service) UpdateAllocationQuantity(
	ctx context.Context,
	id uuid.UUID,
	quantity int64,
) (model.PartAllocation, error) {
	const op string = "reconcile.service.UpdateAllocationQuantity"
	log := logger.With(
		logger.String("allocation_id", id.String()),
		logger.Int64("quantity", quantity),
	)

	if quantity <= 0 {
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, model.ErrInvalidQuantity)
	}

	alloc, err := svc.allocation(ctx, id)
	if err != nil {
		log.Error(ctx, "repository allocation by id", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}
	if alloc.Consumed() {
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, model.ErrAllocationConsumed)
	}

	onHand, err := svc.onHand(ctx, alloc.PartID)
	if err != nil {
		log.Error(ctx, "inventory part by id", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}

	alloc.Quantity = quantity
	alloc.OverAllocated = quantity > onHand
	if alloc.OverAllocated {
		warnOverAllocated(ctx, alloc, onHand)
	}

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	updated, err := svc.repo.UpdateQuantity(wdbCtx, id, quantity, alloc.OverAllocated)
	if err != nil {
		log.Error(ctx, "repository update quantity", logger.ErrorF(err))
		return model.PartAllocation{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// RemoveAllocation drops an open allocation. Stock is untouched because open
// allocations never decremented it.
func (svc *service) RemoveAllocation(ctx context.Context, id uuid.UUID) error {
	const op string = "reconcile.service.RemoveAllocation"
	log := logger.With(logger.String("allocation_id", id.String()))

	alloc, err := svc.allocation(ctx, id)
	if err != nil {
		log.Error(ctx, "repository allocation by id", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if alloc.Consumed() {
		return fmt.Errorf("%s: %w", op, model.ErrAllocationConsumed)
	}

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	if err := svc.repo.Delete(wdbCtx, id); err != nil {
		log.Error(ctx, "repository delete allocation", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (svc *service) TotalCost(ctx context.Context, workOrderID uuid.UUID) (decimal.Decimal, error) {
	const op string = "reconcile.service.TotalCost"

	allocs, err := svc.allocations(ctx, workOrderID)
	if err != nil {
		logger.Error(ctx, "repository list allocations",
			logger.String("work_order_id", workOrderID.String()),
			logger.ErrorF(err),
		)
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return model.TotalCost(allocs), nil
}

func (svc *service) WorkOrder(ctx context.Context, workOrderID uuid.UUID) (model.WorkOrderView, error) {
	const op string = "reconcile.service.WorkOrder"
	log := logger.With(logger.String("work_order_id", workOrderID.String()))

	allocs, err := svc.allocations(ctx, workOrderID)
	if err != nil {
		log.Error(ctx, "repository list allocations", logger.ErrorF(err))
		return model.WorkOrderView{}, fmt.Errorf("%s: %w", op, err)
	}

	completedAt, err := svc.completedAt(ctx, workOrderID)
	if err != nil {
		log.Error(ctx, "repository completed at", logger.ErrorF(err))
		return model.WorkOrderView{}, fmt.Errorf("%s: %w", op, err)
	}

	over := lo.Uniq(lo.FilterMap(allocs, func(a model.PartAllocation, _ int) (string, bool) {
		return a.PartID, a.OverAllocated && !a.Consumed()
	}))

	return model.WorkOrderView{
		WorkOrderID:        workOrderID,
		Allocations:        allocs,
		TotalCost:          model.TotalCost(allocs),
		CompletedAt:        completedAt,
		OverAllocatedParts: over,
	}, nil
}

func (svc *service) ensureOpen(ctx context.Context, workOrderID uuid.UUID) error {
	completedAt, err := svc.completedAt(ctx, workOrderID)
	if err != nil {
		return err
	}
	if completedAt != nil {
		return model.ErrWorkOrderCompleted
	}
	return nil
}

func (svc *service) completedAt(ctx context.Context, workOrderID uuid.UUID) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	return svc.repo.CompletedAt(ctx, workOrderID)
}

func (svc *service) allocation(ctx context.Context, id uuid.UUID) (model.PartAllocation, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	return svc.repo.AllocationByID(ctx, id)
}

func (svc *service) allocations(ctx context.Context, workOrderID uuid.UUID) ([]model.PartAllocation, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	return svc.repo.ListByWorkOrder(ctx, workOrderID)
}

func (svc *service) part(ctx context.Context, partID string) (model.PartInventory, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	return svc.inventory.PartByID(ctx, partID)
}

// onHand reads current stock; a part gone from the catalog has none.
func (svc *service) onHand(ctx context.Context, partID string) (int64, error) {
	part, err := svc.part(ctx, partID)
	if err != nil {
		if errors.Is(err, model.ErrPartNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return part.QuantityOnHand, nil
}

func warnOverAllocated(ctx context.Context, alloc model.PartAllocation, onHand int64) {
	metrics.OverAllocatedTotal.Inc()
	logger.Warn(ctx, "allocation exceeds on-hand stock",
		logger.String("work_order_id", alloc.WorkOrderID.String()),
		logger.String("part_id", alloc.PartID),
		logger.Int64("quantity", alloc.Quantity),
		logger.Int64("quantity_on_hand", onHand),
	)
}
