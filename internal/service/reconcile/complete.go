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

// Complete converts the work order's open allocations into a stock
// deduction. Stock is re-read right before deciding, every short part is
// reported at once, and the decrement itself is a conditional write in the
// inventory store.
func (svc *service) Complete(ctx context.Context, workOrderID uuid.UUID) (model.CompletionResult, error) {
	const op string = "reconcile.service.Complete"
	log := logger.With(logger.String("work_order_id", workOrderID.String()))

	if workOrderID == uuid.Nil {
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, model.ErrValidation)
	}

	if err := svc.ensureOpen(ctx, workOrderID); err != nil {
		log.Error(ctx, "work order state", logger.ErrorF(err))
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	allocs, err := svc.allocations(ctx, workOrderID)
	if err != nil {
		log.Error(ctx, "repository list allocations", logger.ErrorF(err))
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	open := lo.Filter(allocs, func(a model.PartAllocation, _ int) bool { return !a.Consumed() })
	demand := aggregate(open)

	stock, err := svc.stock(ctx, demand)
	if err != nil {
		log.Error(ctx, "inventory parts by ids", logger.ErrorF(err))
		metrics.CompletionTotal.WithLabelValues("failed").Inc()
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if shortfalls := shortfallsOf(demand, stock); len(shortfalls) > 0 {
		return model.CompletionResult{}, svc.refuse(ctx, op, &model.InsufficientStockError{Shortfalls: shortfalls})
	}

	levels, err := svc.deduct(ctx, demand)
	if err != nil {
		var insufficient *model.InsufficientStockError
		if errors.As(err, &insufficient) {
			return model.CompletionResult{}, svc.refuse(ctx, op, insufficient)
		}
		log.Error(ctx, "inventory deduct", logger.ErrorF(err))
		metrics.CompletionTotal.WithLabelValues("failed").Inc()
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	completedAt := svc.now()
	total := model.TotalCost(open)

	if err := svc.markConsumed(ctx, workOrderID, open, completedAt, total); err != nil {
		log.Error(ctx, "repository mark consumed", logger.ErrorF(err))
		if rerr := svc.inventory.Restock(context.WithoutCancel(ctx), demand); rerr != nil {
			log.Error(ctx, "inventory restock after failed completion",
				logger.Strings("part_ids", partIDs(demand)),
				logger.ErrorF(rerr),
			)
		}
		metrics.CompletionTotal.WithLabelValues("failed").Inc()
		return model.CompletionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	for _, l := range levels {
		if l.BelowReorder() {
			log.Warn(ctx, "part at or below reorder level",
				logger.String("part_id", l.PartID),
				logger.Int64("remaining", l.Remaining),
				logger.Int64("reorder_level", l.ReorderLevel),
			)
		}
	}

	metrics.CompletionTotal.WithLabelValues("completed").Inc()
	log.Info(ctx, "work order completed",
		logger.Int("parts", len(levels)),
		logger.String("total_cost", total.StringFixed(2)),
	)

	event := model.WorkOrderCompleted{
		WorkOrderID: workOrderID,
		CompletedAt: completedAt,
		StockLevels: levels,
	}
	if err := svc.events.Send(ctx, event); err != nil {
		log.Error(ctx, "send work order completed", logger.ErrorF(err))
	}

	return model.CompletionResult{
		WorkOrderID: workOrderID,
		CompletedAt: completedAt,
		TotalCost:   total,
		StockLevels: levels,
	}, nil
}

func (svc *service) refuse(ctx context.Context, op string, err *model.InsufficientStockError) error {
	metrics.CompletionTotal.WithLabelValues("insufficient_stock").Inc()
	logger.Warn(ctx, "completion refused: insufficient stock",
		logger.Strings("part_ids", err.PartIDs()),
	)
	return fmt.Errorf("%s: %w", op, err)
}

func (svc *service) stock(ctx context.Context, demand []model.StockDeduction) (map[string]int64, error) {
	if len(demand) == 0 {
		return map[string]int64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	parts, err := svc.inventory.PartsByIDs(ctx, partIDs(demand))
	if err != nil {
		return nil, err
	}

	return lo.SliceToMap(parts, func(p model.PartInventory) (string, int64) {
		return p.PartID, p.QuantityOnHand
	}), nil
}

func (svc *service) deduct(ctx context.Context, demand []model.StockDeduction) ([]model.StockLevel, error) {
	if len(demand) == 0 {
		return []model.StockLevel{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	return svc.inventory.Deduct(ctx, demand)
}

func (svc *service) markConsumed(
	ctx context.Context,
	workOrderID uuid.UUID,
	deducted []model.PartAllocation,
	at time.Time,
	total decimal.Decimal,
) error {
	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	return svc.repo.MarkConsumed(ctx, workOrderID, deducted, at, total)
}

// aggregate sums quantities per part, keeping first-seen order.
func aggregate(allocs []model.PartAllocation) []model.StockDeduction {
	out := make([]model.StockDeduction, 0, len(allocs))
	index := make(map[string]int, len(allocs))
	for _, a := range allocs {
		if i, ok := index[a.PartID]; ok {
			out[i].Quantity += a.Quantity
			continue
		}
		index[a.PartID] = len(out)
		out = append(out, model.StockDeduction{PartID: a.PartID, Quantity: a.Quantity})
	}
	return out
}

// shortfallsOf compares demand with stock; parts missing from stock count
// as zero on hand.
func shortfallsOf(demand []model.StockDeduction, stock map[string]int64) []model.StockShortfall {
	var out []model.StockShortfall
	for _, d := range demand {
		if available := stock[d.PartID]; d.Quantity > available {
			out = append(out, model.StockShortfall{
				PartID:    d.PartID,
				Requested: d.Quantity,
				Available: available,
			})
		}
	}
	return out
}

func partIDs(ds []model.StockDeduction) []string {
	return lo.Map(ds, func(d model.StockDeduction, _ int) string { return d.PartID })
}
