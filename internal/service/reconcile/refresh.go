package reconcile

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

// RefreshOverAllocation re-evaluates the over-allocated flag of every open
// allocation of the given parts against current stock.
func (svc *service) RefreshOverAllocation(ctx context.Context, ids []string) error {
	const op string = "reconcile.service.RefreshOverAllocation"

	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return nil
	}

	rdbCtx, rdbCancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer rdbCancel()

	parts, err := svc.inventory.PartsByIDs(rdbCtx, ids)
	if err != nil {
		logger.Error(ctx, "inventory parts by ids", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	onHand := lo.SliceToMap(parts, func(p model.PartInventory) (string, int64) {
		return p.PartID, p.QuantityOnHand
	})

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	for _, id := range ids {
		changed, err := svc.repo.RefreshOverAllocated(wdbCtx, id, onHand[id])
		if err != nil {
			logger.Error(ctx, "repository refresh over-allocated",
				logger.String("part_id", id),
				logger.ErrorF(err),
			)
			return fmt.Errorf("%s: %w", op, err)
		}
		if changed > 0 {
			logger.Info(ctx, "over-allocation flags refreshed",
				logger.String("part_id", id),
				logger.Int64("quantity_on_hand", onHand[id]),
				logger.Int64("changed", changed),
			)
		}
	}

	return nil
}
