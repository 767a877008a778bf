package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const (
	allocationsTable = "part_allocations"
	completionsTable = "work_order_completions"
)

var allocationColumns = []string{
	"id",
	"work_order_id",
	"part_id",
	"quantity",
	"unit_cost::text",
	"over_allocated",
	"consumed_at",
	"created_at",
	"updated_at",
}

var returning = "RETURNING " + strings.Join(allocationColumns, ", ")

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewAllocationRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, alloc model.PartAllocation) (model.PartAllocation, error) {
	q := r.sb.
		Insert(allocationsTable).
		Columns("work_order_id", "part_id", "quantity", "unit_cost", "over_allocated").
		Values(alloc.WorkOrderID, alloc.PartID, alloc.Quantity, alloc.UnitCost.String(), alloc.OverAllocated).
		Suffix(returning)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return model.PartAllocation{}, err
	}

	return scanAllocation(r.pool.QueryRow(ctx, sqlStr, args...))
}

func (r *repository) AllocationByID(ctx context.Context, id uuid.UUID) (model.PartAllocation, error) {
	q := r.sb.
		Select(allocationColumns...).
		From(allocationsTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return model.PartAllocation{}, err
	}

	alloc, err := scanAllocation(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PartAllocation{}, model.ErrAllocationNotFound
		}
		return model.PartAllocation{}, err
	}

	return alloc, nil
}

func (r *repository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]model.PartAllocation, error) {
	q := r.sb.
		Select(allocationColumns...).
		From(allocationsTable).
		Where(sq.Eq{"work_order_id": workOrderID}).
		OrderBy("created_at", "id")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PartAllocation, 0)
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alloc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *repository) UpdateQuantity(
	ctx context.Context,
	id uuid.UUID,
	quantity int64,
	overAllocated bool,
) (model.PartAllocation, error) {
	q := r.sb.
		Update(allocationsTable).
		Set("quantity", quantity).
		Set("over_allocated", overAllocated).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "consumed_at": nil}).
		Suffix(returning)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return model.PartAllocation{}, err
	}

	alloc, err := scanAllocation(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PartAllocation{}, r.missing(ctx, id)
		}
		return model.PartAllocation{}, err
	}

	return alloc, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.sb.
		Delete(allocationsTable).
		Where(sq.Eq{"id": id, "consumed_at": nil})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.missing(ctx, id)
	}

	return nil
}

// missing explains why a write guarded by consumed_at IS NULL hit no row.
func (r *repository) missing(ctx context.Context, id uuid.UUID) error {
	alloc, err := r.AllocationByID(ctx, id)
	if err != nil {
		return err
	}
	if alloc.Consumed() {
		return model.ErrAllocationConsumed
	}
	return model.ErrAllocationNotFound
}

func (r *repository) CompletedAt(ctx context.Context, workOrderID uuid.UUID) (*time.Time, error) {
	q := r.sb.
		Select("completed_at").
		From(completionsTable).
		Where(sq.Eq{"work_order_id": workOrderID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var at time.Time
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	at = at.UTC()
	return &at, nil
}

// MarkConsumed records the completion and freezes exactly the allocations
// that were deducted, in one transaction. If any of them changed or another
// open allocation appeared on the work order, nothing is written and
// model.ErrAllocationsChanged is returned.
func (r *repository) MarkConsumed(
	ctx context.Context,
	workOrderID uuid.UUID,
	deducted []model.PartAllocation,
	at time.Time,
	total decimal.Decimal,
) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	insert, args, err := r.sb.
		Insert(completionsTable).
		Columns("work_order_id", "completed_at", "total_cost").
		Values(workOrderID, at, total.String()).
		Suffix("ON CONFLICT (work_order_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, insert, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrWorkOrderCompleted
	}

	expected := make(map[uuid.UUID]int64, len(deducted))
	ids := make([]uuid.UUID, 0, len(deducted))
	for _, a := range deducted {
		expected[a.ID] = a.Quantity
		ids = append(ids, a.ID)
	}

	update, args, err := r.sb.
		Update(allocationsTable).
		Set("consumed_at", at).
		Set("over_allocated", false).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"work_order_id": workOrderID, "consumed_at": nil, "id": ids}).
		Suffix("RETURNING id, quantity").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := tx.Query(ctx, update, args...)
	if err != nil {
		return err
	}
	frozen := 0
	for rows.Next() {
		var (
			id  uuid.UUID
			qty int64
		)
		if err = rows.Scan(&id, &qty); err != nil {
			rows.Close()
			return err
		}
		if want, ok := expected[id]; !ok || want != qty {
			rows.Close()
			return model.ErrAllocationsChanged
		}
		frozen++
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}
	if frozen != len(deducted) {
		return model.ErrAllocationsChanged
	}

	count, args, err := r.sb.
		Select("count(*)").
		From(allocationsTable).
		Where(sq.Eq{"work_order_id": workOrderID, "consumed_at": nil}).
		ToSql()
	if err != nil {
		return err
	}

	var open int64
	if err = tx.QueryRow(ctx, count, args...).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return model.ErrAllocationsChanged
	}

	return tx.Commit(ctx)
}

// RefreshOverAllocated re-flags every open allocation of partID against
// onHand and returns how many flags changed.
func (r *repository) RefreshOverAllocated(ctx context.Context, partID string, onHand int64) (int64, error) {
	q := r.sb.
		Update(allocationsTable).
		Set("over_allocated", sq.Expr("quantity > ?", onHand)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"part_id": partID, "consumed_at": nil}).
		Where(sq.Expr("over_allocated <> (quantity > ?)", onHand))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}

	return ct.RowsAffected(), nil
}

func scanAllocation(row pgx.Row) (model.PartAllocation, error) {
	var (
		alloc model.PartAllocation
		cost  string
	)
	err := row.Scan(
		&alloc.ID,
		&alloc.WorkOrderID,
		&alloc.PartID,
		&alloc.Quantity,
		&cost,
		&alloc.OverAllocated,
		&alloc.ConsumedAt,
		&alloc.CreatedAt,
		&alloc.UpdatedAt,
	)
	if err != nil {
		return model.PartAllocation{}, err
	}

	alloc.UnitCost, err = decimal.NewFromString(cost)
	if err != nil {
		return model.PartAllocation{}, err
	}
	if alloc.ConsumedAt != nil {
		t := alloc.ConsumedAt.UTC()
		alloc.ConsumedAt = &t
	}
	alloc.CreatedAt = alloc.CreatedAt.UTC()
	alloc.UpdatedAt = alloc.UpdatedAt.UTC()

	return alloc, nil
}
