package repository

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const table = "sync_jobs"

var columns = []string{
	"tenant_id",
	"status",
	"origin",
	"started_at",
	"completed_at",
	"created_count",
	"updated_count",
	"detail_message",
	"remote_status",
	"polled_at",
}

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewSyncJobRepository keeps jobs in Postgres. Begin is a conditional
// upsert, so the in-progress claim holds across every instance sharing the
// database.
func NewSyncJobRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Job(ctx context.Context, tenantID string) (model.SyncJob, error) {
	q := r.sb.
		Select(columns...).
		From(table).
		Where(sq.Eq{"tenant_id": tenantID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return model.SyncJob{}, err
	}

	var rec record
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&rec.TenantID,
		&rec.Status,
		&rec.Origin,
		&rec.StartedAt,
		&rec.CompletedAt,
		&rec.CreatedCount,
		&rec.UpdatedCount,
		&rec.DetailMessage,
		&rec.RemoteStatus,
		&rec.PolledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NeverRunJob(tenantID), nil
		}
		return model.SyncJob{}, err
	}

	return recordToModel(rec), nil
}

func (r *repository) Begin(ctx context.Context, job model.SyncJob) error {
	sqlStr, args, err := r.upsert(job, true)
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrAlreadyInProgress
	}

	return nil
}

func (r *repository) Save(ctx context.Context, job model.SyncJob) error {
	sqlStr, args, err := r.upsert(job, false)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return err
	}

	return nil
}

func (r *repository) upsert(job model.SyncJob, exclusive bool) (string, []any, error) {
	if job.TenantID == "" {
		return "", nil, model.ErrUnknownTenant
	}
	rec := recordFromModel(job)

	set := make([]string, 0, len(columns))
	for _, c := range columns[1:] {
		set = append(set, c+" = EXCLUDED."+c)
	}
	set = append(set, "updated_at = now()")

	suffix := "ON CONFLICT (tenant_id) DO UPDATE SET " + strings.Join(set, ", ")
	var suffixArgs []any
	if exclusive {
		suffix += " WHERE " + table + ".status <> ?"
		suffixArgs = append(suffixArgs, string(model.SyncInProgress))
	}

	return r.sb.
		Insert(table).
		Columns(columns...).
		Values(
			rec.TenantID,
			rec.Status,
			rec.Origin,
			rec.StartedAt,
			rec.CompletedAt,
			rec.CreatedCount,
			rec.UpdatedCount,
			rec.DetailMessage,
			rec.RemoteStatus,
			rec.PolledAt,
		).
		Suffix(suffix, suffixArgs...).
		ToSql()
}
