package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

// PollStatus reads the backend status once and folds it into the stored
// job. A failed read leaves the stored job untouched and returns it along
// with model.ErrTransientSyncReadFailure.
func (svc *service) PollStatus(ctx context.Context, tenantID string) (model.SyncJob, error) {
	const op string = "syncjob.service.PollStatus"
	if tenantID == "" {
		return model.SyncJob{}, fmt.Errorf("%s: %w", op, model.ErrUnknownTenant)
	}
	ctx = logger.WithTenant(ctx, tenantID)
	log := logger.L()

	defer svc.lock(tenantID)()

	prev, err := svc.job(ctx, tenantID)
	if err != nil {
		log.Error(ctx, "store job", logger.ErrorF(err))
		return model.SyncJob{}, fmt.Errorf("%s: %w", op, err)
	}

	report, err := svc.backend.SyncStatus(ctx, tenantID)
	if err != nil {
		log.Warn(ctx, "backend sync status", logger.ErrorF(err))
		metrics.SyncPollTotal.WithLabelValues("transient_failure").Inc()
		return prev, fmt.Errorf("%s: %w: %w", op, model.ErrTransientSyncReadFailure, err)
	}

	job, event, err := svc.observe(ctx, prev, report, svc.now())
	if err != nil {
		log.Error(ctx, "apply remote status", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.save(ctx, job); err != nil {
		log.Error(ctx, "store save", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	metrics.SyncPollTotal.WithLabelValues("ok").Inc()
	if event != "" {
		log.Info(ctx, "sync finished",
			logger.String("status", string(job.Status)),
			logger.Int64("created", job.CreatedCount),
			logger.Int64("updated", job.UpdatedCount),
		)
		svc.publish(ctx, event, job, prev.Status)
	}

	return job, nil
}

// observe returns prev updated with report and the event to publish, if any.
func (svc *service) observe(
	ctx context.Context,
	prev model.SyncJob,
	report model.RemoteSyncReport,
	now time.Time,
) (model.SyncJob, model.SyncEventType, error) {
	job := prev
	job.RemoteStatus = report.Status
	job.PolledAt = &now

	switch prev.Status {
	case model.SyncInProgress:
		if report.Status != model.RemoteCompleted && report.Status != model.RemoteError {
			return job, "", nil
		}
		if svc.staleReport(prev, report) {
			logger.Debug(ctx, "ignoring terminal status of an earlier run",
				logger.Time("latest_sync", deref(report.LatestSyncAt)),
				logger.Time("started_at", deref(prev.StartedAt)),
			)
			return job, "", nil
		}

		event, typ := eventComplete, model.SyncEventCompleted
		if report.Status == model.RemoteError {
			event, typ = eventFail, model.SyncEventFailed
		}
		if err := transition(ctx, &job, event, now, report); err != nil {
			return prev, "", err
		}
		return job, typ, nil
	case model.SyncCompleted:
		if prev.Origin == model.OriginManualReset && report.Status == model.RemoteInProgress {
			logger.Warn(ctx, "remote sync still running after manual reset",
				logger.Time("reset_at", deref(prev.CompletedAt)),
			)
		}
	}

	return job, "", nil
}

// staleReport reports a terminal status timestamped before the local run
// started, allowing for clock skew between this process and the backend.
func (svc *service) staleReport(job model.SyncJob, report model.RemoteSyncReport) bool {
	if report.LatestSyncAt == nil || job.StartedAt == nil {
		return false
	}
	return report.LatestSyncAt.Before(job.StartedAt.Add(-svc.clockSkew))
}
