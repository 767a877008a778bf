package syncjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const (
	eventStart    = "start"
	eventComplete = "complete"
	eventFail     = "fail"
	eventReset    = "reset"
)

const resetDetail = "Manually reset sync status"

var (
	neverRun   = string(model.SyncNeverRun)
	inProgress = string(model.SyncInProgress)
	completed  = string(model.SyncCompleted)
	failed     = string(model.SyncError)
)

func newLifecycle(status model.SyncStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(status),
		fsm.Events{
			{Name: eventStart, Src: []string{neverRun, completed, failed}, Dst: inProgress},
			{Name: eventComplete, Src: []string{inProgress}, Dst: completed},
			{Name: eventFail, Src: []string{inProgress}, Dst: failed},

			// Operator override, allowed from every status.
			{Name: eventReset, Src: []string{neverRun, inProgress, completed, failed}, Dst: completed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				metrics.SyncTransitionsTotal.WithLabelValues(e.Dst).Inc()
			},
		},
	)
}

// transition moves job through event and fills the fields owned by the
// destination status. report is only read for complete and fail.
func transition(
	ctx context.Context,
	job *model.SyncJob,
	event string,
	now time.Time,
	report model.RemoteSyncReport,
) error {
	previous := job.Status

	machine := newLifecycle(previous)
	if err := machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return fmt.Errorf("%s from %s: %w", event, previous, err)
		}
	}
	job.Status = model.SyncStatus(machine.Current())

	switch event {
	case eventStart:
		job.Origin = model.OriginObserved
		job.StartedAt = &now
		job.CompletedAt = nil
		job.CreatedCount = 0
		job.UpdatedCount = 0
		job.DetailMessage = ""
	case eventComplete:
		job.Origin = model.OriginObserved
		job.CompletedAt = finishedAt(report, now)
		job.CreatedCount = max(report.CreatedCount, 0)
		job.UpdatedCount = max(report.UpdatedCount, 0)
		job.DetailMessage = report.DetailMessage
	case eventFail:
		job.Origin = model.OriginObserved
		job.CompletedAt = finishedAt(report, now)
		job.CreatedCount = 0
		job.UpdatedCount = 0
		job.DetailMessage = report.DetailMessage
		if job.DetailMessage == "" {
			job.DetailMessage = "Sync failed"
		}
	case eventReset:
		job.Origin = model.OriginManualReset
		job.CompletedAt = &now
		job.CreatedCount = 0
		job.UpdatedCount = 0
		job.DetailMessage = fmt.Sprintf("%s (previous status %s)", resetDetail, previous)
	}

	return nil
}

func finishedAt(report model.RemoteSyncReport, now time.Time) *time.Time {
	if report.LatestSyncAt != nil {
		t := *report.LatestSyncAt
		return &t
	}
	return &now
}
