package model

import "time"

type SyncStatus string

const (
	SyncNeverRun   SyncStatus = "never_run"
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncError      SyncStatus = "error"
)

func (s SyncStatus) Terminal() bool {
	return s == SyncCompleted || s == SyncError
}

// SyncOrigin records how a job reached its current status.
type SyncOrigin string

const (
	OriginObserved    SyncOrigin = "observed"
	OriginManualReset SyncOrigin = "manual_reset"
)

type RemoteSyncStatus string

const (
	RemoteCompleted  RemoteSyncStatus = "completed"
	RemoteInProgress RemoteSyncStatus = "in_progress"
	RemoteError      RemoteSyncStatus = "error"
	RemoteUnknown    RemoteSyncStatus = "unknown"
)

type SyncJob struct {
	TenantID      string
	Status        SyncStatus
	Origin        SyncOrigin
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedCount  int64
	UpdatedCount  int64
	DetailMessage string
	// Last status reported by the backend and when it was read.
	RemoteStatus RemoteSyncStatus
	PolledAt     *time.Time
}

func NeverRunJob(tenantID string) SyncJob {
	return SyncJob{TenantID: tenantID, Status: SyncNeverRun, Origin: OriginObserved}
}

// Stalled reports an in-progress job running longer than staleAfter.
func (j SyncJob) Stalled(now time.Time, staleAfter time.Duration) bool {
	if j.Status != SyncInProgress || j.StartedAt == nil || staleAfter <= 0 {
		return false
	}
	return now.Sub(*j.StartedAt) > staleAfter
}

// RemoteSyncReport is the backend's view of the latest sync run.
type RemoteSyncReport struct {
	Status        RemoteSyncStatus
	LatestSyncAt  *time.Time
	CreatedCount  int64
	UpdatedCount  int64
	DetailMessage string
}
