package repository

import (
	"time"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type record struct {
	TenantID      string
	Status        string
	Origin        string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedCount  int64
	UpdatedCount  int64
	DetailMessage *string
	RemoteStatus  *string
	PolledAt      *time.Time
}

func recordFromModel(job model.SyncJob) record {
	rec := record{
		TenantID:     job.TenantID,
		Status:       string(job.Status),
		Origin:       string(job.Origin),
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CreatedCount: job.CreatedCount,
		UpdatedCount: job.UpdatedCount,
		PolledAt:     job.PolledAt,
	}
	if rec.Status == "" {
		rec.Status = string(model.SyncNeverRun)
	}
	if rec.Origin == "" {
		rec.Origin = string(model.OriginObserved)
	}
	if job.DetailMessage != "" {
		rec.DetailMessage = &job.DetailMessage
	}
	if job.RemoteStatus != "" {
		s := string(job.RemoteStatus)
		rec.RemoteStatus = &s
	}
	return rec
}

func recordToModel(rec record) model.SyncJob {
	job := model.SyncJob{
		TenantID:     rec.TenantID,
		Status:       model.SyncStatus(rec.Status),
		Origin:       model.SyncOrigin(rec.Origin),
		StartedAt:    utc(rec.StartedAt),
		CompletedAt:  utc(rec.CompletedAt),
		CreatedCount: rec.CreatedCount,
		UpdatedCount: rec.UpdatedCount,
		PolledAt:     utc(rec.PolledAt),
	}
	if rec.DetailMessage != nil {
		job.DetailMessage = *rec.DetailMessage
	}
	if rec.RemoteStatus != nil {
		job.RemoteStatus = model.RemoteSyncStatus(*rec.RemoteStatus)
	}
	return job
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
