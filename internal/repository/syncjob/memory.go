package repository

import (
	"context"
	"sync"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

// memoryRepository holds jobs for a single process. Two processes each with
// their own memoryRepository can both start a sync for the same tenant.
type memoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]model.SyncJob
}

func NewMemorySyncJobRepository() *memoryRepository {
	return &memoryRepository{jobs: make(map[string]model.SyncJob)}
}

func (r *memoryRepository) Job(_ context.Context, tenantID string) (model.SyncJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[tenantID]
	if !ok {
		return model.NeverRunJob(tenantID), nil
	}
	return job, nil
}

func (r *memoryRepository) Begin(_ context.Context, job model.SyncJob) error {
	if job.TenantID == "" {
		return model.ErrUnknownTenant
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.jobs[job.TenantID]; ok && cur.Status == model.SyncInProgress {
		return model.ErrAlreadyInProgress
	}
	r.jobs[job.TenantID] = job
	return nil
}

func (r *memoryRepository) Save(_ context.Context, job model.SyncJob) error {
	if job.TenantID == "" {
		return model.ErrUnknownTenant
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.TenantID] = job
	return nil
}
