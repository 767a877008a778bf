package syncjob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type Backend interface {
	TriggerSync(ctx context.Context, tenantID string) error
	SyncStatus(ctx context.Context, tenantID string) (model.RemoteSyncReport, error)
}

// JobStore keeps the last known job per tenant.
type JobStore interface {
	// Job returns a never-run job when the tenant has no record.
	Job(ctx context.Context, tenantID string) (model.SyncJob, error)
	// Begin stores job unless the stored job is in progress, in which case
	// it returns model.ErrAlreadyInProgress.
	Begin(ctx context.Context, job model.SyncJob) error
	Save(ctx context.Context, job model.SyncJob) error
}

type SyncEventSender interface {
	Send(ctx context.Context, event model.SyncEvent) error
}

type service struct {
	backend        Backend
	store          JobStore
	events         SyncEventSender
	clockSkew      time.Duration
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration

	now   func() time.Time
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSyncService(
	backend Backend,
	store JobStore,
	events SyncEventSender,
	clockSkew time.Duration,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		backend:        backend,
		store:          store,
		events:         events,
		clockSkew:      clockSkew,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		locks:          make(map[string]*sync.Mutex),
	}
}

// lock serializes operations of one tenant inside this process.
func (svc *service) lock(tenantID string) func() {
	svc.mu.Lock()
	l, ok := svc.locks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		svc.locks[tenantID] = l
	}
	svc.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (svc *service) StartSync(ctx context.Context, tenantID string) (model.SyncJob, error) {
	const op string = "syncjob.service.StartSync"
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

	if prev.Status == model.SyncInProgress {
		log.Warn(ctx, "sync already in progress", logger.Time("started_at", deref(prev.StartedAt)))
		metrics.SyncStartedTotal.WithLabelValues("rejected").Inc()
		return prev, fmt.Errorf("%s: %w", op, model.ErrAlreadyInProgress)
	}

	job := prev
	if err := transition(ctx, &job, eventStart, svc.now(), model.RemoteSyncReport{}); err != nil {
		log.Error(ctx, "start transition", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.begin(ctx, job); err != nil {
		if errors.Is(err, model.ErrAlreadyInProgress) {
			log.Warn(ctx, "sync claimed by another instance")
			metrics.SyncStartedTotal.WithLabelValues("rejected").Inc()
			if current, rerr := svc.job(ctx, tenantID); rerr == nil {
				prev = current
			}
			return prev, fmt.Errorf("%s: %w", op, model.ErrAlreadyInProgress)
		}
		log.Error(ctx, "store begin", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.backend.TriggerSync(ctx, tenantID); err != nil {
		log.Error(ctx, "backend trigger sync", logger.ErrorF(err))
		metrics.SyncStartedTotal.WithLabelValues("trigger_failed").Inc()

		if serr := svc.save(ctx, prev); serr != nil {
			log.Error(ctx, "restore previous job", logger.ErrorF(serr))
		}
		return prev, fmt.Errorf("%s: %w", op, remote(err))
	}

	metrics.SyncStartedTotal.WithLabelValues("started").Inc()
	log.Info(ctx, "sync started", logger.Time("started_at", deref(job.StartedAt)))
	svc.publish(ctx, model.SyncEventStarted, job, prev.Status)

	return job, nil
}

// ResetSync forces the job to completed whatever the backend reports. The
// remote job, if running, is left alone.
func (svc *service) ResetSync(ctx context.Context, tenantID string) (model.SyncJob, error) {
	const op string = "syncjob.service.ResetSync"
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

	job := prev
	if err := transition(ctx, &job, eventReset, svc.now(), model.RemoteSyncReport{}); err != nil {
		log.Error(ctx, "reset transition", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.save(ctx, job); err != nil {
		log.Error(ctx, "store save", logger.ErrorF(err))
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	log.Warn(ctx, "sync status manually reset",
		logger.String("previous_status", string(prev.Status)),
		logger.String("last_remote_status", string(prev.RemoteStatus)),
	)
	metrics.SyncResetTotal.WithLabelValues(string(prev.Status)).Inc()
	svc.publish(ctx, model.SyncEventReset, job, prev.Status)

	return job, nil
}

// CurrentJob returns the last known job without contacting the backend.
func (svc *service) CurrentJob(ctx context.Context, tenantID string) (model.SyncJob, error) {
	const op string = "syncjob.service.CurrentJob"
	if tenantID == "" {
		return model.SyncJob{}, fmt.Errorf("%s: %w", op, model.ErrUnknownTenant)
	}
	ctx = logger.WithTenant(ctx, tenantID)

	job, err := svc.job(ctx, tenantID)
	if err != nil {
		logger.Error(ctx, "store job", logger.ErrorF(err))
		return model.SyncJob{}, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

func (svc *service) job(ctx context.Context, tenantID string) (model.SyncJob, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	return svc.store.Job(ctx, tenantID)
}

func (svc *service) begin(ctx context.Context, job model.SyncJob) error {
	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	return svc.store.Begin(ctx, job)
}

func (svc *service) save(ctx context.Context, job model.SyncJob) error {
	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	return svc.store.Save(ctx, job)
}

func (svc *service) publish(ctx context.Context, typ model.SyncEventType, job model.SyncJob, previous model.SyncStatus) {
	err := svc.events.Send(ctx, model.SyncEvent{
		Type:           typ,
		TenantID:       job.TenantID,
		Job:            job,
		PreviousStatus: previous,
		OccurredAt:     svc.now(),
	})
	if err != nil {
		logger.Error(ctx, "send sync event",
			logger.String("event_type", string(typ)),
			logger.ErrorF(err),
		)
	}
}

func remote(err error) error {
	if errors.Is(err, model.ErrRemoteUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrRemoteUnavailable, err)
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
