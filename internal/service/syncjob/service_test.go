package syncjob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	syncRepository "github.com/bbroten90/CWSFleetdms-sub000/internal/repository/syncjob"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/service/mocks"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

const testSkew = time.Minute

var (
	t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(10 * time.Minute)
)

type deps struct {
	backend *mocks.MockSyncBackend
	store   *mocks.MockJobStore
	events  *mocks.MockSyncEventSender
}

func newDeps(t *testing.T) deps {
	return deps{
		backend: mocks.NewMockSyncBackend(t),
		store:   mocks.NewMockJobStore(t),
		events:  mocks.NewMockSyncEventSender(t),
	}
}

func newTestService(b Backend, s JobStore, e SyncEventSender, now time.Time) *service {
	svc := NewSyncService(b, s, e, testSkew, time.Second, time.Second)
	svc.now = func() time.Time { return now }
	return svc
}

func inProgressJob(tenantID string, startedAt time.Time) model.SyncJob {
	return model.SyncJob{
		TenantID:  tenantID,
		Status:    model.SyncInProgress,
		Origin:    model.OriginObserved,
		StartedAt: &startedAt,
	}
}

func TestServiceStartSync(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()

	type testCase struct {
		name     string
		tenantID string
		setup    func(d deps)
		assert   func(t *testing.T, job model.SyncJob, err error, d deps)
	}

	tests := []testCase{
		{
			name:     "unknown tenant",
			tenantID: "",
			setup:    func(d deps) {},
			assert: func(t *testing.T, _ model.SyncJob, err error, d deps) {
				require.ErrorIs(t, err, model.ErrUnknownTenant)
			},
		},
		{
			name:     "rejected locally while in progress",
			tenantID: tenantID,
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.ErrorIs(t, err, model.ErrAlreadyInProgress)
				require.NotNil(t, job.StartedAt)
				assert.Equal(t, t0, *job.StartedAt)

				d.store.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
				d.backend.AssertNotCalled(t, "TriggerSync", mock.Anything, mock.Anything)
				d.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			},
		},
		{
			name:     "starts from never run",
			tenantID: tenantID,
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(model.NeverRunJob(tenantID), nil).Once()
				d.store.On("Begin", mock.Anything, mock.MatchedBy(func(j model.SyncJob) bool {
					return j.Status == model.SyncInProgress && j.StartedAt != nil && j.StartedAt.Equal(t1)
				})).Return(nil).Once()
				d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Once()
				d.events.On("Send", mock.Anything, mock.MatchedBy(func(e model.SyncEvent) bool {
					return e.Type == model.SyncEventStarted && e.PreviousStatus == model.SyncNeverRun
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncInProgress, job.Status)
				assert.Equal(t, model.OriginObserved, job.Origin)
				assert.Nil(t, job.CompletedAt)
				assert.Zero(t, job.CreatedCount)
			},
		},
		{
			name:     "restarts after error and clears previous outcome",
			tenantID: tenantID,
			setup: func(d deps) {
				prev := model.SyncJob{
					TenantID:      tenantID,
					Status:        model.SyncError,
					StartedAt:     &t0,
					CompletedAt:   &t0,
					DetailMessage: "provider timeout",
				}
				d.store.On("Job", mock.Anything, tenantID).Return(prev, nil).Once()
				d.store.On("Begin", mock.Anything, mock.Anything).Return(nil).Once()
				d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Once()
				d.events.On("Send", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncInProgress, job.Status)
				assert.Empty(t, job.DetailMessage)
				assert.Nil(t, job.CompletedAt)
			},
		},
		{
			name:     "claimed by another instance",
			tenantID: tenantID,
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(model.NeverRunJob(tenantID), nil).Once()
				d.store.On("Begin", mock.Anything, mock.Anything).Return(model.ErrAlreadyInProgress).Once()
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.ErrorIs(t, err, model.ErrAlreadyInProgress)
				assert.Equal(t, model.SyncInProgress, job.Status)
				assert.Equal(t, t0, *job.StartedAt)

				d.backend.AssertNotCalled(t, "TriggerSync", mock.Anything, mock.Anything)
			},
		},
		{
			name:     "trigger failure restores previous job",
			tenantID: tenantID,
			setup: func(d deps) {
				prev := model.SyncJob{TenantID: tenantID, Status: model.SyncCompleted, CompletedAt: &t0, CreatedCount: 3}
				d.store.On("Job", mock.Anything, tenantID).Return(prev, nil).Once()
				d.store.On("Begin", mock.Anything, mock.Anything).Return(nil).Once()
				d.backend.On("TriggerSync", mock.Anything, tenantID).Return(errors.New("connection refused")).Once()
				d.store.On("Save", mock.Anything, prev).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.ErrorIs(t, err, model.ErrRemoteUnavailable)
				assert.Equal(t, model.SyncCompleted, job.Status)
				assert.EqualValues(t, 3, job.CreatedCount)

				d.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			},
		},
		{
			name:     "store failure",
			tenantID: tenantID,
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(model.SyncJob{}, errors.New("db down")).Once()
			},
			assert: func(t *testing.T, _ model.SyncJob, err error, d deps) {
				require.Error(t, err)
				d.backend.AssertNotCalled(t, "TriggerSync", mock.Anything, mock.Anything)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			tc.setup(d)

			job, err := newTestService(d.backend, d.store, d.events, t1).StartSync(context.Background(), tc.tenantID)
			tc.assert(t, job, err, d)
		})
	}
}

func TestServiceStartSync_TwiceKeepsStartedAt(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	store := syncRepository.NewMemorySyncJobRepository()
	d := newDeps(t)
	d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Once()
	d.events.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newTestService(d.backend, store, d.events, t0)

	first, err := svc.StartSync(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, t0, *first.StartedAt)

	svc.now = func() time.Time { return t1 }
	second, err := svc.StartSync(context.Background(), tenantID)
	require.ErrorIs(t, err, model.ErrAlreadyInProgress)
	assert.Equal(t, t0, *second.StartedAt)

	current, err := svc.CurrentJob(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncInProgress, current.Status)
	assert.Equal(t, t0, *current.StartedAt)
}

// Each orchestrator checks only its own store, so two of them backed by
// separate in-process stores both believe they started the job.
func TestServiceStartSync_SeparateMemoryStoresRace(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	d := newDeps(t)
	d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Twice()
	d.events.On("Send", mock.Anything, mock.Anything).Return(nil).Twice()

	tabA := newTestService(d.backend, syncRepository.NewMemorySyncJobRepository(), d.events, t0)
	tabB := newTestService(d.backend, syncRepository.NewMemorySyncJobRepository(), d.events, t1)

	jobA, errA := tabA.StartSync(context.Background(), tenantID)
	jobB, errB := tabB.StartSync(context.Background(), tenantID)

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, model.SyncInProgress, jobA.Status)
	assert.Equal(t, model.SyncInProgress, jobB.Status)
}

func TestServiceStartSync_SharedStoreSingleFlight(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	store := syncRepository.NewMemorySyncJobRepository()
	d := newDeps(t)
	d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Once()
	d.events.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	first := newTestService(d.backend, store, d.events, t0)
	second := newTestService(d.backend, store, d.events, t1)

	_, err := first.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	job, err := second.StartSync(context.Background(), tenantID)
	require.ErrorIs(t, err, model.ErrAlreadyInProgress)
	assert.Equal(t, t0, *job.StartedAt)
}

func TestServicePollStatus(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	afterStart := t0.Add(5 * time.Minute)
	longBefore := t0.Add(-time.Hour)
	withinSkew := t0.Add(-30 * time.Second)
	created := int64(gofakeit.IntRange(1, 500))

	type testCase struct {
		name   string
		setup  func(d deps)
		assert func(t *testing.T, job model.SyncJob, err error, d deps)
	}

	tests := []testCase{
		{
			name: "unreachable backend preserves last known state",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).
					Return(model.RemoteSyncReport{}, model.ErrRemoteUnavailable).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.ErrorIs(t, err, model.ErrTransientSyncReadFailure)
				assert.Equal(t, model.SyncInProgress, job.Status)
				assert.Equal(t, t0, *job.StartedAt)

				d.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			},
		},
		{
			name: "remote completion completes the job",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).Return(model.RemoteSyncReport{
					Status:        model.RemoteCompleted,
					LatestSyncAt:  &afterStart,
					CreatedCount:  created,
					UpdatedCount:  7,
					DetailMessage: "Sync completed",
				}, nil).Once()
				d.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
				d.events.On("Send", mock.Anything, mock.MatchedBy(func(e model.SyncEvent) bool {
					return e.Type == model.SyncEventCompleted && e.PreviousStatus == model.SyncInProgress
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncCompleted, job.Status)
				assert.Equal(t, model.OriginObserved, job.Origin)
				assert.Equal(t, created, job.CreatedCount)
				assert.EqualValues(t, 7, job.UpdatedCount)
				assert.Equal(t, afterStart, *job.CompletedAt)
				assert.Equal(t, t0, *job.StartedAt)
				assert.Equal(t, model.RemoteCompleted, job.RemoteStatus)
				assert.Equal(t, t1, *job.PolledAt)
			},
		},
		{
			name: "remote error fails the job",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).Return(model.RemoteSyncReport{
					Status:        model.RemoteError,
					LatestSyncAt:  &withinSkew,
					DetailMessage: "Samsara API returned 401",
				}, nil).Once()
				d.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
				d.events.On("Send", mock.Anything, mock.MatchedBy(func(e model.SyncEvent) bool {
					return e.Type == model.SyncEventFailed
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncError, job.Status)
				assert.Equal(t, "Samsara API returned 401", job.DetailMessage)
			},
		},
		{
			name: "remote still running",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).
					Return(model.RemoteSyncReport{Status: model.RemoteInProgress}, nil).Once()
				d.store.On("Save", mock.Anything, mock.MatchedBy(func(j model.SyncJob) bool {
					return j.Status == model.SyncInProgress && j.RemoteStatus == model.RemoteInProgress
				})).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncInProgress, job.Status)
				d.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			},
		},
		{
			name: "terminal status of an earlier run is ignored",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).Return(model.RemoteSyncReport{
					Status:       model.RemoteCompleted,
					LatestSyncAt: &longBefore,
				}, nil).Once()
				d.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncInProgress, job.Status)
				assert.Equal(t, model.RemoteCompleted, job.RemoteStatus)
				d.events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			},
		},
		{
			name: "manual reset is kept while the remote job runs",
			setup: func(d deps) {
				reset := model.SyncJob{
					TenantID:    tenantID,
					Status:      model.SyncCompleted,
					Origin:      model.OriginManualReset,
					StartedAt:   &t0,
					CompletedAt: &afterStart,
				}
				d.store.On("Job", mock.Anything, tenantID).Return(reset, nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).
					Return(model.RemoteSyncReport{Status: model.RemoteInProgress}, nil).Once()
				d.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncCompleted, job.Status)
				assert.Equal(t, model.OriginManualReset, job.Origin)
				assert.Equal(t, model.RemoteInProgress, job.RemoteStatus)
			},
		},
		{
			name: "never run stays never run",
			setup: func(d deps) {
				d.store.On("Job", mock.Anything, tenantID).Return(model.NeverRunJob(tenantID), nil).Once()
				d.backend.On("SyncStatus", mock.Anything, tenantID).
					Return(model.RemoteSyncReport{Status: model.RemoteUnknown}, nil).Once()
				d.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
			},
			assert: func(t *testing.T, job model.SyncJob, err error, d deps) {
				require.NoError(t, err)
				assert.Equal(t, model.SyncNeverRun, job.Status)
				assert.Equal(t, model.RemoteUnknown, job.RemoteStatus)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			tc.setup(d)

			job, err := newTestService(d.backend, d.store, d.events, t1).PollStatus(context.Background(), tenantID)
			tc.assert(t, job, err, d)
		})
	}
}

func TestServiceResetSync_AlwaysCompletes(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	for _, prev := range []model.SyncStatus{
		model.SyncNeverRun,
		model.SyncInProgress,
		model.SyncError,
		model.SyncCompleted,
	} {
		t.Run(string(prev), func(t *testing.T) {
			t.Parallel()

			tenantID := gofakeit.UUID()
			d := newDeps(t)
			d.store.On("Job", mock.Anything, tenantID).
				Return(model.SyncJob{TenantID: tenantID, Status: prev, StartedAt: &t0}, nil).Once()
			d.store.On("Save", mock.Anything, mock.MatchedBy(func(j model.SyncJob) bool {
				return j.Status == model.SyncCompleted && j.Origin == model.OriginManualReset
			})).Return(nil).Once()
			d.events.On("Send", mock.Anything, mock.MatchedBy(func(e model.SyncEvent) bool {
				return e.Type == model.SyncEventReset && e.PreviousStatus == prev
			})).Return(nil).Once()

			job, err := newTestService(d.backend, d.store, d.events, t1).ResetSync(context.Background(), tenantID)
			require.NoError(t, err)
			assert.Equal(t, model.SyncCompleted, job.Status)
			assert.Equal(t, model.OriginManualReset, job.Origin)
			assert.Equal(t, t1, *job.CompletedAt)
			assert.Contains(t, job.DetailMessage, resetDetail)
			assert.Contains(t, job.DetailMessage, string(prev))

			d.backend.AssertNotCalled(t, "SyncStatus", mock.Anything, mock.Anything)
		})
	}
}

func TestServiceResetSync_ThenStart(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	store := syncRepository.NewMemorySyncJobRepository()
	d := newDeps(t)
	d.backend.On("TriggerSync", mock.Anything, tenantID).Return(nil).Twice()
	d.events.On("Send", mock.Anything, mock.Anything).Return(nil).Times(3)

	svc := newTestService(d.backend, store, d.events, t0)

	_, err := svc.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	_, err = svc.ResetSync(context.Background(), tenantID)
	require.NoError(t, err)

	svc.now = func() time.Time { return t1 }
	job, err := svc.StartSync(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncInProgress, job.Status)
	assert.Equal(t, model.OriginObserved, job.Origin)
	assert.Equal(t, t1, *job.StartedAt)
}

func TestServiceCurrentJob_NoRemoteCall(t *testing.T) {
	t.Parallel()
	logger.SetNopLogger()

	tenantID := gofakeit.UUID()
	d := newDeps(t)
	d.store.On("Job", mock.Anything, tenantID).Return(inProgressJob(tenantID, t0), nil).Once()

	job, err := newTestService(d.backend, d.store, d.events, t1).CurrentJob(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncInProgress, job.Status)

	d.backend.AssertNotCalled(t, "SyncStatus", mock.Anything, mock.Anything)
	d.backend.AssertNotCalled(t, "TriggerSync", mock.Anything, mock.Anything)
}
