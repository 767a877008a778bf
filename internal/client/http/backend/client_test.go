package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc, maxRetries uint64) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "secret", srv.Client(), maxRetries)
	require.NoError(t, err)
	c.retryBase = time.Millisecond

	return c
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient("", "", http.DefaultClient, 0)
	assert.Error(t, err)

	_, err = NewClient("http://backend", "", nil, 0)
	assert.Error(t, err)
}

func TestClient_TriggerSync(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/samsara/sync", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "tenant-a", r.Header.Get(tenantHeader))

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"message":"Sync started","status":"processing"}`))
	}, 0)

	require.NoError(t, c.TriggerSync(context.Background(), "tenant-a"))
}

func TestClient_TriggerSync_NotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, 3)

	err := c.TriggerSync(context.Background(), "tenant-a")
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_SyncStatus(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name   string
		body   string
		code   int
		assert func(t *testing.T, rep model.RemoteSyncReport, err error)
	}

	tests := []testCase{
		{
			name: "completed with naive timestamp",
			code: http.StatusOK,
			body: `{"status":"completed","latest_sync":"2025-03-01T10:15:30.123456","created":4,"updated":9,"details":"ok"}`,
			assert: func(t *testing.T, rep model.RemoteSyncReport, err error) {
				require.NoError(t, err)
				assert.Equal(t, model.RemoteCompleted, rep.Status)
				require.NotNil(t, rep.LatestSyncAt)
				assert.Equal(t, time.Date(2025, 3, 1, 10, 15, 30, 123456000, time.UTC), *rep.LatestSyncAt)
				assert.EqualValues(t, 4, rep.CreatedCount)
				assert.EqualValues(t, 9, rep.UpdatedCount)
				assert.Equal(t, "ok", rep.DetailMessage)
			},
		},
		{
			name: "rfc3339 timestamp",
			code: http.StatusOK,
			body: `{"status":"error","latest_sync":"2025-03-01T10:15:30+02:00","message":"provider down"}`,
			assert: func(t *testing.T, rep model.RemoteSyncReport, err error) {
				require.NoError(t, err)
				assert.Equal(t, model.RemoteError, rep.Status)
				require.NotNil(t, rep.LatestSyncAt)
				assert.True(t, rep.LatestSyncAt.Equal(time.Date(2025, 3, 1, 8, 15, 30, 0, time.UTC)))
				assert.Equal(t, "provider down", rep.DetailMessage)
			},
		},
		{
			name: "unrecognised status maps to unknown",
			code: http.StatusOK,
			body: `{"status":"exploded","latest_sync":null}`,
			assert: func(t *testing.T, rep model.RemoteSyncReport, err error) {
				require.NoError(t, err)
				assert.Equal(t, model.RemoteUnknown, rep.Status)
				assert.Nil(t, rep.LatestSyncAt)
			},
		},
		{
			name: "server error",
			code: http.StatusInternalServerError,
			body: `boom`,
			assert: func(t *testing.T, _ model.RemoteSyncReport, err error) {
				require.ErrorIs(t, err, model.ErrRemoteUnavailable)
			},
		},
		{
			name: "malformed body",
			code: http.StatusOK,
			body: `{"status":`,
			assert: func(t *testing.T, _ model.RemoteSyncReport, err error) {
				require.ErrorIs(t, err, model.ErrRemoteUnavailable)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/samsara/sync/status", r.URL.Path)
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			}, 0)

			rep, err := c.SyncStatus(context.Background(), "tenant-a")
			tc.assert(t, rep, err)
		})
	}
}

func TestClient_VehicleStats_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/samsara/vehicle/v-1/stats", r.URL.Path)
		assert.Equal(t, "engineStates,gps", r.URL.Query().Get("types"))

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"v-1"}`))
	}, 3)

	body, err := c.VehicleStats(context.Background(), "tenant-a", "v-1", []string{"engineStates", "gps"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v-1"}`, string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_VehicleStats_NotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, 3)

	_, err := c.VehicleStats(context.Background(), "tenant-a", "missing", nil)
	require.ErrorIs(t, err, model.ErrVehicleNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_DiagnosticCodes_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/samsara/vehicle/v-2/diagnostic-codes", r.URL.Path)
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := c.DiagnosticCodes(context.Background(), "tenant-a", "v-2")
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_VehicleStats_OversizedBodyRejected(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"id":"v-1","obdOdometerMeters":1609340}`))
	}, 3)
	c.maxBody = 16

	_, err := c.VehicleStats(context.Background(), "tenant-a", "v-1", nil)
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)
	require.ErrorIs(t, err, errBodyTooLarge)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_VehicleStats_BodyAtLimitAccepted(t *testing.T) {
	t.Parallel()

	payload := `{"id":"v-1"}`
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}, 0)
	c.maxBody = int64(len(payload))

	body, err := c.VehicleStats(context.Background(), "tenant-a", "v-1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(body))
}
