package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

// TriggerSync asks the backend to start a provider sync. The backend runs it
// asynchronously, so success only means the request was accepted.
func (c *Client) TriggerSync(ctx context.Context, tenantID string) error {
	target, err := c.endpoint(nil, "api", "samsara", "sync")
	if err != nil {
		return fmt.Errorf("backend.TriggerSync: %w", err)
	}

	if _, err := c.do(ctx, "trigger_sync", http.MethodPost, target, tenantID); err != nil {
		return fmt.Errorf("backend.TriggerSync: %w", err)
	}

	return nil
}

// SyncStatus performs a single status read; it is never retried.
func (c *Client) SyncStatus(ctx context.Context, tenantID string) (model.RemoteSyncReport, error) {
	target, err := c.endpoint(nil, "api", "samsara", "sync", "status")
	if err != nil {
		return model.RemoteSyncReport{}, fmt.Errorf("backend.SyncStatus: %w", err)
	}

	body, err := c.do(ctx, "sync_status", http.MethodGet, target, tenantID)
	if err != nil {
		return model.RemoteSyncReport{}, fmt.Errorf("backend.SyncStatus: %w", err)
	}

	var resp syncStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.RemoteSyncReport{}, fmt.Errorf("backend.SyncStatus: %w: decode: %w", model.ErrRemoteUnavailable, err)
	}

	return toReport(resp), nil
}

func toReport(resp syncStatusResponse) model.RemoteSyncReport {
	detail := resp.Details
	if detail == "" {
		detail = resp.Message
	}

	return model.RemoteSyncReport{
		Status:        remoteStatus(resp.Status),
		LatestSyncAt:  resp.LatestSync.t,
		CreatedCount:  max(resp.Created, 0),
		UpdatedCount:  max(resp.Updated, 0),
		DetailMessage: detail,
	}
}

func remoteStatus(s string) model.RemoteSyncStatus {
	switch model.RemoteSyncStatus(strings.ToLower(strings.TrimSpace(s))) {
	case model.RemoteCompleted:
		return model.RemoteCompleted
	case model.RemoteInProgress, "processing":
		return model.RemoteInProgress
	case model.RemoteError:
		return model.RemoteError
	default:
		return model.RemoteUnknown
	}
}
