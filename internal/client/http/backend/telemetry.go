package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// VehicleStats returns the raw stats payload for the requested stat types.
// The backend splits the request if the provider limits types per call.
func (c *Client) VehicleStats(ctx context.Context, tenantID, vehicleID string, types []string) ([]byte, error) {
	q := url.Values{}
	if len(types) > 0 {
		q.Set("types", strings.Join(types, ","))
	}

	target, err := c.endpoint(q, "api", "samsara", "vehicle", vehicleID, "stats")
	if err != nil {
		return nil, fmt.Errorf("backend.VehicleStats: %w", err)
	}

	body, err := c.getWithRetry(ctx, "vehicle_stats", target, tenantID)
	if err != nil {
		return nil, fmt.Errorf("backend.VehicleStats: %w", err)
	}

	return body, nil
}

// DiagnosticCodes returns fault codes merged with DVIR defects.
func (c *Client) DiagnosticCodes(ctx context.Context, tenantID, vehicleID string) ([]byte, error) {
	target, err := c.endpoint(nil, "api", "samsara", "vehicle", vehicleID, "diagnostic-codes")
	if err != nil {
		return nil, fmt.Errorf("backend.DiagnosticCodes: %w", err)
	}

	body, err := c.getWithRetry(ctx, "diagnostic_codes", target, tenantID)
	if err != nil {
		return nil, fmt.Errorf("backend.DiagnosticCodes: %w", err)
	}

	return body, nil
}
