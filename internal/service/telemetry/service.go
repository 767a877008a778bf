package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type StatsClient interface {
	VehicleStats(ctx context.Context, tenantID, vehicleID string, types []string) ([]byte, error)
	DiagnosticCodes(ctx context.Context, tenantID, vehicleID string) ([]byte, error)
}

type service struct {
	client    StatsClient
	statTypes []string
	snapshots *cache.Cache
}

// NewTelemetryService caches snapshots for cacheTTL; a non-positive TTL disables caching.
func NewTelemetryService(client StatsClient, statTypes []string, cacheTTL time.Duration) *service {
	if len(statTypes) == 0 {
		statTypes = FullStatTypes
	}

	svc := &service{client: client, statTypes: statTypes}
	if cacheTTL > 0 {
		svc.snapshots = cache.New(cacheTTL, 2*cacheTTL)
	}

	return svc
}

func (svc *service) Normalize(vehicleID string, payload []byte) model.TelemetrySnapshot {
	return Normalize(vehicleID, payload)
}

func (svc *service) Snapshot(ctx context.Context, tenantID, vehicleID string) (*model.TelemetrySnapshot, error) {
	const op = "telemetry.service.Snapshot"
	log := logger.With(logger.String("vehicle_id", vehicleID))

	if vehicleID == "" {
		return nil, fmt.Errorf("%s: empty vehicle id: %w", op, model.ErrValidation)
	}

	key := cacheKey(tenantID, vehicleID)
	if svc.snapshots != nil {
		if v, ok := svc.snapshots.Get(key); ok {
			snap := v.(model.TelemetrySnapshot)
			return &snap, nil
		}
	}

	raw, err := svc.client.VehicleStats(ctx, tenantID, vehicleID, svc.statTypes)
	if err != nil {
		log.Error(ctx, "fetch vehicle stats", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap := Normalize(vehicleID, raw)
	if svc.snapshots != nil {
		svc.snapshots.Set(key, snap, cache.DefaultExpiration)
	}

	return &snap, nil
}

// Diagnostics returns provider fault codes and DVIR defects for a vehicle.
func (svc *service) Diagnostics(ctx context.Context, tenantID, vehicleID string) ([]model.FaultCode, error) {
	const op = "telemetry.service.Diagnostics"

	if vehicleID == "" {
		return nil, fmt.Errorf("%s: empty vehicle id: %w", op, model.ErrValidation)
	}

	raw, err := svc.client.DiagnosticCodes(ctx, tenantID, vehicleID)
	if err != nil {
		logger.Error(ctx, "fetch diagnostic codes",
			logger.String("vehicle_id", vehicleID),
			logger.ErrorF(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NormalizeDiagnostics(raw), nil
}

func (svc *service) Invalidate(tenantID, vehicleID string) {
	if svc.snapshots != nil {
		svc.snapshots.Delete(cacheKey(tenantID, vehicleID))
	}
}

func cacheKey(tenantID, vehicleID string) string {
	return tenantID + "/" + vehicleID
}
