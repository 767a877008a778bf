package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type syncJobResponse struct {
	TenantID      string     `json:"tenant_id"`
	Status        string     `json:"status"`
	Origin        string     `json:"origin"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedCount  int64      `json:"created_count"`
	UpdatedCount  int64      `json:"updated_count"`
	DetailMessage string     `json:"detail_message,omitempty"`
	RemoteStatus  string     `json:"remote_status,omitempty"`
	PolledAt      *time.Time `json:"polled_at,omitempty"`
	Stalled       bool       `json:"stalled"`
}

func toSyncJobResponse(job model.SyncJob, stalled bool) syncJobResponse {
	return syncJobResponse{
		TenantID:      job.TenantID,
		Status:        string(job.Status),
		Origin:        string(job.Origin),
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		CreatedCount:  job.CreatedCount,
		UpdatedCount:  job.UpdatedCount,
		DetailMessage: job.DetailMessage,
		RemoteStatus:  string(job.RemoteStatus),
		PolledAt:      job.PolledAt,
		Stalled:       stalled,
	}
}

type locationResponse struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	SpeedMph       int64   `json:"speed_mph"`
	HeadingDegrees float64 `json:"heading_degrees"`
	Address        string  `json:"address,omitempty"`
}

type faultCodeResponse struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Source      string     `json:"source"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}

type snapshotResponse struct {
	VehicleID             string              `json:"vehicle_id"`
	OdometerMiles         float64             `json:"odometer_miles"`
	OdometerDisplayMiles  int64               `json:"odometer_display_miles"`
	FuelPercent           *float64            `json:"fuel_percent"`
	EngineState           string              `json:"engine_state"`
	EngineRPM             *float64            `json:"engine_rpm,omitempty"`
	EngineLoadPercent     *float64            `json:"engine_load_percent,omitempty"`
	CoolantTempFahrenheit *float64            `json:"coolant_temp_fahrenheit,omitempty"`
	Location              *locationResponse   `json:"location,omitempty"`
	FaultCodes            []faultCodeResponse `json:"fault_codes"`
}

func toSnapshotResponse(s model.TelemetrySnapshot) snapshotResponse {
	res := snapshotResponse{
		VehicleID:             s.VehicleID,
		OdometerMiles:         s.OdometerMiles,
		OdometerDisplayMiles:  s.OdometerDisplayMiles(),
		FuelPercent:           s.FuelPercent,
		EngineState:           string(s.EngineState),
		EngineRPM:             s.EngineRPM,
		EngineLoadPercent:     s.EngineLoadPercent,
		CoolantTempFahrenheit: s.CoolantTempFahrenheit,
		FaultCodes:            toFaultCodeResponses(s.FaultCodes),
	}
	if s.Location != nil {
		res.Location = &locationResponse{
			Latitude:       s.Location.Latitude,
			Longitude:      s.Location.Longitude,
			SpeedMph:       s.Location.SpeedMph,
			HeadingDegrees: s.Location.HeadingDegrees,
			Address:        s.Location.Address,
		}
	}
	return res
}

func toFaultCodeResponses(codes []model.FaultCode) []faultCodeResponse {
	return lo.Map(codes, func(c model.FaultCode, _ int) faultCodeResponse {
		return faultCodeResponse{
			Code:        c.Code,
			Description: c.Description,
			Severity:    c.Severity,
			Source:      string(c.Source),
			ReportedAt:  c.ReportedAt,
		}
	})
}

type allocationResponse struct {
	ID            uuid.UUID  `json:"id"`
	WorkOrderID   uuid.UUID  `json:"work_order_id"`
	PartID        string     `json:"part_id"`
	Quantity      int64      `json:"quantity"`
	UnitCost      string     `json:"unit_cost"`
	LineCost      string     `json:"line_cost"`
	OverAllocated bool       `json:"over_allocated"`
	ConsumedAt    *time.Time `json:"consumed_at,omitempty"`
}

func toAllocationResponse(a model.PartAllocation) allocationResponse {
	return allocationResponse{
		ID:            a.ID,
		WorkOrderID:   a.WorkOrderID,
		PartID:        a.PartID,
		Quantity:      a.Quantity,
		UnitCost:      a.UnitCost.StringFixed(2),
		LineCost:      a.LineCost().StringFixed(2),
		OverAllocated: a.OverAllocated,
		ConsumedAt:    a.ConsumedAt,
	}
}

func toAllocationResponses(allocs []model.PartAllocation) []allocationResponse {
	return lo.Map(allocs, func(a model.PartAllocation, _ int) allocationResponse {
		return toAllocationResponse(a)
	})
}

type totalCostResponse struct {
	WorkOrderID uuid.UUID `json:"work_order_id"`
	TotalCost   string    `json:"total_cost"`
}

type workOrderResponse struct {
	WorkOrderID        uuid.UUID            `json:"work_order_id"`
	Allocations        []allocationResponse `json:"allocations"`
	TotalCost          string               `json:"total_cost"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
	OverAllocatedParts []string             `json:"over_allocated_parts"`
}

func toWorkOrderResponse(v model.WorkOrderView) workOrderResponse {
	return workOrderResponse{
		WorkOrderID:        v.WorkOrderID,
		Allocations:        toAllocationResponses(v.Allocations),
		TotalCost:          v.TotalCost.StringFixed(2),
		CompletedAt:        v.CompletedAt,
		OverAllocatedParts: lo.Ternary(v.OverAllocatedParts == nil, []string{}, v.OverAllocatedParts),
	}
}

type stockLevelResponse struct {
	PartID       string `json:"part_id"`
	Deducted     int64  `json:"deducted"`
	Remaining    int64  `json:"remaining"`
	ReorderLevel int64  `json:"reorder_level"`
	BelowReorder bool   `json:"below_reorder"`
}

type completionResponse struct {
	WorkOrderID uuid.UUID            `json:"work_order_id"`
	CompletedAt time.Time            `json:"completed_at"`
	TotalCost   string               `json:"total_cost"`
	StockLevels []stockLevelResponse `json:"stock_levels"`
}

func toCompletionResponse(r model.CompletionResult) completionResponse {
	return completionResponse{
		WorkOrderID: r.WorkOrderID,
		CompletedAt: r.CompletedAt,
		TotalCost:   r.TotalCost.StringFixed(2),
		StockLevels: lo.Map(r.StockLevels, func(l model.StockLevel, _ int) stockLevelResponse {
			return stockLevelResponse{
				PartID:       l.PartID,
				Deducted:     l.Deducted,
				Remaining:    l.Remaining,
				ReorderLevel: l.ReorderLevel,
				BelowReorder: l.BelowReorder(),
			}
		}),
	}
}
