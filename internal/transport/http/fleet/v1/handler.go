package http

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const tenantHeader = "X-Tenant-ID"

type SyncService interface {
	StartSync(ctx context.Context, tenantID string) (model.SyncJob, error)
	PollStatus(ctx context.Context, tenantID string) (model.SyncJob, error)
	CurrentJob(ctx context.Context, tenantID string) (model.SyncJob, error)
	ResetSync(ctx context.Context, tenantID string) (model.SyncJob, error)
}

type TelemetryService interface {
	Snapshot(ctx context.Context, tenantID, vehicleID string) (*model.TelemetrySnapshot, error)
	Normalize(vehicleID string, payload []byte) model.TelemetrySnapshot
	Diagnostics(ctx context.Context, tenantID, vehicleID string) ([]model.FaultCode, error)
}

type ReconcileService interface {
	AddAllocation(ctx context.Context, params model.AddAllocationParams) (model.PartAllocation, error)
	UpdateAllocationQuantity(ctx context.Context, id uuid.UUID, quantity int64) (model.PartAllocation, error)
	RemoveAllocation(ctx context.Context, id uuid.UUID) error
	TotalCost(ctx context.Context, workOrderID uuid.UUID) (decimal.Decimal, error)
	WorkOrder(ctx context.Context, workOrderID uuid.UUID) (model.WorkOrderView, error)
	Complete(ctx context.Context, workOrderID uuid.UUID) (model.CompletionResult, error)
}

type handler struct {
	sync       SyncService
	telemetry  TelemetryService
	reconcile  ReconcileService
	staleAfter time.Duration
	now        func() time.Time
}

// NewFleetHandler serves the UI-facing API. staleAfter drives the
// stalled flag of the sync view.
func NewFleetHandler(
	sync SyncService,
	telemetry TelemetryService,
	reconcile ReconcileService,
	staleAfter time.Duration,
) *handler {
	return &handler{
		sync:       sync,
		telemetry:  telemetry,
		reconcile:  reconcile,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (h *handler) Routes(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Get("/", h.CurrentSync)
		r.Post("/start", h.StartSync)
		r.Get("/status", h.PollSync)
		r.Post("/reset", h.ResetSync)
	})

	r.Post("/telemetry/normalize", h.NormalizeTelemetry)
	r.Route("/vehicles/{vehicleID}", func(r chi.Router) {
		r.Get("/telemetry", h.VehicleTelemetry)
		r.Get("/diagnostics", h.VehicleDiagnostics)
	})

	r.Route("/work-orders/{workOrderID}", func(r chi.Router) {
		r.Get("/", h.WorkOrder)
		r.Get("/allocations", h.ListAllocations)
		r.Post("/allocations", h.AddAllocation)
		r.Get("/total-cost", h.TotalCost)
		r.Post("/complete", h.CompleteWorkOrder)
	})

	r.Route("/allocations/{allocationID}", func(r chi.Router) {
		r.Patch("/", h.UpdateAllocation)
		r.Delete("/", h.RemoveAllocation)
	})
}
