package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type addAllocationRequest struct {
	PartID   string           `json:"part_id"`
	Quantity int64            `json:"quantity"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

type updateAllocationRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *handler) AddAllocation(w http.ResponseWriter, r *http.Request) {
	woID, ok := pathUUID(w, r, "workOrderID")
	if !ok {
		return
	}

	var req addAllocationRequest
	if !decode(w, r, &req) {
		return
	}

	alloc, err := h.reconcile.AddAllocation(r.Context(), model.AddAllocationParams{
		WorkOrderID:      woID,
		PartID:           req.PartID,
		Quantity:         req.Quantity,
		UnitCostOverride: req.UnitCost,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toAllocationResponse(alloc))
}

func (h *handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	woID, ok := pathUUID(w, r, "workOrderID")
	if !ok {
		return
	}

	view, err := h.reconcile.WorkOrder(r.Context(), woID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAllocationResponses(view.Allocations))
}

func (h *handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "allocationID")
	if !ok {
		return
	}

	var req updateAllocationRequest
	if !decode(w, r, &req) {
		return
	}

	alloc, err := h.reconcile.UpdateAllocationQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAllocationResponse(alloc))
}

func (h *handler) RemoveAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "allocationID")
	if !ok {
		return
	}

	if err := h.reconcile.RemoveAllocation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) TotalCost(w http.ResponseWriter, r *http.Request) {
	woID, ok := pathUUID(w, r, "workOrderID")
	if !ok {
		return
	}

	total, err := h.reconcile.TotalCost(r.Context(), woID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, totalCostResponse{WorkOrderID: woID, TotalCost: total.StringFixed(2)})
}

func (h *handler) WorkOrder(w http.ResponseWriter, r *http.Request) {
	woID, ok := pathUUID(w, r, "workOrderID")
	if !ok {
		return
	}

	view, err := h.reconcile.WorkOrder(r.Context(), woID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toWorkOrderResponse(view))
}

func (h *handler) CompleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	woID, ok := pathUUID(w, r, "workOrderID")
	if !ok {
		return
	}

	res, err := h.reconcile.Complete(r.Context(), woID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toCompletionResponse(res))
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, fmt.Errorf("invalid %s: %w", name, model.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, fmt.Errorf("decode request: %s: %w", err.Error(), model.ErrValidation))
		return false
	}
	return true
}
