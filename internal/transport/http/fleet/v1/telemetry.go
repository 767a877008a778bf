package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const maxPayloadBytes = 4 << 20

func (h *handler) VehicleTelemetry(w http.ResponseWriter, r *http.Request) {
	snap, err := h.telemetry.Snapshot(r.Context(), r.Header.Get(tenantHeader), chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toSnapshotResponse(*snap))
}

func (h *handler) VehicleDiagnostics(w http.ResponseWriter, r *http.Request) {
	codes, err := h.telemetry.Diagnostics(r.Context(), r.Header.Get(tenantHeader), chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toFaultCodeResponses(codes))
}

// NormalizeTelemetry converts a raw provider payload posted by the caller.
// The vehicle id comes from the vehicle_id query parameter.
func (h *handler) NormalizeTelemetry(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("read body: %w", model.ErrValidation))
		return
	}

	snap := h.telemetry.Normalize(r.URL.Query().Get("vehicle_id"), payload)
	writeJSON(w, r, http.StatusOK, toSnapshotResponse(snap))
}
