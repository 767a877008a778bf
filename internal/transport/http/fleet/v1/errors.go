package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type shortfallResponse struct {
	PartID    string `json:"part_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

type insufficientStockResponse struct {
	errorResponse
	Parts []shortfallResponse `json:"parts"`
}

type transientResponse struct {
	Error string          `json:"error"`
	Job   syncJobResponse `json:"job"`
}

func mapError(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrUnknownTenant):
		return http.StatusBadRequest // 400
	case errors.Is(err, model.ErrPartNotFound),
		errors.Is(err, model.ErrAllocationNotFound),
		errors.Is(err, model.ErrVehicleNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, model.ErrAlreadyInProgress),
		errors.Is(err, model.ErrAllocationConsumed),
		errors.Is(err, model.ErrWorkOrderCompleted),
		errors.Is(err, model.ErrAllocationsChanged):
		return http.StatusConflict // 409
	case errors.Is(err, model.ErrInsufficientStock):
		return http.StatusUnprocessableEntity // 422
	case errors.Is(err, model.ErrRemoteUnavailable):
		return http.StatusBadGateway // 502
	case errors.Is(err, model.ErrTransientSyncReadFailure):
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.Error(r.Context(), "unhandled error", logger.String("path", r.URL.Path), logger.ErrorF(err))
		msg = http.StatusText(code)
	}

	var insufficient *model.InsufficientStockError
	if errors.As(err, &insufficient) {
		parts := make([]shortfallResponse, 0, len(insufficient.Shortfalls))
		for _, s := range insufficient.Shortfalls {
			parts = append(parts, shortfallResponse{PartID: s.PartID, Requested: s.Requested, Available: s.Available})
		}
		writeJSON(w, r, code, insufficientStockResponse{
			errorResponse: errorResponse{Code: code, Message: msg},
			Parts:         parts,
		})
		return
	}

	writeJSON(w, r, code, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(r.Context(), "encode response", logger.ErrorF(err))
	}
}
