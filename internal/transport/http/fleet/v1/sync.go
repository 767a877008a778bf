package http

import (
	"errors"
	"net/http"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

func (h *handler) StartSync(w http.ResponseWriter, r *http.Request) {
	job, err := h.sync.StartSync(r.Context(), r.Header.Get(tenantHeader))
	if err != nil {
		h.syncError(w, r, job, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, h.syncView(job))
}

// PollSync reads the remote status once. A failed read answers 503 with the
// last known job so the caller can keep showing it.
func (h *handler) PollSync(w http.ResponseWriter, r *http.Request) {
	job, err := h.sync.PollStatus(r.Context(), r.Header.Get(tenantHeader))
	if err != nil {
		h.syncError(w, r, job, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.syncView(job))
}

func (h *handler) CurrentSync(w http.ResponseWriter, r *http.Request) {
	job, err := h.sync.CurrentJob(r.Context(), r.Header.Get(tenantHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.syncView(job))
}

func (h *handler) ResetSync(w http.ResponseWriter, r *http.Request) {
	job, err := h.sync.ResetSync(r.Context(), r.Header.Get(tenantHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.syncView(job))
}

func (h *handler) syncError(w http.ResponseWriter, r *http.Request, job model.SyncJob, err error) {
	switch {
	case errors.Is(err, model.ErrTransientSyncReadFailure):
		writeJSON(w, r, http.StatusServiceUnavailable, transientResponse{
			Error: err.Error(),
			Job:   h.syncView(job),
		})
	case errors.Is(err, model.ErrAlreadyInProgress) && job.Status == model.SyncInProgress:
		writeJSON(w, r, http.StatusConflict, transientResponse{
			Error: err.Error(),
			Job:   h.syncView(job),
		})
	default:
		writeError(w, r, err)
	}
}

func (h *handler) syncView(job model.SyncJob) syncJobResponse {
	return toSyncJobResponse(job, job.Stalled(h.now(), h.staleAfter))
}
