package server

import (
	"errors"
	"net/http"

	"tunecast/core/acquire"
	"tunecast/logger"

	"github.com/gorilla/mux"
)

// AcquireHandler handles POST/GET /dl/{id}: it runs the acquisition
// pipeline for the id and acknowledges with an empty object. A request for
// an id whose acquisition is already running returns immediately with the
// same acknowledgment. Callers never see internal error detail beyond an
// opaque failure marker.
func (h *APIHandler) AcquireHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeEmptyObject(w, http.StatusOK)
		return
	}

	err := h.acquirer.Acquire(r.Context(), id)
	switch {
	case err == nil:
		writeEmptyObject(w, http.StatusOK)
	case errors.Is(err, acquire.ErrBusy):
		// Another job is already doing the work; nothing to duplicate.
		writeEmptyObject(w, http.StatusOK)
	case errors.Is(err, acquire.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		logger.Error("acquisition failed",
			logger.String("trackId", id),
			logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "acquisition failed"})
	}
}
