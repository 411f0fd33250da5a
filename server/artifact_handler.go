package server

import (
	"io"
	"net/http"
	"os"

	"tunecast/logger"

	"github.com/gorilla/mux"
)

// ArtifactHandler handles GET /dl/{id}/{filename}: it streams a previously
// produced artifact file. Missing parameters yield an empty object; a
// filename that fails sanitization or does not exist on disk gets not-found
// semantics. Bytes are served with an opaque binary content type.
func (h *APIHandler) ArtifactHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, filename := vars["id"], vars["filename"]
	if id == "" || filename == "" {
		writeEmptyObject(w, http.StatusOK)
		return
	}

	path, err := safeJoin(h.manifests.TrackDir(id), filename)
	if err != nil {
		logger.Warn("rejected artifact path",
			logger.String("trackId", id),
			logger.String("filename", filename))
		writeEmptyObject(w, http.StatusNotFound)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		writeEmptyObject(w, http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, file); err != nil {
		logger.Error("error streaming artifact",
			logger.String("trackId", id),
			logger.String("filename", filename),
			logger.ErrorField(err))
	}
}
