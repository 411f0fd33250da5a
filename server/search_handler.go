package server

import (
	"net/http"

	"tunecast/cache"
	"tunecast/logger"
	"tunecast/model"
)

// maxSearchResults bounds how many candidates the search endpoint returns.
// Truncation is a presentation concern; candidate order is preserved.
const maxSearchResults = 5

// SearchHandler handles GET /search?query=...
// A missing or empty query yields an empty list, not an error.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusOK, []model.Track{})
		return
	}

	logger.Info("search request", logger.String("query", query))

	if tracks, ok := cache.GetSearchResults(r.Context(), query); ok {
		writeJSON(w, http.StatusOK, truncate(tracks))
		return
	}

	tracks, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		logger.Error("catalog search failed",
			logger.String("query", query),
			logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	cache.SetSearchResults(r.Context(), query, tracks)
	writeJSON(w, http.StatusOK, truncate(tracks))
}

func truncate(tracks []model.Track) []model.Track {
	if tracks == nil {
		return []model.Track{}
	}
	if len(tracks) > maxSearchResults {
		return tracks[:maxSearchResults]
	}
	return tracks
}
