package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"tunecast/core/auth"
	"tunecast/logger"
	"tunecast/model"
	"tunecast/repository"
)

// trackSearcher is the catalog capability the search endpoint needs.
type trackSearcher interface {
	Search(ctx context.Context, query string) ([]model.Track, error)
}

// trackAcquirer triggers the acquisition pipeline for a track id.
type trackAcquirer interface {
	Acquire(ctx context.Context, id string) error
}

// APIHandler handles all API requests.
type APIHandler struct {
	searcher  trackSearcher
	acquirer  trackAcquirer
	manifests repository.ManifestRepository
	tokens    *auth.TokenAuthority
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	searcher trackSearcher,
	acquirer trackAcquirer,
	manifests repository.ManifestRepository,
	tokens *auth.TokenAuthority,
) *APIHandler {
	return &APIHandler{
		searcher:  searcher,
		acquirer:  acquirer,
		manifests: manifests,
		tokens:    tokens,
	}
}

// AuthMiddleware checks for a valid bearer token.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		if _, err := h.tokens.ParseToken(parts[1]); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeEmptyObject is the neutral response for missing or rejected
// parameters at the boundary.
func writeEmptyObject(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]interface{}{})
}

// errPathEscapes is returned when a requested filename would resolve
// outside its track's artifact directory.
var errPathEscapes = errors.New("path escapes artifact directory")

// safeJoin resolves an untrusted filename against a base directory. It
// rejects absolute names and any parent-directory segment outright, then
// verifies the joined result is still a descendant of the base by comparing
// canonicalized absolute paths. Suspicious input is rejected, never cleaned.
func safeJoin(baseDir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", errPathEscapes
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	target := filepath.Join(absBase, filepath.FromSlash(name))
	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", errPathEscapes
	}
	return target, nil
}
