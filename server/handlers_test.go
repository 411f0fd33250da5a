package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tunecast/core/acquire"
	"tunecast/core/auth"
	"tunecast/model"
	"tunecast/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	tracks []model.Track
	err    error
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]model.Track, error) {
	return s.tracks, s.err
}

type stubAcquirer struct {
	err error
	ids []string
}

func (s *stubAcquirer) Acquire(ctx context.Context, id string) error {
	s.ids = append(s.ids, id)
	return s.err
}

const testSecret = "test-secret"

func newTestRouter(t *testing.T, h *APIHandler) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/dl/{id}", h.AuthMiddleware(h.AcquireHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/dl/{id}/{filename}", h.AuthMiddleware(h.ArtifactHandler)).Methods(http.MethodGet)
	return router
}

func bearer(t *testing.T, tokens *auth.TokenAuthority) string {
	t.Helper()
	token, err := tokens.GenerateToken("test", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()

	testCases := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"playlist", "hls.m3u8", false},
		{"segment", "segment_000.ts", false},
		{"muxed audio", "audio.m4a", false},
		{"empty", "", true},
		{"parent traversal", "../../etc/passwd", true},
		{"encoded traversal left literal", "..%2F..%2Fsecret", true},
		{"hidden traversal", "a/../../b", true},
		{"bare parent", "..", true},
		{"absolute path", "/etc/passwd", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := safeJoin(base, tc.filename)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, tc.filename), path)
		})
	}
}

func TestSearchHandlerEmptyQuery(t *testing.T) {
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, repository.NewFileManifestRepository(t.TempDir()), tokens)
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSearchHandlerTruncatesToFive(t *testing.T) {
	tracks := make([]model.Track, 7)
	for i := range tracks {
		tracks[i] = model.Track{ID: string(rune('a' + i))}
	}
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{tracks: tracks}, &stubAcquirer{}, repository.NewFileManifestRepository(t.TempDir()), tokens)
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?query=hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 5)
	assert.Equal(t, "a", got[0].ID) // candidate order preserved
}

func TestSearchHandlerCatalogError(t *testing.T) {
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{err: errors.New("boom")}, &stubAcquirer{}, repository.NewFileManifestRepository(t.TempDir()), tokens)
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?query=hello", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestAcquireHandler(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"already running", acquire.ErrBusy, http.StatusOK},
		{"unknown id", acquire.ErrNotFound, http.StatusNotFound},
		{"extraction failure", acquire.ErrExtraction, http.StatusInternalServerError},
		{"transcode failure", acquire.ErrTranscode, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := auth.NewTokenAuthority(testSecret)
			acq := &stubAcquirer{err: tc.err}
			h := NewAPIHandler(&stubSearcher{}, acq, repository.NewFileManifestRepository(t.TempDir()), tokens)
			router := newTestRouter(t, h)

			req := httptest.NewRequest(http.MethodPost, "/dl/abc123", nil)
			req.Header.Set("Authorization", bearer(t, tokens))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, []string{"abc123"}, acq.ids)
			if tc.wantStatus == http.StatusOK {
				assert.JSONEq(t, "{}", rec.Body.String())
			}
		})
	}
}

func TestAcquireHandlerMissingID(t *testing.T) {
	tokens := auth.NewTokenAuthority(testSecret)
	acq := &stubAcquirer{}
	h := NewAPIHandler(&stubSearcher{}, acq, repository.NewFileManifestRepository(t.TempDir()), tokens)

	req := httptest.NewRequest(http.MethodPost, "/dl/x", nil)
	req = mux.SetURLVars(req, map[string]string{"id": ""})
	rec := httptest.NewRecorder()
	h.AcquireHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
	assert.Empty(t, acq.ids)
}

func TestArtifactHandlerServesBytes(t *testing.T) {
	manifests := repository.NewFileManifestRepository(t.TempDir())
	dir := manifests.TrackDir("abc123")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hls.m3u8"), []byte("#EXTM3U\n"), 0644))

	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, manifests, tokens)
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/dl/abc123/hls.m3u8", nil)
	req.Header.Set("Authorization", bearer(t, tokens))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "#EXTM3U\n", rec.Body.String())
}

func TestArtifactHandlerTraversalRejected(t *testing.T) {
	base := t.TempDir()
	// A file outside the track directory that must never be reachable.
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret"), []byte("top secret"), 0644))

	manifests := repository.NewFileManifestRepository(filepath.Join(base, "dl"))
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, manifests, tokens)

	for _, filename := range []string{"../../secret", "..%2F..%2Fsecret", "a/../../../secret"} {
		req := httptest.NewRequest(http.MethodGet, "/dl/abc123/x", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "abc123", "filename": filename})
		rec := httptest.NewRecorder()
		h.ArtifactHandler(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, "filename %q", filename)
		assert.NotContains(t, rec.Body.String(), "top secret")
	}
}

func TestArtifactHandlerMissingFile(t *testing.T) {
	manifests := repository.NewFileManifestRepository(t.TempDir())
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, manifests, tokens)
	router := newTestRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/dl/abc123/hls.m3u8", nil)
	req.Header.Set("Authorization", bearer(t, tokens))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifactHandlerMissingParams(t *testing.T) {
	manifests := repository.NewFileManifestRepository(t.TempDir())
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, manifests, tokens)

	req := httptest.NewRequest(http.MethodGet, "/dl/x/y", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "abc123", "filename": ""})
	rec := httptest.NewRecorder()
	h.ArtifactHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenAuthority(testSecret)
	h := NewAPIHandler(&stubSearcher{}, &stubAcquirer{}, repository.NewFileManifestRepository(t.TempDir()), tokens)
	router := newTestRouter(t, h)

	// No token.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dl/abc123", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header.
	req := httptest.NewRequest(http.MethodPost, "/dl/abc123", nil)
	req.Header.Set("Authorization", "Token nope")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	other := auth.NewTokenAuthority("other-secret")
	req = httptest.NewRequest(http.MethodPost, "/dl/abc123", nil)
	req.Header.Set("Authorization", bearer(t, other))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Search stays open.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
