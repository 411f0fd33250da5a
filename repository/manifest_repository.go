package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tunecast/model"
)

const manifestFilename = "manifest.json"

// ManifestRepository defines the interface for track manifest persistence.
// GetByID returns (nil, nil) when no record exists for the id.
type ManifestRepository interface {
	GetByID(id string) (*model.Track, error)
	Save(track *model.Track) error
	TrackDir(id string) string
}

// fileManifestRepository stores one serialized record per track id, next to
// the track's artifact set.
type fileManifestRepository struct {
	baseDir string
}

// NewFileManifestRepository creates a manifest repository rooted at baseDir.
func NewFileManifestRepository(baseDir string) ManifestRepository {
	return &fileManifestRepository{baseDir: baseDir}
}

// TrackDir returns the artifact directory for a track id.
func (r *fileManifestRepository) TrackDir(id string) string {
	return filepath.Join(r.baseDir, id)
}

// GetByID reads the manifest for a track id.
func (r *fileManifestRepository) GetByID(id string) (*model.Track, error) {
	data, err := os.ReadFile(filepath.Join(r.TrackDir(id), manifestFilename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // no record for this id
		}
		return nil, fmt.Errorf("failed to read manifest for %s: %w", id, err)
	}

	track := &model.Track{}
	if err := json.Unmarshal(data, track); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest for %s: %w", id, err)
	}
	return track, nil
}

// Save fully overwrites the manifest for track.ID. The write goes through a
// temp file and rename so a concurrent read never observes a partial record.
func (r *fileManifestRepository) Save(track *model.Track) error {
	dir := r.TrackDir(track.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create track directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(track, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for %s: %w", track.ID, err)
	}

	tmp, err := os.CreateTemp(dir, manifestFilename+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest for %s: %w", track.ID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest for %s: %w", track.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp manifest for %s: %w", track.ID, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, manifestFilename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit manifest for %s: %w", track.ID, err)
	}
	return nil
}
