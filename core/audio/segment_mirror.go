package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tunecast/logger"
	"tunecast/storage"

	"github.com/fsnotify/fsnotify"
)

// SegmentMirror copies playlist and segment files into object storage while
// the segment stage is still writing them, so remote copies are available
// shortly after each segment lands instead of after the whole run.
type SegmentMirror struct {
	store *storage.Store
}

// NewSegmentMirror creates a mirror backed by the given store.
func NewSegmentMirror(store *storage.Store) *SegmentMirror {
	return &SegmentMirror{store: store}
}

func mirrorable(name string) bool {
	return strings.HasSuffix(name, ".ts") || strings.HasSuffix(name, ".m3u8")
}

// Watch starts watching dir for new artifact files and uploads them under
// the track id prefix. The returned stop function ends the watch and runs a
// final sweep that uploads anything the watcher missed, including files
// rewritten after their first upload (ffmpeg finalizes the playlist last).
func (m *SegmentMirror) Watch(trackID, dir string) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create segment watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	uploaded := make(map[string]bool)
	// Size at last tick, for stability checks before uploading.
	pending := make(map[string]int64)
	var mu sync.Mutex

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name := filepath.Base(event.Name)
				if !mirrorable(name) {
					continue
				}
				mu.Lock()
				if !uploaded[name] {
					if _, seen := pending[name]; !seen {
						pending[name] = -1
					}
				}
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("segment watcher error", logger.ErrorField(err))

			case <-ticker.C:
				mu.Lock()
				for name, lastSize := range pending {
					info, err := os.Stat(filepath.Join(dir, name))
					if err != nil {
						continue
					}
					if info.Size() != lastSize {
						pending[name] = info.Size()
						continue
					}
					// Two ticks at the same size: treat as complete.
					delete(pending, name)
					uploaded[name] = true
					m.upload(trackID, dir, name)
				}
				mu.Unlock()
			}
		}
	}()

	stop := func() {
		watcher.Close()
		<-done
		m.sweep(trackID, dir)
	}
	return stop, nil
}

// upload mirrors one file; failures are logged, not fatal, since the local
// artifact set remains authoritative.
func (m *SegmentMirror) upload(trackID, dir, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	objectPath := trackID + "/" + name
	if err := m.store.UploadFile(ctx, objectPath, filepath.Join(dir, name)); err != nil {
		logger.Warn("failed to mirror segment",
			logger.String("object", objectPath),
			logger.ErrorField(err))
		return
	}
	logger.Debug("mirrored segment", logger.String("object", objectPath))
}

// sweep re-uploads every mirrorable file in dir after the transcode has
// finished. This catches late events and the finalized playlist.
func (m *SegmentMirror) sweep(trackID, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("segment mirror sweep failed", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !mirrorable(entry.Name()) {
			continue
		}
		m.upload(trackID, dir, entry.Name())
	}
}
