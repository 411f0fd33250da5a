package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tunecast/core/audio"
	"tunecast/core/catalog"
	"tunecast/core/extract"
	"tunecast/logger"
	"tunecast/model"
	"tunecast/repository"

	"github.com/google/uuid"
)

// Orchestrator drives the acquisition pipeline for a track id: ensure a
// manifest record exists, extract a media URL, mux, segment, then persist
// the updated manifest. At most one job runs per id at any time.
type Orchestrator struct {
	manifests  repository.ManifestRepository
	catalog    catalog.MetadataProvider
	extractor  extract.Extractor
	transcoder audio.Transcoder
	mirror     *audio.SegmentMirror // optional, may be nil
	locks      *jobLocks
}

// NewOrchestrator wires the pipeline collaborators. All clients are
// constructed once at startup and injected; none are created per request.
func NewOrchestrator(
	manifests repository.ManifestRepository,
	cat catalog.MetadataProvider,
	extractor extract.Extractor,
	transcoder audio.Transcoder,
) *Orchestrator {
	return &Orchestrator{
		manifests:  manifests,
		catalog:    cat,
		extractor:  extractor,
		transcoder: transcoder,
		locks:      newJobLocks(),
	}
}

// SetSegmentMirror enables progressive mirroring of segment-stage output.
func (o *Orchestrator) SetSegmentMirror(m *audio.SegmentMirror) {
	o.mirror = m
}

// Acquire runs the full pipeline for id. A request for an id whose artifact
// set already exists re-runs everything and overwrites prior artifacts;
// only metadata is cached. Returns ErrBusy without doing any work when a
// job for the same id is already running.
func (o *Orchestrator) Acquire(ctx context.Context, id string) error {
	track, err := o.ensureRecord(ctx, id)
	if err != nil {
		return err
	}

	jobID := uuid.New().String()
	if !o.locks.tryAcquire(id, jobID) {
		return ErrBusy
	}
	defer o.locks.release(id)

	logger.Info("acquisition started",
		logger.String("trackId", id),
		logger.String("jobId", jobID),
		logger.String("title", track.Title),
		logger.Int("length", track.Length))

	result, err := o.extractor.Extract(ctx, id)
	if err != nil {
		logger.Error("extraction failed",
			logger.String("trackId", id),
			logger.String("jobId", jobID),
			logger.ErrorField(err))
		return err
	}

	dir := o.manifests.TrackDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create artifact directory: %v", ErrStorage, err)
	}

	muxedPath := filepath.Join(dir, audio.MuxedFilename)
	muxCode, err := o.transcoder.Mux(result.MediaURL, track, muxedPath)
	if err != nil {
		return fmt.Errorf("%w: mux: %v", ErrTranscode, err)
	}

	// Segment only starts once the mux process has exited; its input is the
	// muxed file. It runs even after a non-zero mux exit so both stages
	// always report a code, but any failure below keeps the job Failed.
	segCode, err := o.runSegmentStage(id, track, muxedPath, dir)
	if err != nil {
		return fmt.Errorf("%w: segment: %v", ErrTranscode, err)
	}

	logger.Info("transcode stages finished",
		logger.String("trackId", id),
		logger.String("jobId", jobID),
		logger.Int("muxExitCode", muxCode),
		logger.Int("segmentExitCode", segCode))

	if muxCode != 0 || segCode != 0 {
		return fmt.Errorf("%w: mux exited %d, segment exited %d", ErrTranscode, muxCode, segCode)
	}

	// Persist the extraction filename before the job counts as Ready, so a
	// read never sees fresh artifacts with a stale manifest.
	track.Filename = result.Filename
	if err := o.manifests.Save(track); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	logger.Info("acquisition ready",
		logger.String("trackId", id),
		logger.String("jobId", jobID),
		logger.String("filename", track.Filename))
	return nil
}

// ensureRecord loads the manifest for id, fetching catalog metadata and
// creating the record when none exists. Acquisition never proceeds without
// a record.
func (o *Orchestrator) ensureRecord(ctx context.Context, id string) (*model.Track, error) {
	track, err := o.manifests.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if track != nil {
		return track, nil
	}

	meta, err := o.catalog.GetMetadata(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	track = &model.Track{ID: id, Metadata: *meta}
	if err := o.manifests.Save(track); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return track, nil
}

// runSegmentStage runs the segment transcode, wrapped by the progressive
// mirror when one is configured.
func (o *Orchestrator) runSegmentStage(id string, track *model.Track, muxedPath, dir string) (int, error) {
	if o.mirror != nil {
		stop, err := o.mirror.Watch(id, dir)
		if err != nil {
			logger.Warn("segment mirror unavailable for this job",
				logger.String("trackId", id),
				logger.ErrorField(err))
		} else {
			defer stop()
		}
	}
	return o.transcoder.Segment(muxedPath, track, dir)
}
