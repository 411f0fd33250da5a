package acquire

import (
	"errors"

	"tunecast/core/extract"
)

var (
	// ErrNotFound indicates the id is unknown to the catalog.
	ErrNotFound = errors.New("track not found")
	// ErrCatalog indicates the catalog lookup failed.
	ErrCatalog = errors.New("catalog lookup failed")
	// ErrExtraction indicates the extraction service could not produce a
	// media URL.
	ErrExtraction = extract.ErrExtraction
	// ErrTranscode indicates a transcode stage exited non-zero or could not
	// be started.
	ErrTranscode = errors.New("transcode failed")
	// ErrStorage indicates a manifest read or write failed.
	ErrStorage = errors.New("manifest storage failed")
	// ErrBusy indicates an acquisition is already running for the id.
	ErrBusy = errors.New("acquisition already in progress")
)
