package model

// Metadata holds the catalog-declared description of a track. Length is the
// hard trim bound for transcoding; it is fixed at record creation and never
// derived from the transcoded output.
type Metadata struct {
	Title     string `json:"title"`
	Authors   string `json:"authors"` // joined contributor names, e.g. "A, B"
	Album     string `json:"album,omitempty"`
	Thumbnail string `json:"thumbnail"`
	Length    int    `json:"length"` // duration in whole seconds
}

// Track is the persisted manifest record for one track id.
type Track struct {
	Metadata
	ID       string `json:"id"`
	Explicit bool   `json:"explicit"`
	// Filename is the name suggested by the extraction service for the most
	// recent successful acquisition; empty until one has completed.
	Filename string `json:"filename,omitempty"`
}
