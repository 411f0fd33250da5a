package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrExtraction indicates the extraction service could not produce a media
// URL for the track: non-success status, transport failure or malformed body.
var ErrExtraction = errors.New("extraction failed")

// Result is a successful extraction: a time-limited fetchable media URL and
// the filename the service suggests for it.
type Result struct {
	MediaURL string
	Filename string
}

// Extractor resolves a track id into a fetchable media URL.
type Extractor interface {
	Extract(ctx context.Context, id string) (*Result, error)
}

// Client calls a cobalt-style extraction service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a new extraction client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: time.Minute * 2,
		},
	}
}

// request mirrors the cobalt API options: audio only, best available
// quality, basic filename style, no proxying or local pre-processing.
type request struct {
	URL             string `json:"url"`
	AudioFormat     string `json:"audioFormat"`
	DownloadMode    string `json:"downloadMode"`
	FilenameStyle   string `json:"filenameStyle"`
	DisableMetadata bool   `json:"disableMetadata"`
	AlwaysProxy     bool   `json:"alwaysProxy"`
	LocalProcessing bool   `json:"localProcessing"`
}

type response struct {
	Status   string `json:"status"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Extract performs a single extraction call for the track id. It does not
// retry.
func (c *Client) Extract(ctx context.Context, id string) (*Result, error) {
	body, err := json.Marshal(request{
		URL:           "https://youtube.com/watch?v=" + id,
		AudioFormat:   "best",
		DownloadMode:  "audio",
		FilenameStyle: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrExtraction, err)
	}

	// cobalt reports usable URLs as "tunnel" or "redirect"; older builds
	// use "ok". Anything else is a failure.
	switch result.Status {
	case "ok", "tunnel", "redirect":
	default:
		return nil, fmt.Errorf("%w: status %q", ErrExtraction, result.Status)
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: empty media url", ErrExtraction)
	}

	return &Result{MediaURL: result.URL, Filename: result.Filename}, nil
}
