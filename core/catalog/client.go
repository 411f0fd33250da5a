package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunecast/model"
)

// ErrNotFound indicates the catalog has no entry for the requested id.
var ErrNotFound = errors.New("track not found in catalog")

const explicitBadge = "MUSIC_EXPLICIT_BADGE"

// MetadataProvider is the catalog capability the acquisition pipeline needs.
type MetadataProvider interface {
	GetMetadata(ctx context.Context, id string) (*model.Metadata, error)
}

// Client talks to the music catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new catalog API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

// songPayload mirrors one catalog search candidate.
type songPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Duration struct {
		Seconds int `json:"seconds"`
	} `json:"duration"`
	Badges []struct {
		IconType string `json:"icon_type"`
	} `json:"badges"`
}

func (s *songPayload) toTrack() model.Track {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}

	// The catalog orders thumbnails smallest first; keep the largest.
	thumbnail := ""
	if len(s.Thumbnails) > 0 {
		thumbnail = s.Thumbnails[len(s.Thumbnails)-1].URL
	}

	explicit := false
	for _, b := range s.Badges {
		if b.IconType == explicitBadge {
			explicit = true
			break
		}
	}

	return model.Track{
		ID:       s.ID,
		Explicit: explicit,
		Metadata: model.Metadata{
			Title:     s.Title,
			Authors:   strings.Join(names, ", "),
			Album:     s.Album.Name,
			Thumbnail: thumbnail,
			Length:    s.Duration.Seconds,
		},
	}
}

// Search queries the catalog for songs matching the query. The candidate
// order of the response is preserved.
func (c *Client) Search(ctx context.Context, query string) ([]model.Track, error) {
	u := fmt.Sprintf("%s/search?query=%s&type=song", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned status %d", resp.StatusCode)
	}

	var result struct {
		Songs []songPayload `json:"songs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode catalog search response: %w", err)
	}

	tracks := make([]model.Track, 0, len(result.Songs))
	for _, s := range result.Songs {
		tracks = append(tracks, s.toTrack())
	}
	return tracks, nil
}

// GetMetadata fetches basic metadata and duration for a single track id.
func (c *Client) GetMetadata(ctx context.Context, id string) (*model.Metadata, error) {
	u := fmt.Sprintf("%s/song?id=%s", c.baseURL, url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog metadata returned status %d", resp.StatusCode)
	}

	var result struct {
		Title      string `json:"title"`
		Author     string `json:"author"`
		Album      string `json:"album"`
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
		Duration struct {
			Seconds int `json:"seconds"`
		} `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode catalog metadata response: %w", err)
	}

	thumbnail := ""
	if len(result.Thumbnails) > 0 {
		thumbnail = result.Thumbnails[len(result.Thumbnails)-1].URL
	}

	return &model.Metadata{
		Title:     result.Title,
		Authors:   result.Author,
		Album:     result.Album,
		Thumbnail: thumbnail,
		Length:    result.Duration.Seconds,
	}, nil
}
