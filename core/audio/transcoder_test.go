package audio

import (
	"path/filepath"
	"strings"
	"testing"

	"tunecast/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrack() *model.Track {
	return &model.Track{
		ID: "abc123",
		Metadata: model.Metadata{
			Title:     "Song",
			Authors:   "Artist",
			Thumbnail: "https://img.example/cover.jpg",
			Length:    200,
		},
	}
}

func TestMuxArgs(t *testing.T) {
	args := muxArgs("https://cdn.example/a.m4a", sampleTrack(), "dl/abc123/audio.m4a")
	joined := strings.Join(args, " ")

	// Source first, cover second, both mapped, image pinned as cover art.
	assert.Less(t, indexOf(args, "https://cdn.example/a.m4a"), indexOf(args, "https://img.example/cover.jpg"))
	assert.Contains(t, joined, "-map 0 -map 1")
	assert.Contains(t, joined, "-disposition:v:0 attached_pic")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-vn")

	// Trim bound comes from the record, and tags carry title/artist.
	assert.Contains(t, joined, "-t 200")
	assert.Contains(t, joined, `title="Song"`)
	assert.Contains(t, joined, `artist="Artist"`)
	assert.NotContains(t, joined, "album=")

	assert.Equal(t, "dl/abc123/audio.m4a", args[len(args)-1])
}

func TestMuxArgsAlbumTag(t *testing.T) {
	track := sampleTrack()
	track.Album = "Album"

	joined := strings.Join(muxArgs("u", track, "out.m4a"), " ")
	assert.Contains(t, joined, `album="Album"`)
}

func TestSegmentArgs(t *testing.T) {
	args := segmentArgs("dl/abc123/audio.m4a", sampleTrack(), "dl/abc123")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-f hls")
	assert.Contains(t, joined, "-hls_playlist_type vod")
	assert.Contains(t, joined, "-t 200")
	assert.Contains(t, joined, filepath.Join("dl/abc123", "segment_%03d.ts"))
	assert.Equal(t, filepath.Join("dl/abc123", "hls.m3u8"), args[len(args)-1])
}

func TestRunReportsExitCode(t *testing.T) {
	// "false" exits 1 without reading its arguments; good enough to verify
	// that a non-zero exit is reported as a code, not an error.
	tr := NewFFmpegTranscoder("false")
	code, err := tr.run([]string{})
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	tr = NewFFmpegTranscoder("true")
	code, err = tr.run([]string{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunMissingExecutable(t *testing.T) {
	tr := NewFFmpegTranscoder("definitely-not-a-real-binary")
	code, err := tr.run([]string{"-version"})
	assert.Error(t, err)
	assert.Equal(t, -1, code)
}

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}
