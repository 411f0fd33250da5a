package audio

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"tunecast/logger"
	"tunecast/model"
)

// Artifact filenames inside a track's directory.
const (
	MuxedFilename    = "audio.m4a"
	PlaylistFilename = "hls.m3u8"
	segmentPattern   = "segment_%03d.ts"
)

// Transcoder defines the two-stage transcode contract. Each stage reports
// the external command's exit code; diagnostics go to the process's own
// stderr and are never parsed.
type Transcoder interface {
	// Mux combines the source audio and the record's cover art into a tagged
	// container at outputPath, trimmed to the record's length.
	Mux(mediaURL string, track *model.Track, outputPath string) (int, error)
	// Segment re-packages a muxed container into an HLS VOD playlist plus
	// fixed segments under outputDir, trimmed to the record's length.
	Segment(inputPath string, track *model.Track, outputDir string) (int, error)
}

// FFmpegTranscoder implements Transcoder by invoking the ffmpeg executable.
type FFmpegTranscoder struct {
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// muxArgs builds the argument list for the mux stage: map source audio and
// cover image, mark the image as attached_pic, encode aac, drop source
// video, trim to the catalog length and stamp tags.
func muxArgs(mediaURL string, track *model.Track, outputPath string) []string {
	args := []string{
		"-y",
		"-i", mediaURL,
		"-i", track.Thumbnail,
		"-map", "0",
		"-map", "1",
		"-disposition:v:0", "attached_pic",
		"-c:a", "aac",
		"-vn",
		"-t", strconv.Itoa(track.Length),
		"-metadata", `title="` + track.Title + `"`,
		"-metadata", `artist="` + track.Authors + `"`,
	}
	if track.Album != "" {
		args = append(args, "-metadata", `album="`+track.Album+`"`)
	}
	return append(args, outputPath)
}

// segmentArgs builds the argument list for the segment stage.
func segmentArgs(inputPath string, track *model.Track, outputDir string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-c:a", "aac",
		"-f", "hls",
		"-vn",
		"-t", strconv.Itoa(track.Length),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(outputDir, segmentPattern),
		filepath.Join(outputDir, PlaylistFilename),
	}
}

// Mux runs the first transcode stage and blocks until the process exits.
func (t *FFmpegTranscoder) Mux(mediaURL string, track *model.Track, outputPath string) (int, error) {
	return t.run(muxArgs(mediaURL, track, outputPath))
}

// Segment runs the second transcode stage and blocks until the process
// exits. Callers must not start it before Mux's process has exited, since
// its input is Mux's output file.
func (t *FFmpegTranscoder) Segment(inputPath string, track *model.Track, outputDir string) (int, error) {
	return t.run(segmentArgs(inputPath, track, outputDir))
}

// run executes ffmpeg with inherited stdout/stderr and returns its exit
// code. An error is returned only when the process could not be started.
func (t *FFmpegTranscoder) run(args []string) (int, error) {
	logger.Debug("executing ffmpeg",
		logger.String("path", t.ffmpegPath),
		logger.String("args", strings.Join(args, " ")))

	cmd := exec.Command(t.ffmpegPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
