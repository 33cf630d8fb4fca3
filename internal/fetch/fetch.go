// Package fetch resolves a media reference — a remote URL or an existing
// local file — to a local audio path the transcription engine can read.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// Acquired is the outcome of a successful acquisition. Downloaded marks the
// file as transient: the caller owns deleting it when the run ends.
type Acquired struct {
	Path       string
	Downloaded bool
}

// Acquirer resolves a reference to a local audio file. A failed acquisition
// is final; implementations do not retry.
type Acquirer interface {
	Acquire(ctx context.Context, ref string) (Acquired, error)
}

// Downloader acquires remote references with yt-dlp, transcoding the best
// available audio to mp3. Local references are validated and passed through.
type Downloader struct {
	// Bitrate is the mp3 bitrate in kbit/s.
	Bitrate int
	// OutputDir receives downloaded files; empty means the working directory.
	OutputDir string
}

// Acquire resolves ref. Remote files are named after the source title, so a
// repeated download of the same source lands on the same path.
func (d *Downloader) Acquire(ctx context.Context, ref string) (Acquired, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if _, err := os.Stat(ref); err != nil {
			return Acquired{}, fmt.Errorf("local file: %w", err)
		}
		return Acquired{Path: ref}, nil
	}

	slog.Info("downloading audio", "url", ref)

	bitrate := d.Bitrate
	if bitrate <= 0 {
		bitrate = 192
	}

	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(strconv.Itoa(bitrate)).
		Output(filepath.Join(d.OutputDir, "%(title)s.%(ext)s")).
		NoPlaylist().
		NoWarnings().
		Print("after_move:filepath")

	result, err := dl.Run(ctx, ref)
	if err != nil {
		return Acquired{}, fmt.Errorf("download %s: %w", ref, err)
	}

	path := finalPath(result.Stdout)
	if path == "" {
		return Acquired{}, fmt.Errorf("download %s: yt-dlp reported no output file", ref)
	}
	// The extract-audio postprocessor replaces the container extension.
	path = strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
	if _, err := os.Stat(path); err != nil {
		return Acquired{}, fmt.Errorf("downloaded file missing: %w", err)
	}

	slog.Info("download complete", "file", filepath.Base(path))
	return Acquired{Path: path, Downloaded: true}, nil
}

// finalPath extracts the last non-empty line of yt-dlp's --print output.
func finalPath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
