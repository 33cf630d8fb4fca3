package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vastscribe/internal/config"
	"vastscribe/internal/fetch"
	"vastscribe/internal/pipeline"
	"vastscribe/internal/whisper"
)

// Options configures one pipeline run.
type Options struct {
	// Input is a media URL or a local audio file path.
	Input           string
	ModelSize       string
	MaxCharsPerLine int
	MaxLinesPerCue  int
	InitialPrompt   string
	// GenerateVTT writes a caption file next to the transcript when the
	// engine returned word-level timing.
	GenerateVTT bool
}

func (o Options) withDefaults() Options {
	if o.ModelSize == "" {
		o.ModelSize = "base"
	}
	if o.InitialPrompt == "" {
		o.InitialPrompt = config.DefaultInitialPrompt
	}
	return o
}

// Runner owns one pipeline: acquire, transcribe, emit, clean up.
type Runner struct {
	Engine   whisper.Engine
	Acquirer fetch.Acquirer

	// Progress receives the transcription ticker output; nil means stderr.
	Progress io.Writer
}

// Run executes the pipeline for one input and returns the paths of the files
// it wrote. Acquisition and engine failures are logged and produce an empty
// list rather than an error, so a batch caller can keep going; a transient
// downloaded file is removed on every exit path, while a caller-supplied
// local file is never touched.
func (r *Runner) Run(ctx context.Context, opts Options) []string {
	opts = opts.withDefaults()

	acquired, err := r.Acquirer.Acquire(ctx, opts.Input)
	if err != nil {
		slog.Error("acquisition failed", "input", opts.Input, "err", err)
		return nil
	}
	if acquired.Downloaded {
		defer func() {
			if err := os.Remove(acquired.Path); err != nil && !os.IsNotExist(err) {
				slog.Debug("temp audio cleanup", "file", filepath.Base(acquired.Path), "err", err)
			}
		}()
	}

	slog.Info("transcribing", "file", filepath.Base(acquired.Path), "model", opts.ModelSize)

	stop := startTranscribeTimer(r.progressWriter())
	result, err := r.Engine.Transcribe(ctx, whisper.Request{
		AudioPath:           acquired.Path,
		ModelSize:           opts.ModelSize,
		InitialPrompt:       opts.InitialPrompt,
		WordTimestamps:      true,
		ConditionOnPrevious: false,
	})
	stop()
	if err != nil {
		slog.Error("transcription failed", "input", opts.Input, "err", err)
		return nil
	}

	base := strings.TrimSuffix(acquired.Path, filepath.Ext(acquired.Path))
	var files []string

	txtPath := base + ".txt"
	if err := writeFileAtomic(txtPath, strings.TrimSpace(result.Text)); err != nil {
		slog.Error("write transcript", "path", txtPath, "err", err)
		return files
	}
	files = append(files, txtPath)
	slog.Info("transcript created", "file", filepath.Base(txtPath))

	if opts.GenerateVTT {
		words := flattenWords(result)
		if len(words) == 0 {
			slog.Warn("engine returned no word-level timing, skipping captions",
				"input", opts.Input)
			return files
		}
		cues := pipeline.BuildCaptions(words, pipeline.SegmentConfig{
			MaxCharsPerLine: opts.MaxCharsPerLine,
			MaxLinesPerCue:  opts.MaxLinesPerCue,
		})
		vttPath := base + ".vtt"
		if err := writeFileAtomic(vttPath, pipeline.RenderVTT(cues)); err != nil {
			slog.Error("write captions", "path", vttPath, "err", err)
			return files
		}
		files = append(files, vttPath)
		slog.Info("captions created", "file", filepath.Base(vttPath), "cues", len(cues))
	}

	return files
}

func (r *Runner) progressWriter() io.Writer {
	if r.Progress != nil {
		return r.Progress
	}
	return os.Stderr
}

// flattenWords collects word tokens across all segments in order, skipping
// segments that carry no word-level timing.
func flattenWords(result *whisper.Result) []pipeline.Word {
	var words []pipeline.Word
	for _, seg := range result.Segments {
		for _, w := range seg.Words {
			words = append(words, pipeline.Word{
				Text:  strings.TrimSpace(w.Word),
				Start: w.Start,
				End:   w.End,
			})
		}
	}
	return words
}

// writeFileAtomic writes via a temp file and rename, so readers never see a
// half-written transcript or caption file.
func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
