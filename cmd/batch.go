package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"vastscribe/internal/config"
	"vastscribe/internal/fetch"
	"vastscribe/internal/whisper"
	"vastscribe/internal/worker"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <jobs.toml>",
	Short: "Caption a list of videos, continuing past failures",
	Long: `Batch runs the transcription pipeline for every video in a TOML job file:

    [[video]]
    title = "Lecture 1"
    url   = "https://youtu.be/..."

Each video is processed independently; one failure never stops the rest. A
summary table is printed when the batch finishes, and the exit code is zero
regardless of per-video outcomes.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	batchModel         string
	batchVTT           bool
	batchMaxConcurrent int
	batchRatePerMin    int
)

func init() {
	defaults := config.Default()

	// The report workflow favors accuracy over speed, hence "medium".
	batchCmd.Flags().StringVarP(&batchModel, "model", "m", "medium", "whisper model size")
	batchCmd.Flags().BoolVar(&batchVTT, "vtt", defaults.GenerateVTT, "also write WEBVTT caption files")
	batchCmd.Flags().IntVarP(&batchMaxConcurrent, "max-concurrent", "j", defaults.MaxConcurrent, "max videos processed at once")
	batchCmd.Flags().IntVar(&batchRatePerMin, "rate-limit", defaults.DownloadRatePerMin, "downloads per minute")

	rootCmd.AddCommand(batchCmd)
}

// parseJobs decodes the [[video]] entries of a batch job file.
func parseJobs(path string) ([]worker.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	var doc struct {
		Video []worker.Job `toml:"video"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}
	if len(doc.Video) == 0 {
		return nil, fmt.Errorf("job file %s contains no [[video]] entries", path)
	}
	return doc.Video, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if !whisper.Available() {
		return fmt.Errorf("whisper CLI not found in PATH")
	}

	jobs, err := parseJobs(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	runner := &worker.Runner{
		Engine:   &whisper.CLIEngine{},
		Acquirer: &fetch.Downloader{Bitrate: cfg.AudioBitrate},
	}

	outcomes := worker.RunBatch(ctx, runner, jobs, worker.Options{
		ModelSize:       batchModel,
		MaxCharsPerLine: cfg.MaxCharsPerLine,
		MaxLinesPerCue:  cfg.MaxLinesPerCue,
		InitialPrompt:   cfg.InitialPrompt,
		GenerateVTT:     batchVTT,
	}, worker.BatchOptions{
		MaxConcurrent:      batchMaxConcurrent,
		DownloadRatePerMin: batchRatePerMin,
	})

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := "failed"
		outputs := "-"
		if len(o.Files) > 0 {
			status = "ok"
			names := make([]string, len(o.Files))
			for i, f := range o.Files {
				names[i] = filepath.Base(f)
			}
			outputs = strings.Join(names, ", ")
		}
		rows = append(rows, []string{o.Job.Title, status, outputs})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title", "Status", "Outputs"}, rows))

	return nil
}
