package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Job is one entry of a batch captioning run.
type Job struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
}

// Outcome pairs a job with the files its pipeline run produced. An empty
// Files list means the run failed; the reason is in the log.
type Outcome struct {
	Job   Job
	Files []string
}

// BatchOptions bounds batch parallelism and download politeness.
type BatchOptions struct {
	MaxConcurrent      int
	DownloadRatePerMin int
}

// RunBatch runs the pipeline for every job, at most MaxConcurrent at a time,
// pacing acquisitions with a per-minute rate limit. One failed job never
// stops the rest; outcomes come back in input order.
func RunBatch(ctx context.Context, runner *Runner, jobs []Job, opts Options, batch BatchOptions) []Outcome {
	if batch.MaxConcurrent <= 0 {
		batch.MaxConcurrent = 1
	}
	rpm := batch.DownloadRatePerMin
	if rpm <= 0 {
		rpm = 30
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)

	slog.Info("starting batch", "jobs", len(jobs), "max_concurrent", batch.MaxConcurrent)

	// Each goroutine writes only its own slot.
	outcomes := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batch.MaxConcurrent)

	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = Outcome{Job: job}

			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			slog.Info("processing video",
				"video", fmt.Sprintf("%d/%d", i+1, len(jobs)), "title", job.Title)

			jobOpts := opts
			jobOpts.Input = job.URL
			files := runner.Run(gctx, jobOpts)
			outcomes[i].Files = files

			if len(files) == 0 {
				slog.Warn("video produced no output", "title", job.Title)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("batch stopped early", "err", err)
	}
	return outcomes
}
