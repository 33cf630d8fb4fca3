package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"vastscribe/internal/config"
	"vastscribe/internal/fetch"
	"vastscribe/internal/whisper"
	"vastscribe/internal/worker"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <url-or-file>",
	Short: "Transcribe one video URL or local audio file",
	Long: `Transcribe a single input. A URL is downloaded with yt-dlp and transcoded
to mp3; a local path is used as-is. The transcript is written next to the
audio as <base>.txt, and with --vtt a <base>.vtt caption file as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	configPath    string
	modelSize     string
	audioBitrate  int
	maxChars      int
	maxLines      int
	initialPrompt string
	generateVTT   bool
)

func init() {
	defaults := config.Default()

	transcribeCmd.Flags().StringVar(&configPath, "config", "", "TOML config file")
	transcribeCmd.Flags().StringVarP(&modelSize, "model", "m", defaults.ModelSize, "whisper model size: tiny, base, small, medium, large")
	transcribeCmd.Flags().IntVar(&audioBitrate, "bitrate", defaults.AudioBitrate, "mp3 bitrate for downloaded audio (kbit/s)")
	transcribeCmd.Flags().IntVar(&maxChars, "max-chars", defaults.MaxCharsPerLine, "max characters per caption line")
	transcribeCmd.Flags().IntVar(&maxLines, "max-lines", defaults.MaxLinesPerCue, "max lines per caption cue")
	transcribeCmd.Flags().StringVar(&initialPrompt, "prompt", defaults.InitialPrompt, "initial prompt biasing engine punctuation")
	transcribeCmd.Flags().BoolVar(&generateVTT, "vtt", defaults.GenerateVTT, "also write a WEBVTT caption file")

	rootCmd.AddCommand(transcribeCmd)
}

// resolveConfig layers defaults, an optional config file, and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("model") {
		cfg.ModelSize = modelSize
	}
	if f.Changed("bitrate") {
		cfg.AudioBitrate = audioBitrate
	}
	if f.Changed("max-chars") {
		cfg.MaxCharsPerLine = maxChars
	}
	if f.Changed("max-lines") {
		cfg.MaxLinesPerCue = maxLines
	}
	if f.Changed("prompt") {
		cfg.InitialPrompt = initialPrompt
	}
	if f.Changed("vtt") {
		cfg.GenerateVTT = generateVTT
	}
	return cfg, nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if !whisper.Available() {
		return fmt.Errorf("whisper CLI not found in PATH")
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &worker.Runner{
		Engine:   &whisper.CLIEngine{},
		Acquirer: &fetch.Downloader{Bitrate: cfg.AudioBitrate},
	}

	files := runner.Run(ctx, worker.Options{
		Input:           args[0],
		ModelSize:       cfg.ModelSize,
		MaxCharsPerLine: cfg.MaxCharsPerLine,
		MaxLinesPerCue:  cfg.MaxLinesPerCue,
		InitialPrompt:   cfg.InitialPrompt,
		GenerateVTT:     cfg.GenerateVTT,
	})
	if len(files) == 0 {
		return fmt.Errorf("no output produced for %s", args[0])
	}

	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
