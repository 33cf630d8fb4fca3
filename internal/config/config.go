package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultInitialPrompt biases the engine toward punctuated, capitalized
// output, which the caption segmenter depends on for break decisions.
const DefaultInitialPrompt = "Hello, welcome. This is a sentence with proper punctuation."

// Config holds the full application configuration.
type Config struct {
	// ModelSize selects the whisper model (tiny, base, small, medium, large).
	ModelSize string `toml:"model_size"`
	// AudioBitrate is the mp3 bitrate in kbit/s for downloaded audio.
	AudioBitrate int `toml:"audio_bitrate"`
	// MaxCharsPerLine caps caption line length.
	MaxCharsPerLine int `toml:"max_chars_per_line"`
	// MaxLinesPerCue caps lines per caption cue.
	MaxLinesPerCue int `toml:"max_lines_per_cue"`
	// InitialPrompt is handed to the engine to bias punctuation style.
	InitialPrompt string `toml:"initial_prompt"`
	// GenerateVTT toggles caption output next to the plain transcript.
	GenerateVTT bool `toml:"generate_vtt"`

	// Batch settings.
	MaxConcurrent      int `toml:"max_concurrent"`
	DownloadRatePerMin int `toml:"download_rate_per_min"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		ModelSize:          "base",
		AudioBitrate:       192,
		MaxCharsPerLine:    32,
		MaxLinesPerCue:     2,
		InitialPrompt:      DefaultInitialPrompt,
		GenerateVTT:        false,
		MaxConcurrent:      1,
		DownloadRatePerMin: 30,
	}
}

// Load reads a TOML config file over the defaults. Unset keys keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
