// Package whisper drives a local OpenAI Whisper CLI installation as the
// transcription engine. The engine is an external collaborator: this package
// owns invoking it and decoding its JSON result, nothing more.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Word is a single token with word-level timing from the engine.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one engine-detected utterance. Words is empty when the engine
// was run without word-level timestamps.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Result is the engine's full output for one audio file.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Request describes one transcription invocation.
type Request struct {
	AudioPath           string
	ModelSize           string
	InitialPrompt       string
	WordTimestamps      bool
	ConditionOnPrevious bool
}

// Engine transcribes an audio file. The call is long-running and blocking.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// CLIEngine runs the whisper command-line tool as a subprocess.
type CLIEngine struct {
	// Binary overrides the executable name, mainly for tests.
	Binary string
}

// Available returns true if the whisper CLI is on the PATH.
func Available() bool {
	_, err := exec.LookPath("whisper")
	return err == nil
}

func (e *CLIEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "whisper"
}

// Transcribe invokes the whisper CLI with JSON output into a temp directory
// and decodes the result.
func (e *CLIEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	outDir, err := os.MkdirTemp("", "vastscribe-whisper-")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		req.AudioPath,
		"--model", req.ModelSize,
		"--output_format", "json",
		"--output_dir", outDir,
		"--fp16", "False",
		"--word_timestamps", pyBool(req.WordTimestamps),
		"--condition_on_previous_text", pyBool(req.ConditionOnPrevious),
	}
	if req.InitialPrompt != "" {
		args = append(args, "--initial_prompt", req.InitialPrompt)
	}

	slog.Debug("invoking whisper", "model", req.ModelSize, "file", filepath.Base(req.AudioPath))

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper failed: %w\n%s", err, string(out))
	}

	resultPath, err := locateResult(outDir, req.AudioPath)
	if err != nil {
		return nil, err
	}
	return DecodeResult(resultPath)
}

// locateResult finds the JSON file whisper wrote for the given audio file.
func locateResult(outDir, audioPath string) (string, error) {
	base := filepath.Base(audioPath)
	want := filepath.Join(outDir, base[:len(base)-len(filepath.Ext(base))]+".json")
	if _, err := os.Stat(want); err == nil {
		return want, nil
	}
	// Whisper's output naming has shifted between versions; fall back to
	// whatever single JSON file is present.
	matches, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("whisper produced no JSON result in %s", outDir)
	}
	return matches[0], nil
}

// DecodeResult reads a whisper JSON result file.
func DecodeResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whisper result: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse whisper result: %w", err)
	}
	return &result, nil
}

// pyBool renders a bool the way whisper's argparse expects it.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
