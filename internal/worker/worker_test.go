package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vastscribe/internal/fetch"
	"vastscribe/internal/whisper"
)

type stubAcquirer struct {
	acquired fetch.Acquired
	err      error
	calls    int
}

func (s *stubAcquirer) Acquire(_ context.Context, _ string) (fetch.Acquired, error) {
	s.calls++
	if s.err != nil {
		return fetch.Acquired{}, s.err
	}
	return s.acquired, nil
}

func wordedResult() *whisper.Result {
	return &whisper.Result{
		Text: "  Hello world. \n",
		Segments: []whisper.Segment{
			{
				Start: 0.0, End: 0.9, Text: " Hello world.",
				Words: []whisper.Word{
					{Word: " Hello", Start: 0.0, End: 0.4},
					{Word: " world.", Start: 0.4, End: 0.9},
				},
			},
		},
	}
}

func newAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lecture.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_TranscriptAndCaptions(t *testing.T) {
	audio := newAudioFile(t)
	engine := &whisper.StubEngine{Result: wordedResult()}
	runner := &Runner{
		Engine:   engine,
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio}},
		Progress: io.Discard,
	}

	files := runner.Run(context.Background(), Options{Input: audio, GenerateVTT: true})

	base := strings.TrimSuffix(audio, ".mp3")
	want := []string{base + ".txt", base + ".vtt"}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files = %v, want %v", files, want)
	}

	txt, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(txt) != "Hello world." {
		t.Errorf("transcript = %q, want trimmed engine text", string(txt))
	}

	vtt, err := os.ReadFile(files[1])
	if err != nil {
		t.Fatal(err)
	}
	wantVTT := "WEBVTT\nKind: captions\nLanguage: en\n\n" +
		"00:00:00.000 --> 00:00:00.900\nHello world.\n\n"
	if string(vtt) != wantVTT {
		t.Errorf("captions:\n%q\nwant:\n%q", string(vtt), wantVTT)
	}

	// A locally supplied audio file is never deleted.
	if _, err := os.Stat(audio); err != nil {
		t.Errorf("local audio file was removed: %v", err)
	}
}

func TestRun_EngineRequest(t *testing.T) {
	audio := newAudioFile(t)
	engine := &whisper.StubEngine{Result: wordedResult()}
	runner := &Runner{
		Engine:   engine,
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio}},
		Progress: io.Discard,
	}

	runner.Run(context.Background(), Options{Input: audio, ModelSize: "medium"})

	if len(engine.Requests) != 1 {
		t.Fatalf("engine called %d times, want 1", len(engine.Requests))
	}
	req := engine.Requests[0]
	if req.ModelSize != "medium" {
		t.Errorf("model = %q", req.ModelSize)
	}
	if !req.WordTimestamps {
		t.Error("word timestamps not requested")
	}
	if req.ConditionOnPrevious {
		t.Error("cross-segment conditioning should be off")
	}
	if req.InitialPrompt == "" {
		t.Error("default initial prompt not applied")
	}
}

func TestRun_AcquisitionFailure(t *testing.T) {
	engine := &whisper.StubEngine{Result: wordedResult()}
	runner := &Runner{
		Engine:   engine,
		Acquirer: &stubAcquirer{err: errors.New("unreachable")},
		Progress: io.Discard,
	}

	files := runner.Run(context.Background(), Options{Input: "https://example.com/v"})

	if len(files) != 0 {
		t.Errorf("files = %v, want empty", files)
	}
	if len(engine.Requests) != 0 {
		t.Error("engine must not run after acquisition failure")
	}
}

func TestRun_EngineFailureRemovesDownload(t *testing.T) {
	audio := newAudioFile(t)
	runner := &Runner{
		Engine:   &whisper.StubEngine{Err: errors.New("model blew up")},
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio, Downloaded: true}},
		Progress: io.Discard,
	}

	files := runner.Run(context.Background(), Options{Input: "https://example.com/v"})

	if len(files) != 0 {
		t.Errorf("files = %v, want empty", files)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Error("downloaded audio should be removed after engine failure")
	}
}

func TestRun_DownloadRemovedAfterSuccess(t *testing.T) {
	audio := newAudioFile(t)
	runner := &Runner{
		Engine:   &whisper.StubEngine{Result: wordedResult()},
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio, Downloaded: true}},
		Progress: io.Discard,
	}

	files := runner.Run(context.Background(), Options{Input: "https://example.com/v"})

	if len(files) != 1 {
		t.Fatalf("files = %v, want transcript only", files)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Error("downloaded audio should be removed after the run")
	}
	// The transcript next to the deleted audio survives.
	if _, err := os.Stat(files[0]); err != nil {
		t.Errorf("transcript missing: %v", err)
	}
}

func TestRun_NoWordTimingSkipsCaptions(t *testing.T) {
	audio := newAudioFile(t)
	result := &whisper.Result{
		Text:     "No timing here.",
		Segments: []whisper.Segment{{Start: 0, End: 2, Text: "No timing here."}},
	}
	runner := &Runner{
		Engine:   &whisper.StubEngine{Result: result},
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio}},
		Progress: io.Discard,
	}

	files := runner.Run(context.Background(), Options{Input: audio, GenerateVTT: true})

	if len(files) != 1 || !strings.HasSuffix(files[0], ".txt") {
		t.Errorf("files = %v, want transcript only", files)
	}
}

func TestRunBatch_ContinuesPastFailures(t *testing.T) {
	audio := newAudioFile(t)

	// First engine call fails, later ones succeed.
	engine := &flakyEngine{failures: 1, result: wordedResult()}
	runner := &Runner{
		Engine:   engine,
		Acquirer: &stubAcquirer{acquired: fetch.Acquired{Path: audio}},
		Progress: io.Discard,
	}

	jobs := []Job{
		{Title: "Bad one", URL: "https://example.com/a"},
		{Title: "Good one", URL: "https://example.com/b"},
	}
	outcomes := RunBatch(context.Background(), runner, jobs, Options{},
		BatchOptions{MaxConcurrent: 1, DownloadRatePerMin: 6000})

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if len(outcomes[0].Files) != 0 {
		t.Errorf("first job should have failed, got %v", outcomes[0].Files)
	}
	if len(outcomes[1].Files) == 0 {
		t.Error("second job should have produced output")
	}
	if outcomes[0].Job.Title != "Bad one" || outcomes[1].Job.Title != "Good one" {
		t.Error("outcomes out of input order")
	}
}

type flakyEngine struct {
	failures int
	result   *whisper.Result
}

func (f *flakyEngine) Transcribe(_ context.Context, _ whisper.Request) (*whisper.Result, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient engine failure")
	}
	return f.result, nil
}
