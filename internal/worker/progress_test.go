package worker

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTranscribeTimer_EmitsElapsed(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	w := lockedWriter{mu: &mu, buf: &buf}

	stop := startTranscribeTimer(w)
	time.Sleep(1200 * time.Millisecond)
	stop()

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	if !strings.Contains(out, "Transcribing... 00:01") {
		t.Errorf("expected elapsed line after one second, got %q", out)
	}
}

func TestTranscribeTimer_StopIsIdempotentAndJoins(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	w := lockedWriter{mu: &mu, buf: &buf}

	stop := startTranscribeTimer(w)
	stop()
	stop() // second call must be a no-op, not a panic

	// Once stop returns the goroutine is joined; nothing may write after.
	mu.Lock()
	before := buf.Len()
	mu.Unlock()
	time.Sleep(1100 * time.Millisecond)
	mu.Lock()
	after := buf.Len()
	mu.Unlock()
	if before != after {
		t.Error("ticker wrote after stop returned")
	}
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
