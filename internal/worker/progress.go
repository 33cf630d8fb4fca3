package worker

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// startTranscribeTimer emits an elapsed-time line to w once per second while
// the transcription call blocks. On a terminal the line is rewritten in
// place. The returned stop function is one-shot: it signals the ticker
// goroutine and waits for it to finish, so no progress output races with the
// pipeline stages that follow.
func startTranscribeTimer(w io.Writer) (stop func()) {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	start := time.Now()
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				if interactive {
					fmt.Fprintln(w)
				}
				return
			case <-ticker.C:
				elapsed := int(time.Since(start).Seconds())
				if interactive {
					fmt.Fprintf(w, "\rTranscribing... %02d:%02d", elapsed/60, elapsed%60)
				} else {
					fmt.Fprintf(w, "Transcribing... %02d:%02d\n", elapsed/60, elapsed%60)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}
