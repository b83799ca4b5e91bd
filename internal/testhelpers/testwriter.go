package testhelpers

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// Writer sends log output to t.Log so that it only shows up for failing tests or with -v.
type Writer struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer for t. Writing after the test has finished panics, because it means a goroutine such as
// the server under test outlived the test.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return w
}

// Write logs each line of p separately.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		panic("testhelpers: write after test completion, shut down the server in t.Cleanup")
	}
	for line := range bytes.Lines(p) {
		if line = bytes.TrimRight(line, "\n"); len(line) > 0 {
			w.t.Log(string(line))
		}
	}
	return len(p), nil
}
