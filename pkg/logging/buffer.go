package logging

import (
	"strings"
	"sync"
)

// LogCaptureWriter is a thread-safe writer that keeps the last written lines.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewLogCaptureWriter keeps up to n lines.
func NewLogCaptureWriter(n int) *LogCaptureWriter {
	return &LogCaptureWriter{lines: make([]string, max(n, 1))}
}

// Write implements io.Writer. Every call is one log record.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines[w.next] = strings.TrimRight(string(p), "\n")
	w.next = (w.next + 1) % len(w.lines)
	if w.next == 0 {
		w.full = true
	}
	return len(p), nil
}

// GetLastLine returns the most recent log line.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.full && w.next == 0 {
		return ""
	}
	return w.lines[(w.next-1+len(w.lines))%len(w.lines)]
}

// Lines returns up to n of the latest lines, oldest first.
func (w *LogCaptureWriter) Lines(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	count := w.next
	if w.full {
		count = len(w.lines)
	}
	n = min(n, count)
	out := make([]string, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, w.lines[(w.next-i+len(w.lines))%len(w.lines)])
	}
	return out
}
