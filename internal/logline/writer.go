package logline

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// syncer is satisfied by *os.File and anything else that can force lines to
// disk. Writers flush after every line so a killed process never leaves a
// partially written tail.
type syncer interface {
	Sync() error
}

// Writer emits canonical console lines to an underlying stream, one write
// per line. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewWriter returns a Writer emitting to out with wall-clock timestamps.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, now: time.Now}
}

// NewWriterWithClock returns a Writer with a caller-supplied clock. Tests use
// this to pin timestamps.
func NewWriterWithClock(out io.Writer, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{out: out, now: now}
}

// Emit writes one formatted line and flushes when the stream supports it.
func (w *Writer) Emit(level Level, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.out, Format(w.now(), level, message)+"\n"); err != nil {
		return fmt.Errorf("writing console line: %w", err)
	}
	if s, ok := w.out.(syncer); ok {
		// Sync errors are ignored for character devices like /dev/stdout.
		_ = s.Sync()
	}
	return nil
}

// Emitf formats the message before emitting.
func (w *Writer) Emitf(level Level, format string, args ...any) error {
	return w.Emit(level, fmt.Sprintf(format, args...))
}
