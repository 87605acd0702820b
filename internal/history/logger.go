// Package history appends received chat lines to a durable log.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/omochice/minechat/pkg/protocol"
)

// TimeLayout renders timestamps as DD.MM.YY HH:MM.
const TimeLayout = "02.01.06 15:04"

// ErrEmptyRecord is returned for records without text.
var ErrEmptyRecord = errors.New("empty history record")

// Record is one received chat line.
type Record struct {
	At   time.Time
	Text string
}

// Format renders a record as it is stored: "[DD.MM.YY HH:MM] text\n".
func Format(rec Record) string {
	return fmt.Sprintf("[%s] %s\n", rec.At.Format(TimeLayout), rec.Text)
}

// Logger appends records to a writer, flushing after each one so that a
// crash loses at most the record being written.
type Logger struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// New creates a Logger writing to w.
func New(w io.Writer) *Logger {
	l := &Logger{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Open appends to the file at path, creating it and its parent directories.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	return New(file), nil
}

// Append writes rec and returns the formatted line.
func (l *Logger) Append(rec Record) (string, error) {
	rec.Text = protocol.Clean(rec.Text)
	if rec.Text == "" {
		return "", ErrEmptyRecord
	}
	line := Format(rec)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.WriteString(line); err != nil {
		return "", fmt.Errorf("write history record: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return "", fmt.Errorf("flush history record: %w", err)
	}
	return line, nil
}

// Close flushes pending data and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.w.Flush()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
