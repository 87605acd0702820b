package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/history"
)

// Listener streams the listen channel into the chat history.
type Listener struct {
	reconnector *Reconnector
	history     HistoryWriter
	out         io.Writer
	now         func() time.Time
	log         *zap.Logger
}

// ListenerOption customizes a Listener.
type ListenerOption func(*Listener)

// WithOutput sets where received lines are echoed. Nil disables the echo.
func WithOutput(w io.Writer) ListenerOption {
	return func(l *Listener) {
		l.out = w
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) ListenerOption {
	return func(l *Listener) {
		l.now = now
	}
}

// NewListener creates a Listener that records every line received through
// reconnector into hist.
func NewListener(reconnector *Reconnector, hist HistoryWriter, log *zap.Logger, opts ...ListenerOption) *Listener {
	l := &Listener{
		reconnector: reconnector,
		history:     hist,
		out:         os.Stdout,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	l.reconnector.Run(ctx, l.stream)
}

func (l *Listener) stream(ctx context.Context, conn chat.Conn) error {
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		l.record(history.Record{At: l.now(), Text: text})
	}
}

// record appends one line. A failing record is logged and skipped.
func (l *Listener) record(rec history.Record) {
	if _, err := l.history.Append(rec); err != nil {
		l.log.Warn("Failed to record message", zap.String("text", rec.Text), zap.Error(err))
		return
	}
	if l.out != nil {
		fmt.Fprintf(l.out, "%s %s\n", color.Gray.Sprintf("[%s]", rec.At.Format(history.TimeLayout)), rec.Text)
	}
}
