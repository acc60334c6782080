// Package logging builds the application logger.
package logging

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ParseLevel maps a level name to a slog level. Unknown names fall back to warn.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a text logger writing to w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Held buffers log output until Flush. Full-screen UIs log through it so
// records do not land on top of the rendered frame.
type Held struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewHeld returns a logger at the named level whose output is held in memory.
func NewHeld(level string) (*slog.Logger, *Held) {
	h := &Held{}
	return New(h, level), h
}

func (h *Held) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

// Flush writes everything held so far to w and empties the buffer.
func (h *Held) Flush(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.buf.WriteTo(w)
	return err
}
