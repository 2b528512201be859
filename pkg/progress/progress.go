// Package progress reports progress of operations that walk the history.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Callback receives progress updates during long operations.
type Callback func(op string, current, total int, message string)

// Noop discards progress updates.
func Noop(op string, current, total int, message string) {}

const barWidth = 30

// Terminal draws a single-line progress bar, redrawn in place.
type Terminal struct {
	writer      io.Writer
	op          string
	total       int
	current     atomic.Int64
	lastLineLen atomic.Int64
	enabled     atomic.Bool
}

// NewTerminal creates a progress bar writing to w.
func NewTerminal(w io.Writer, op string, total int, enabled bool) *Terminal {
	t := &Terminal{writer: w, op: op, total: total}
	t.enabled.Store(enabled)
	return t
}

// Callback returns a Callback that redraws this bar.
func (t *Terminal) Callback() Callback {
	return func(op string, current, total int, message string) {
		if !t.enabled.Load() {
			return
		}
		if total > 0 {
			t.total = total
		}
		t.current.Store(int64(current))
		t.render(message)
	}
}

func (t *Terminal) render(message string) {
	current := t.current.Load()
	total := int64(t.total)
	if total <= 0 {
		total = 1
	}
	if current > total {
		current = total
	}

	filled := int(int64(barWidth) * current / total)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	clear := "\r"
	if lastLen := t.lastLineLen.Load(); lastLen > 0 {
		clear = "\r" + strings.Repeat(" ", int(lastLen)) + "\r"
	}

	line := fmt.Sprintf("%s [%s] %d/%d (%.0f%%)", t.op, bar, current, total, float64(current)/float64(total)*100)
	if message != "" {
		line += " " + message
	}
	fmt.Fprint(t.writer, clear+line)
	t.lastLineLen.Store(int64(len(line)))
}

// Done fills the bar and ends the line.
func (t *Terminal) Done(message string) {
	if !t.enabled.Load() {
		return
	}
	t.current.Store(int64(t.total))
	t.render(message)
	fmt.Fprintln(t.writer)
}

// SetEnabled enables or disables drawing.
func (t *Terminal) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// IsEnabled reports whether the bar draws anything.
func (t *Terminal) IsEnabled() bool {
	return t.enabled.Load()
}
