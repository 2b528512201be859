package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LevelInfo)
	if logger.level != LevelInfo {
		t.Errorf("expected level %s, got %s", LevelInfo, logger.level)
	}
	if logger.format != FormatJSON {
		t.Errorf("expected json format, got %s", logger.format)
	}
}

func TestLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelDebug)
	logger.SetOutput(&buf)

	logger.Debug("listing snapshots", map[string]any{"dir": "data"})

	output := buf.String()
	if !strings.Contains(output, `"level":"debug"`) {
		t.Errorf("expected debug level in output, got: %s", output)
	}
	if !strings.Contains(output, `"message":"listing snapshots"`) {
		t.Errorf("expected message in output, got: %s", output)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn)
	logger.SetOutput(&buf)

	logger.Debug("dropped")
	logger.Info("dropped")
	if buf.Len() > 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	logger.Warn("kept")
	logger.Error("kept too")
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("expected 2 lines, got %d: %s", got, buf.String())
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	child := logger.WithFields(map[string]any{"component": "store"})
	child.Info("snapshot saved", map[string]any{"key": "2024-06-01 - 10:00:00"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Fields["component"] != "store" || entry.Fields["key"] != "2024-06-01 - 10:00:00" {
		t.Errorf("unexpected fields: %v", entry.Fields)
	}
	if len(logger.fields) != 0 {
		t.Errorf("parent fields must stay untouched, got %v", logger.fields)
	}
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.ErrorErr("save failed", errors.New("disk full"), map[string]any{"key": "k"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Fields["error"] != "disk full" {
		t.Errorf("expected error field, got %v", entry.Fields)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)
	logger.SetFormat(FormatText)

	logger.Info("rendered", map[string]any{"path": "img/current_layout.png", "bytes": 42})

	out := buf.String()
	if !strings.Contains(out, " INFO rendered bytes=42 path=img/current_layout.png\n") {
		t.Errorf("unexpected text line: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, " error ": LevelError}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConfigure(t *testing.T) {
	old := Global()
	defer SetGlobal(old)

	var buf bytes.Buffer
	l, err := Configure("debug", "text", &buf)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if Global() != l {
		t.Error("configure must install the global logger")
	}
	Debug("hello")
	if !strings.Contains(buf.String(), "DEBUG hello") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	if _, err := Configure("info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfigure_JSONFormatAndWriter(t *testing.T) {
	old := Global()
	defer SetGlobal(old)

	var buf bytes.Buffer
	l, err := Configure("info", "JSON", &buf)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.Info("saved", map[string]any{"key": "2024-06-01 - 12:00:00"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "saved" {
		t.Errorf("unexpected line: %v", line)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
