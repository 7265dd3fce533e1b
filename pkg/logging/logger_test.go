package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

// decodeLine parses one emitted log line
func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Log line is not valid JSON: %v\nline: %s", err, line)
	}
	return entry
}

func TestJSONLoggerEmitsOneLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("analysis accepted", AnalysisID("abc"), Iteration(3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d", len(lines))
	}

	entry := decodeLine(t, lines[0])
	if entry["level"] != "INFO" {
		t.Errorf("Expected level INFO, got %v", entry["level"])
	}
	if entry["msg"] != "analysis accepted" {
		t.Errorf("Expected message, got %v", entry["msg"])
	}
	fields := entry["fields"].(map[string]any)
	if fields["analysis_id"] != "abc" {
		t.Errorf("Expected analysis_id field, got %v", fields)
	}
	if fields["iteration"] != float64(3) {
		t.Errorf("Expected iteration 3, got %v", fields["iteration"])
	}
}

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
}

func TestWithFieldsPropagateToChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("runner"), AnalysisID("xyz"))

	child.Info("step", Iteration(1))

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	fields := entry["fields"].(map[string]any)
	if fields["component"] != "runner" {
		t.Errorf("Expected inherited component field, got %v", fields)
	}
	if fields["analysis_id"] != "xyz" {
		t.Errorf("Expected inherited analysis_id field, got %v", fields)
	}
	if fields["iteration"] != float64(1) {
		t.Errorf("Expected call-site iteration field, got %v", fields)
	}
}

func TestErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Error("failed", Error(errors.New("boom")))

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	fields := entry["fields"].(map[string]any)
	if fields["error"] != "boom" {
		t.Errorf("Expected error field boom, got %v", fields["error"])
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "evaluation", Component("search"))
	time.Sleep(time.Millisecond)
	timer.End()

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	fields := entry["fields"].(map[string]any)
	if _, ok := fields["latency"]; !ok {
		t.Errorf("Expected latency field, got %v", fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if child := logger.With(Component("x")); child == nil {
		t.Fatal("With should return a usable logger")
	}
}
