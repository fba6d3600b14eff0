package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be set after InitForCLI")
	}

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in CLI output")
	}

	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	// Initialize with INFO level
	InitForCLI(LevelInfo, &buf)

	// Debug should be filtered out
	Debug("test", "debug message")

	// Info should appear
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestErrorAttribute(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Error("test", errors.New("boom"), "operation failed")

	output := buf.String()
	if !strings.Contains(output, "boom") {
		t.Error("Expected error text to appear in output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLevel(test.in); got != test.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", test.in, got, test.expected)
		}
	}
}
