package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr error
	}{
		{input: "", want: zapcore.InfoLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "INFO", want: zapcore.InfoLevel},
		{input: " warn ", want: zapcore.WarnLevel},
		{input: "warning", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "trace", wantErr: ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseLevel(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Warn("primary failed, trying fallback", zap.String("id", "jquery"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "primary failed, trying fallback" || entry["id"] != "jquery" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("debug", "", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("resource loaded", zap.String("id", "app-css"))

	out := buf.String()
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "resource loaded") || !strings.Contains(out, "app-css") {
		t.Errorf("console output = %q", out)
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := New("loud", FormatJSON, &bytes.Buffer{}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("New(loud) error = %v, want ErrInvalidLevel", err)
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("New(xml) error = %v, want ErrInvalidFormat", err)
	}
}
