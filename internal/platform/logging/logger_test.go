package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestLogger_WritesJSONWithFieldsAndRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Service: "nhl-actions", Version: "test", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	logger.InfoContext(ctx, "team resolved", "query", "bruins", "abbreviation", "BOS")

	var line map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "team resolved" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["abbreviation"] != "BOS" {
		t.Fatalf("unexpected abbreviation field: %v", line["abbreviation"])
	}
	if line["request_id"] != "req-1" {
		t.Fatalf("unexpected request_id: %v", line["request_id"])
	}
	if line["service"] != "nhl-actions" {
		t.Fatalf("unexpected service: %v", line["service"])
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelWarn, Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept", "error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "boom") {
		t.Fatalf("expected warn line with error, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	t.Parallel()

	var logger *Logger
	logger.Info("does not panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected non-nil logger from nil receiver")
	}
}
