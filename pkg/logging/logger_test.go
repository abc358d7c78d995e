package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"swiftgo/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "logs", "server.log")
	traceLog := filepath.Join(tempDir, "logs", "sendid_trace.log")

	cfg := &config.LogConfig{
		Server: config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Trace:  config.LogSettings{Path: traceLog, Level: "INFO"},
	}

	l, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer l.Close()

	if l.Trace == nil {
		t.Fatal("Trace logger was not initialized")
	}

	slog.Info("hello server")
	l.Trace.Info("hello trace")

	if _, err := os.Stat(serverLog); err != nil {
		t.Errorf("Server log file not created: %v", err)
	}
	if _, err := os.Stat(traceLog); err != nil {
		t.Errorf("Trace log file not created: %v", err)
	}
	if got := l.Capture.GetLastLine(); !strings.Contains(got, "hello server") {
		t.Errorf("capture last line = %q", got)
	}
	if got := l.Capture.GetLastLine(); strings.Contains(got, "hello trace") {
		t.Error("trace records must not reach the server capture")
	}
}

func TestInit_EmptyPath(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := Init(&config.LogConfig{
		Server: config.LogSettings{Path: filepath.Join(t.TempDir(), "server.log")},
	})
	if err == nil {
		t.Fatal("expected error for empty trace path")
	}
}

func TestInit_RotatesExisting(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	serverLog := filepath.Join(dir, "server.log")
	if err := os.WriteFile(serverLog, []byte("old run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Init(&config.LogConfig{
		Server: config.LogSettings{Path: serverLog, MaxBackups: 3},
		Trace:  config.LogSettings{Path: filepath.Join(dir, "trace.log")},
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer l.Close()

	data, err := os.ReadFile(serverLog)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "old run") {
		t.Error("existing log was not rotated")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "server-*.log"))
	if len(matches) != 1 {
		t.Errorf("backups = %v, want 1", matches)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"Error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogCaptureWriter(t *testing.T) {
	w := NewLogCaptureWriter(3)
	if got := w.GetLastLine(); got != "" {
		t.Errorf("empty GetLastLine = %q", got)
	}
	if got := w.Lines(5); len(got) != 0 {
		t.Errorf("empty Lines = %v", got)
	}

	for _, s := range []string{"one\n", "two\n", "three\n", "four\n"} {
		if _, err := w.Write([]byte(s)); err != nil {
			t.Fatal(err)
		}
	}

	if got := w.GetLastLine(); got != "four" {
		t.Errorf("GetLastLine = %q, want four", got)
	}
	got := w.Lines(5)
	want := []string{"two", "three", "four"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Lines(5) = %v, want %v", got, want)
	}
	if got := w.Lines(1); len(got) != 1 || got[0] != "four" {
		t.Errorf("Lines(1) = %v", got)
	}
}

func TestDumpTraces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	DumpTraces(logger, "CREATE_OBJECT_FAILED send_id:12 index:0", []TraceEntry{
		{SendID: 11, Comment: "SetDataOnSimObject position", At: at, Object: "aircraft DLH123"},
		{SendID: 12, Comment: "AICreateNonATCAircraft", At: at, Object: "aircraft BAW1"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d records, want 3", len(lines))
	}
	var header map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatal(err)
	}
	if header["entries"] != float64(2) {
		t.Errorf("header entries = %v", header["entries"])
	}
	var last map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatal(err)
	}
	if last["send_id"] != float64(12) || last["object"] != "aircraft BAW1" {
		t.Errorf("last record = %v", last)
	}
}
