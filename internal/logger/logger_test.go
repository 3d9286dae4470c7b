package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.log")

	log, err := New(Options{JSON: true, Output: path, Fields: []zap.Field{zap.String(FieldRole, "company")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hidden")
	log.Info("submission approved", zap.Int64(FieldSubmissionID, 41))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the info entry, got %q", data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if entry["step"] != "submission approved" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry[FieldRole] != "company" || entry[FieldSubmissionID] != float64(41) {
		t.Fatalf("missing fields in %v", entry)
	}
}

func TestNewDebugLevel(t *testing.T) {
	log, err := New(Options{Debug: true, Output: filepath.Join(t.TempDir(), "debug.log")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}
}
