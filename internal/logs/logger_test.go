package logs_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/karupanerura/formula-processor/internal/logs"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for input, expected := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := logs.ParseLevel(input)
		if err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("%s: expect %v but got %v", input, expected, got)
		}
	}

	if _, err := logs.ParseLevel("verbose"); err == nil {
		t.Error("should be error")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var terminal bytes.Buffer
	jsonFile := filepath.Join(t.TempDir(), "log.jsonl")

	logger, closer, err := logs.New(logs.Options{
		Level:    "warn",
		Terminal: &terminal,
		JSONFile: jsonFile,
	})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	logger.Warn("circular reference", slog.String("cell", "A1"))
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if s := terminal.String(); strings.Contains(s, "hidden") || !strings.Contains(s, "cell=A1") {
		t.Errorf("unexpected terminal output: %s", s)
	}

	b, err := os.ReadFile(jsonFile)
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &record); err != nil {
		t.Fatalf("should be a single JSON line: %v: %s", err, b)
	}
	if record["msg"] != "circular reference" || record["cell"] != "A1" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	t.Parallel()

	if _, _, err := logs.New(logs.Options{Level: "loud"}); err == nil {
		t.Error("should be error")
	}
}
