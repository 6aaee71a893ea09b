package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixdown/internal/config"
	"mixdown/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("engine ready", logging.String(logging.FieldComponent, "test"))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "mixdown.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "engine ready") {
		t.Fatalf("log file missing message: %q", content)
	}
	if !strings.Contains(content, `"component":"test"`) {
		t.Fatalf("log file missing component attr: %q", content)
	}
}

func TestComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "analysis")
	// Must not panic and must stay silent.
	logger.Info("ignored")
}
