package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixdown/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to be reported as absent")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Export.CrossfadeSeconds != 6.0 {
		t.Fatalf("crossfade default = %v", cfg.Export.CrossfadeSeconds)
	}
	if cfg.FFmpeg.Binary != "ffmpeg" {
		t.Fatalf("ffmpeg binary default = %q", cfg.FFmpeg.Binary)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
cache_dir = "` + filepath.Join(dir, "cache") + `"

[export]
crossfade_seconds = 12.5
format = "MP3"
mp3_bitrate_kbps = 192
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Export.CrossfadeSeconds != 12.5 {
		t.Fatalf("crossfade = %v", cfg.Export.CrossfadeSeconds)
	}
	if cfg.Export.Format != "mp3" {
		t.Fatalf("format not normalized: %q", cfg.Export.Format)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "out") {
		t.Fatalf("output dir = %q", cfg.Paths.OutputDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"crossfade too long", "[export]\ncrossfade_seconds = 45.0\n", "crossfade_seconds"},
		{"bad format", "[export]\nformat = \"ogg\"\n", "format"},
		{"bad bitrate", "[export]\nformat = \"mp3\"\nmp3_bitrate_kbps = 160\n", "mp3_bitrate_kbps"},
		{"bad workers", "[analysis]\nworkers = 0\n", "workers"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q missing %q", err, tc.wantErr)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error on existing file")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("sample config did not round-trip: exists=%v err=%v", exists, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.CacheDir = filepath.Join(dir, "cache")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{"out", "staging", "logs", "cache"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Fatalf("directory %s missing: %v", sub, err)
		}
	}
	if cfg.DatabasePath() != filepath.Join(dir, "cache", "projects.db") {
		t.Fatalf("database path = %q", cfg.DatabasePath())
	}
}
