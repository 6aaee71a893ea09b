package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	body := fmt.Sprintf(`[paths]
library_dir = %q
output_dir = %q
staging_dir = %q
log_dir = %q
cache_dir = %q
`,
		filepath.Join(base, "library"),
		filepath.Join(base, "output"),
		filepath.Join(base, "staging"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "cache"))
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	configPath := writeCLIConfig(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, configPath, "project", "create", "Friday Mix", "--crossfade", "4")
	if err != nil {
		t.Fatalf("project create: %v", err)
	}
	requireContains(t, out, "Friday Mix")

	out, err = runCLI(t, configPath, "project", "list")
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	requireContains(t, out, "Friday Mix")
}

func TestScoreRequiresTwoTracks(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, configPath, "project", "create", "Solo")
	if err != nil {
		t.Fatalf("project create: %v", err)
	}
	id := extractProjectID(t, out)

	out, err = runCLI(t, configPath, "score", id)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	requireContains(t, out, "at least two tracks")
}

func extractProjectID(t *testing.T, output string) string {
	t.Helper()
	for _, field := range strings.Fields(output) {
		trimmed := strings.Trim(field, "()")
		if len(trimmed) == 36 && strings.Count(trimmed, "-") == 4 {
			return trimmed
		}
	}
	t.Fatalf("no project id in output:\n%s", output)
	return ""
}
