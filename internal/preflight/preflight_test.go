package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	missing := filepath.Join(dir, "missing")
	result = CheckDirectoryAccess("Output directory", missing)
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result = CheckDirectoryAccess("Output directory", file)
	if result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	result := CheckFreeSpace("Output free space", t.TempDir())
	// A temp dir on a full filesystem is a legitimate failure; only the
	// statfs plumbing is under test here.
	if result.Name != "Output free space" || result.Detail == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
