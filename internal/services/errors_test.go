package services_test

import (
	"errors"
	"strings"
	"testing"

	"mixdown/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProcessExit, "render", "mixdown", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProcessExit) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "mixdown", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "render", "validate", "no marker", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation fallback marker, got %v", err)
	}
}

func TestExitErrorCarriesStderr(t *testing.T) {
	err := services.NewExitError("ffmpeg", 187, "  Unknown encoder 'libfoo'\n")
	if !errors.Is(err, services.ErrProcessExit) {
		t.Fatalf("expected process exit marker, got %v", err)
	}
	var exitErr *services.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError in chain, got %v", err)
	}
	if exitErr.ExitCode != 187 {
		t.Fatalf("exit code = %d, want 187", exitErr.ExitCode)
	}
	if !strings.Contains(err.Error(), "Unknown encoder") {
		t.Fatalf("stderr missing from message %q", err.Error())
	}
}
