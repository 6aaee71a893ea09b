package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid crossfade/bitrate/output settings.
	// Detected before any filesystem or process work.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks a missing or unversionable encoder, or an
	// unusable output directory.
	ErrValidation = errors.New("validation error")
	// ErrSpawn marks a binary that could not be started.
	ErrSpawn = errors.New("process spawn error")
	// ErrProcessExit marks a non-zero exit from an external tool.
	ErrProcessExit = errors.New("process exit error")
	// ErrAnalysis marks a per-track feature extraction failure. It is
	// isolated: the batch substitutes neutral values and continues.
	ErrAnalysis = errors.New("analysis error")
	// ErrCancelled marks user-initiated cancellation. Terminal state, not a
	// failure.
	ErrCancelled = errors.New("cancelled")
	// ErrBusy marks an export started while another is active for the same
	// project.
	ErrBusy = errors.New("export busy")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitError carries the captured stderr of a failed external process. It is
// always wrapped with ErrProcessExit.
type ExitError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, stderr)
}

// NewExitError wraps a non-zero process exit with its stderr tail.
func NewExitError(binary string, exitCode int, stderr string) error {
	return fmt.Errorf("%w: %w", ErrProcessExit, &ExitError{Binary: binary, ExitCode: exitCode, Stderr: stderr})
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
