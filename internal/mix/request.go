package mix

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxCrossfadeSeconds bounds the global crossfade duration accepted at the
// export boundary.
const MaxCrossfadeSeconds = 30

// ExportRequest is the validated configuration snapshot for one export job.
type ExportRequest struct {
	ProjectID         string
	OutputDirectory   string
	OutputFilename    string
	Format            Format
	MP3BitrateKbps    int
	Normalization     bool
	GenerateCueSheet  bool
	CrossfadeDuration float64
	Metadata          Metadata
}

// OutputPath returns the requested destination file.
func (r ExportRequest) OutputPath() string {
	return filepath.Join(r.OutputDirectory, r.OutputFilename)
}

// Validate enforces the export boundary contract. It rejects the request
// before any filesystem or process work happens.
func (r ExportRequest) Validate() error {
	if strings.TrimSpace(r.ProjectID) == "" {
		return fmt.Errorf("project id required")
	}
	if strings.TrimSpace(r.OutputDirectory) == "" {
		return fmt.Errorf("output directory required")
	}
	name := strings.TrimSpace(r.OutputFilename)
	if name == "" {
		return fmt.Errorf("output filename required")
	}
	if name != filepath.Base(name) {
		return fmt.Errorf("output filename %q must not contain path separators", r.OutputFilename)
	}
	switch r.Format {
	case FormatWAV, FormatFLAC:
		if r.MP3BitrateKbps != 0 {
			return fmt.Errorf("mp3 bitrate is only valid for mp3 output")
		}
	case FormatMP3:
		if !validMP3Bitrate(r.MP3BitrateKbps) {
			return fmt.Errorf("mp3 bitrate %d not supported (expected one of %v)", r.MP3BitrateKbps, MP3BitrateTiers)
		}
	default:
		return fmt.Errorf("unsupported format %q", string(r.Format))
	}
	if r.CrossfadeDuration < 0 || r.CrossfadeDuration > MaxCrossfadeSeconds {
		return fmt.Errorf("crossfade duration %.2fs outside [0, %d]", r.CrossfadeDuration, MaxCrossfadeSeconds)
	}
	return nil
}

func validMP3Bitrate(kbps int) bool {
	for _, tier := range MP3BitrateTiers {
		if kbps == tier {
			return true
		}
	}
	return false
}

// Phase names the render pipeline states.
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseRendering  Phase = "rendering"
	PhaseEncoding   Phase = "encoding"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
	PhaseCancelled  Phase = "cancelled"
)

// Terminal reports whether the phase ends a job.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseError, PhaseCancelled:
		return true
	}
	return false
}

// Progress is one snapshot pushed to export observers.
type Progress struct {
	Phase             Phase
	CurrentTrackIndex int
	CurrentTrackName  string
	TotalTracks       int
	Percentage        float64
	ETASeconds        float64
	OutputPath        string
	Err               string
}
