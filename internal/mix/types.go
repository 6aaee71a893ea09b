package mix

import (
	"fmt"
	"strings"
)

// CueType identifies the role of a cue point on a track.
type CueType string

const (
	CueMarker    CueType = "marker"
	CueTrimStart CueType = "trim-start"
	CueTrimEnd   CueType = "trim-end"
)

// CuePoint is a named timestamp on a track.
type CuePoint struct {
	ID        string
	Type      CueType
	Timestamp float64
	Label     string
}

// Track describes one audio source in a project. Tempo, key, and bitrate are
// best-effort metadata; zero values mean unknown and degrade scoring to
// neutral outcomes rather than failing.
type Track struct {
	ID       string
	Position int
	Title    string
	Artist   string
	Path     string

	Duration    float64
	TempoBPM    float64
	Key         string
	BitrateKbps int
	Format      string

	Peaks     []float64
	CuePoints []CuePoint

	TrimStart float64
	TrimEnd   float64
}

// EffectiveStart returns the trim-adjusted playback start in seconds.
func (t Track) EffectiveStart() float64 {
	if t.TrimStart < 0 {
		return 0
	}
	return t.TrimStart
}

// EffectiveEnd returns the trim-adjusted playback end in seconds. A zero
// TrimEnd means the full track duration.
func (t Track) EffectiveEnd() float64 {
	if t.TrimEnd <= 0 || t.TrimEnd > t.Duration {
		return t.Duration
	}
	return t.TrimEnd
}

// EffectiveLength returns the playable length after trims.
func (t Track) EffectiveLength() float64 {
	length := t.EffectiveEnd() - t.EffectiveStart()
	if length < 0 {
		return 0
	}
	return length
}

// ApplyCue records a cue point on the track. Trim cues replace any existing
// cue of the same type so a track carries at most one trim-start and one
// trim-end; markers accumulate.
func (t *Track) ApplyCue(cue CuePoint) error {
	if cue.Timestamp < 0 || cue.Timestamp > t.Duration {
		return fmt.Errorf("cue %q timestamp %.3f outside track duration %.3f", cue.ID, cue.Timestamp, t.Duration)
	}
	switch cue.Type {
	case CueMarker:
		t.CuePoints = append(t.CuePoints, cue)
	case CueTrimStart:
		t.replaceCue(cue)
		t.TrimStart = cue.Timestamp
	case CueTrimEnd:
		t.replaceCue(cue)
		t.TrimEnd = cue.Timestamp
	default:
		return fmt.Errorf("unknown cue type %q", cue.Type)
	}
	return nil
}

func (t *Track) replaceCue(cue CuePoint) {
	kept := t.CuePoints[:0]
	for _, existing := range t.CuePoints {
		if existing.Type != cue.Type {
			kept = append(kept, existing)
		}
	}
	t.CuePoints = append(kept, cue)
}

// Section is a structural segment supplied by an external section detector.
type Section struct {
	Type       string
	Start      float64
	End        float64
	Confidence float64
}

// EnergyProfile is a fixed-length sequence of normalized energy values for one
// track, ordered from track start to track end.
type EnergyProfile []float64

// PhraseType classifies a phrase boundary by the largest bar multiple it sits
// on.
type PhraseType string

const (
	Phrase4  PhraseType = "phrase-4"
	Phrase8  PhraseType = "phrase-8"
	Phrase16 PhraseType = "phrase-16"
	Phrase32 PhraseType = "phrase-32"
)

// PhraseBoundary is a bar-aligned candidate transition point.
type PhraseBoundary struct {
	Time     float64
	Bar      int
	Strength float64
	Type     PhraseType
}

// KeyCompat is the tri-state outcome of harmonic key comparison. Unknown means
// at least one key was missing or unparseable; it must never be treated as a
// mismatch.
type KeyCompat int

const (
	KeyUnknown KeyCompat = iota
	KeyCompatible
	KeyIncompatible
)

func (k KeyCompat) String() string {
	switch k {
	case KeyCompatible:
		return "compatible"
	case KeyIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// TransitionGrade buckets an overall transition score.
type TransitionGrade string

const (
	GradeGood    TransitionGrade = "good"
	GradeWarning TransitionGrade = "warning"
	GradePoor    TransitionGrade = "poor"
)

// TempoTier buckets the tempo delta between adjacent tracks.
type TempoTier string

const (
	TempoCompatible   TempoTier = "compatible"
	TempoBorderline   TempoTier = "borderline"
	TempoIncompatible TempoTier = "incompatible"
)

// TransitionScore rates the transition from track PairIndex to PairIndex+1.
type TransitionScore struct {
	PairIndex  int
	TempoDelta float64
	TempoTier  TempoTier
	Key        KeyCompat
	Overall    float64
	Grade      TransitionGrade
}

// EnvelopePoint is a volume automation point. Values are clamped to [0,1]
// when sampled, not when stored.
type EnvelopePoint struct {
	Time  float64
	Value float64
}

// Format identifies a supported output container.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatMP3  Format = "mp3"
)

// MP3BitrateTiers are the only accepted lossy bitrates, in kbps.
var MP3BitrateTiers = []int{128, 192, 256, 320}

// Metadata carries optional output tags.
type Metadata struct {
	Title   string
	Artist  string
	Album   string
	Genre   string
	Year    string
	Comment string
}

// ParseFormat normalizes a format string from the boundary.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatWAV:
		return FormatWAV, nil
	case FormatFLAC:
		return FormatFLAC, nil
	case FormatMP3:
		return FormatMP3, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected wav, flac, or mp3)", value)
	}
}
