package cuesheet

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mixdown/internal/mix"
	"mixdown/internal/timeline"
)

// framesPerSecond is the CD audio frame rate used by INDEX timestamps.
const framesPerSecond = 75

// maxTracks is the cue sheet format's track number ceiling.
const maxTracks = 99

// Entry is one TRACK block in the sheet.
type Entry struct {
	Title     string
	Performer string
	StartTime float64
}

// Sheet describes a complete cue sheet for one rendered mix file.
type Sheet struct {
	Title     string
	Performer string
	FileName  string
	FileType  string
	Entries   []Entry
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// FromTimeline assembles a sheet from placements and their source tracks.
// Tracks are matched by ID; a placement without a matching track still gets
// an entry using the placement title.
func FromTimeline(tl timeline.Timeline, tracks []mix.Track, meta mix.Metadata, outputFile string) Sheet {
	byID := make(map[string]mix.Track, len(tracks))
	for _, track := range tracks {
		byID[track.ID] = track
	}

	sheet := Sheet{
		Title:     meta.Title,
		Performer: meta.Artist,
		FileName:  filepath.Base(outputFile),
		FileType:  fileTypeFor(outputFile),
	}
	for _, placement := range tl.Placements {
		entry := Entry{
			Title:     placement.Title,
			StartTime: placement.StartTime,
		}
		if track, ok := byID[placement.TrackID]; ok {
			if track.Title != "" {
				entry.Title = track.Title
			}
			entry.Performer = track.Artist
		}
		entry.Title = titleCaser.String(strings.TrimSpace(entry.Title))
		sheet.Entries = append(sheet.Entries, entry)
	}
	return sheet
}

// Render writes the sheet in standard cue format.
func (s Sheet) Render(w io.Writer) error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("cue sheet has no tracks")
	}
	if len(s.Entries) > maxTracks {
		return fmt.Errorf("cue sheet supports at most %d tracks, got %d", maxTracks, len(s.Entries))
	}

	var b strings.Builder
	if s.Performer != "" {
		fmt.Fprintf(&b, "PERFORMER %s\n", quote(s.Performer))
	}
	if s.Title != "" {
		fmt.Fprintf(&b, "TITLE %s\n", quote(s.Title))
	}
	fmt.Fprintf(&b, "FILE %s %s\n", quote(s.FileName), s.FileType)
	for i, entry := range s.Entries {
		fmt.Fprintf(&b, "  TRACK %02d AUDIO\n", i+1)
		if entry.Title != "" {
			fmt.Fprintf(&b, "    TITLE %s\n", quote(entry.Title))
		}
		if entry.Performer != "" {
			fmt.Fprintf(&b, "    PERFORMER %s\n", quote(entry.Performer))
		}
		fmt.Fprintf(&b, "    INDEX 01 %s\n", formatIndex(entry.StartTime))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the sheet next to the mix output.
func (s Sheet) WriteFile(path string) error {
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create cue sheet: %w", err)
	}
	if err := s.Render(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close cue sheet: %w", err)
	}
	return nil
}

// formatIndex renders seconds as MM:SS:FF with 75 frames per second.
// Minutes are not wrapped at 60; long mixes routinely exceed an hour.
func formatIndex(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalFrames := int(math.Round(seconds * framesPerSecond))
	frames := totalFrames % framesPerSecond
	totalSeconds := totalFrames / framesPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/60, totalSeconds%60, frames)
}

func fileTypeFor(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp3":
		return "MP3"
	default:
		return "WAVE"
	}
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `'`) + `"`
}
