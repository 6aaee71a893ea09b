package timeline

import (
	"fmt"
	"sort"

	"mixdown/internal/mix"
	"mixdown/internal/services"
)

// Placement fixes one track on the mix timeline. CrossfadeIn covers the
// overlap with the predecessor, CrossfadeOut the overlap with the successor;
// the first track has no incoming and the last no outgoing overlap.
type Placement struct {
	TrackID         string
	TrackIndex      int
	Title           string
	StartTime       float64
	EffectiveLength float64
	CrossfadeIn     float64
	CrossfadeOut    float64
}

// EndTime returns the absolute time the placement stops sounding.
func (p Placement) EndTime() float64 {
	return p.StartTime + p.EffectiveLength
}

// Timeline is the ordered set of placements for one export.
type Timeline struct {
	Placements        []Placement
	CrossfadeDuration float64
}

// TotalDuration returns the span of the full mix.
func (t Timeline) TotalDuration() float64 {
	if len(t.Placements) == 0 {
		return 0
	}
	return t.Placements[len(t.Placements)-1].EndTime()
}

// Build places tracks in Position order. Track i>0 starts crossfadeDuration
// before its predecessor ends, so adjacent placements overlap by exactly that
// duration. The crossfade must not exceed half the shorter effective length
// of any adjacent pair; a violation is a configuration error, never a silent
// clamp.
func Build(tracks []mix.Track, crossfadeDuration float64) (Timeline, error) {
	if len(tracks) == 0 {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "timeline", "build", "no tracks to place", nil)
	}
	if crossfadeDuration < 0 || crossfadeDuration > mix.MaxCrossfadeSeconds {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "timeline", "build",
			fmt.Sprintf("crossfade duration %.2fs outside [0, %d]", crossfadeDuration, mix.MaxCrossfadeSeconds), nil)
	}

	ordered := append([]mix.Track(nil), tracks...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	if err := validatePairs(ordered, crossfadeDuration); err != nil {
		return Timeline{}, err
	}

	placements := make([]Placement, 0, len(ordered))
	cursor := 0.0
	for i, track := range ordered {
		length := track.EffectiveLength()
		placement := Placement{
			TrackID:         track.ID,
			TrackIndex:      i,
			Title:           track.Title,
			EffectiveLength: length,
		}
		if i == 0 {
			placement.StartTime = 0
		} else {
			placement.StartTime = cursor - crossfadeDuration
			placement.CrossfadeIn = crossfadeDuration
		}
		if i < len(ordered)-1 {
			placement.CrossfadeOut = crossfadeDuration
		}
		cursor = placement.StartTime + length
		placements = append(placements, placement)
	}

	return Timeline{Placements: placements, CrossfadeDuration: crossfadeDuration}, nil
}

func validatePairs(ordered []mix.Track, crossfadeDuration float64) error {
	for i := 0; i < len(ordered); i++ {
		if ordered[i].EffectiveLength() <= 0 {
			return services.Wrap(services.ErrConfiguration, "timeline", "build",
				fmt.Sprintf("track %d (%s) has no playable length after trims", i, ordered[i].Title), nil)
		}
	}
	for i := 0; i < len(ordered)-1; i++ {
		shorter := ordered[i].EffectiveLength()
		if next := ordered[i+1].EffectiveLength(); next < shorter {
			shorter = next
		}
		if crossfadeDuration > shorter/2 {
			return services.Wrap(services.ErrConfiguration, "timeline", "build",
				fmt.Sprintf("crossfade %.2fs exceeds half the shorter track between positions %d and %d (%.2fs)",
					crossfadeDuration, i, i+1, shorter), nil)
		}
	}
	return nil
}
