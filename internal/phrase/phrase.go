package phrase

import (
	"math"

	"mixdown/internal/mix"
)

const (
	beatsPerBar = 4

	strength32 = 0.9
	strength16 = 0.7
	strength8  = 0.5
	strength4  = 0.3

	energyBoostMax = 0.3
	sectionBoost   = 0.2
)

// Input bundles everything the detector consumes for one track. Profile and
// Sections are optional; their absence only withholds the corresponding
// strength boosts.
type Input struct {
	TempoBPM        float64
	FirstBeatOffset float64
	Duration        float64
	Profile         mix.EnergyProfile
	Sections        []mix.Section
}

// BarLength returns the duration of one 4/4 bar at the given tempo, or 0 for
// a non-positive tempo.
func BarLength(tempoBPM float64) float64 {
	if tempoBPM <= 0 {
		return 0
	}
	return beatsPerBar * 60 / tempoBPM
}

// Detect walks the bar grid and returns the phrase boundaries within the
// track, ordered by time. A non-positive tempo or duration yields no
// boundaries.
func Detect(in Input) []mix.PhraseBoundary {
	if in.TempoBPM <= 0 || in.Duration <= 0 {
		return []mix.PhraseBoundary{}
	}
	barLength := BarLength(in.TempoBPM)
	lastBar := int(math.Floor((in.Duration - in.FirstBeatOffset) / barLength))

	boundaries := make([]mix.PhraseBoundary, 0, lastBar/beatsPerBar+1)
	for bar := 0; bar <= lastBar; bar++ {
		t := in.FirstBeatOffset + float64(bar)*barLength
		if t < 0 || t > in.Duration {
			continue
		}
		kind, base, ok := classify(bar)
		if !ok {
			continue
		}
		strength := base
		strength += energyBoost(in.Profile, in.Duration, t)
		if nearSectionBoundary(in.Sections, t, barLength/2) {
			strength += sectionBoost
		}
		if strength > 1 {
			strength = 1
		}
		boundaries = append(boundaries, mix.PhraseBoundary{
			Time:     t,
			Bar:      bar,
			Strength: strength,
			Type:     kind,
		})
	}
	return boundaries
}

// classify tags a bar with the most specific phrase multiple it satisfies.
// Priority runs 32 > 16 > 8 > 4; bars off the 4-bar grid are dropped.
func classify(bar int) (mix.PhraseType, float64, bool) {
	switch {
	case bar%32 == 0:
		return mix.Phrase32, strength32, true
	case bar%16 == 0:
		return mix.Phrase16, strength16, true
	case bar%8 == 0:
		return mix.Phrase8, strength8, true
	case bar%4 == 0:
		return mix.Phrase4, strength4, true
	}
	return "", 0, false
}

// energyBoost compares mean energy immediately before and after t and scales
// the absolute change into [0, energyBoostMax].
func energyBoost(profile mix.EnergyProfile, duration, t float64) float64 {
	if len(profile) == 0 || duration <= 0 {
		return 0
	}
	idx := int(t / duration * float64(len(profile)))
	if idx >= len(profile) {
		idx = len(profile) - 1
	}
	before := meanWindow(profile, idx-3, idx)
	after := meanWindow(profile, idx, idx+3)
	return math.Abs(after-before) * energyBoostMax
}

// meanWindow averages profile[start:end) clipped to valid indices; an empty
// window contributes zero energy.
func meanWindow(profile mix.EnergyProfile, start, end int) float64 {
	if start < 0 {
		start = 0
	}
	if end > len(profile) {
		end = len(profile)
	}
	if end <= start {
		return 0
	}
	sum := 0.0
	for _, v := range profile[start:end] {
		sum += v
	}
	return sum / float64(end-start)
}

func nearSectionBoundary(sections []mix.Section, t, tolerance float64) bool {
	for _, section := range sections {
		if math.Abs(section.Start-t) <= tolerance || math.Abs(section.End-t) <= tolerance {
			return true
		}
	}
	return false
}

// ScoreForTime rates how well a time aligns with the detected grid. Within
// half a bar of a boundary it returns that boundary's strength and the
// boundary itself; otherwise it returns a score decaying linearly from 0.3
// down to a floor of 0.1 over a 4-bar window, with no aligned boundary.
func ScoreForTime(t float64, boundaries []mix.PhraseBoundary, tempoBPM float64) (float64, *mix.PhraseBoundary) {
	barLength := BarLength(tempoBPM)
	if barLength <= 0 || len(boundaries) == 0 {
		return 0.1, nil
	}

	nearest := 0
	nearestDist := math.Abs(boundaries[0].Time - t)
	for i := 1; i < len(boundaries); i++ {
		if dist := math.Abs(boundaries[i].Time - t); dist < nearestDist {
			nearest = i
			nearestDist = dist
		}
	}

	if nearestDist <= barLength/2 {
		aligned := boundaries[nearest]
		return aligned.Strength, &aligned
	}

	window := 4 * barLength
	score := 0.3 - 0.2*(nearestDist/window)
	if score < 0.1 {
		score = 0.1
	}
	return score, nil
}
