package transition

import (
	"math"

	"mixdown/internal/mix"
)

const (
	tempoCompatibleDelta = 1.0
	tempoBorderlineDelta = 3.0

	// Signal weights folding tempo, key, and format into the overall score.
	// The exact split is an implementation decision recorded in DESIGN.md;
	// the required property is that the result never increases with tempo
	// delta, which the piecewise tempo curve below guarantees.
	tempoWeight  = 0.6
	keyWeight    = 0.3
	formatWeight = 0.1

	gradeGoodThreshold    = 0.7
	gradeWarningThreshold = 0.4
)

// Score rates every adjacent pair in the ordered track list.
func Score(tracks []mix.Track) []mix.TransitionScore {
	if len(tracks) < 2 {
		return []mix.TransitionScore{}
	}
	scores := make([]mix.TransitionScore, 0, len(tracks)-1)
	for i := 0; i < len(tracks)-1; i++ {
		scores = append(scores, ScorePair(tracks[i], tracks[i+1], i))
	}
	return scores
}

// ScorePair rates the transition from a into b.
func ScorePair(a, b mix.Track, pairIndex int) mix.TransitionScore {
	delta := tempoDelta(a.TempoBPM, b.TempoBPM)
	key := KeyCompatibility(a.Key, b.Key)

	overall := tempoWeight*tempoScore(delta) + keyWeight*keyScore(key) + formatWeight*formatScore(a, b)
	return mix.TransitionScore{
		PairIndex:  pairIndex,
		TempoDelta: delta,
		TempoTier:  tierFor(delta),
		Key:        key,
		Overall:    overall,
		Grade:      gradeFor(overall),
	}
}

// tempoDelta treats a missing tempo on either side as the borderline tier
// midpoint rather than a perfect or hopeless match.
func tempoDelta(bpmA, bpmB float64) float64 {
	if bpmA <= 0 || bpmB <= 0 {
		return (tempoCompatibleDelta + tempoBorderlineDelta) / 2
	}
	return math.Abs(bpmA - bpmB)
}

func tierFor(delta float64) mix.TempoTier {
	switch {
	case delta <= tempoCompatibleDelta:
		return mix.TempoCompatible
	case delta <= tempoBorderlineDelta:
		return mix.TempoBorderline
	default:
		return mix.TempoIncompatible
	}
}

// tempoScore is 1.0 through the compatible tier, then falls linearly to 0.7
// at the borderline edge and continues down to zero past it. Monotone
// non-increasing in delta by construction.
func tempoScore(delta float64) float64 {
	switch {
	case delta <= tempoCompatibleDelta:
		return 1.0
	case delta <= tempoBorderlineDelta:
		return 1.0 - 0.15*(delta-tempoCompatibleDelta)
	default:
		score := 0.7 - 0.1*(delta-tempoBorderlineDelta)
		if score < 0 {
			score = 0
		}
		return score
	}
}

func keyScore(compat mix.KeyCompat) float64 {
	switch compat {
	case mix.KeyCompatible:
		return 1.0
	case mix.KeyIncompatible:
		return 0.0
	default:
		return 0.5
	}
}

// formatScore penalizes pairing a low-bitrate lossy track against anything
// else; the jump in fidelity is audible across a crossfade. Unknown bitrates
// score neutral.
func formatScore(a, b mix.Track) float64 {
	lowest := lowestBitrate(a, b)
	switch {
	case lowest < 0:
		return 0.5
	case lowest >= 192:
		return 1.0
	case lowest >= 128:
		return 0.5
	default:
		return 0.0
	}
}

// lowestBitrate returns the lower known bitrate of the pair, or -1 when
// neither track reports one. Lossless formats count as unbounded.
func lowestBitrate(a, b mix.Track) int {
	lowest := -1
	for _, track := range []mix.Track{a, b} {
		kbps := track.BitrateKbps
		if isLossless(track.Format) {
			continue
		}
		if kbps <= 0 {
			continue
		}
		if lowest < 0 || kbps < lowest {
			lowest = kbps
		}
	}
	return lowest
}

func isLossless(format string) bool {
	switch format {
	case "wav", "flac", "aiff", "alac":
		return true
	}
	return false
}

func gradeFor(overall float64) mix.TransitionGrade {
	switch {
	case overall >= gradeGoodThreshold:
		return mix.GradeGood
	case overall >= gradeWarningThreshold:
		return mix.GradeWarning
	default:
		return mix.GradePoor
	}
}
