package transition_test

import (
	"testing"

	"mixdown/internal/mix"
	"mixdown/internal/transition"
)

func track(bpm float64, key string) mix.Track {
	return mix.Track{Duration: 300, TempoBPM: bpm, Key: key, Format: "flac"}
}

func TestTempoTiers(t *testing.T) {
	cases := []struct {
		name string
		bpmA float64
		bpmB float64
		want mix.TempoTier
	}{
		{"identical", 120, 120, mix.TempoCompatible},
		{"within one", 120, 121, mix.TempoCompatible},
		{"delta three is borderline", 120, 123, mix.TempoBorderline},
		{"beyond three", 120, 126, mix.TempoIncompatible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := transition.ScorePair(track(tc.bpmA, ""), track(tc.bpmB, ""), 0)
			if score.TempoTier != tc.want {
				t.Fatalf("tier = %s, want %s (delta %v)", score.TempoTier, tc.want, score.TempoDelta)
			}
		})
	}
}

func TestScoreMonotoneInTempoDelta(t *testing.T) {
	prev := 2.0
	for delta := 0.0; delta <= 12; delta += 0.5 {
		score := transition.ScorePair(track(120, "8A"), track(120+delta, "8A"), 0)
		if score.Overall > prev {
			t.Fatalf("overall score rose from %v to %v at delta %v", prev, score.Overall, delta)
		}
		prev = score.Overall
	}
}

func TestKeyCompatibility(t *testing.T) {
	cases := []struct {
		name string
		keyA string
		keyB string
		want mix.KeyCompat
	}{
		{"same camelot", "8A", "8A", mix.KeyCompatible},
		{"adjacent hour", "8A", "9A", mix.KeyCompatible},
		{"wrap around", "12B", "1B", mix.KeyCompatible},
		{"relative major", "8A", "8B", mix.KeyCompatible},
		{"clash", "8A", "3A", mix.KeyIncompatible},
		{"cross ring different hour", "8A", "9B", mix.KeyIncompatible},
		{"conventional minor", "Am", "Em", mix.KeyCompatible},
		{"conventional relative", "Am", "C", mix.KeyCompatible},
		{"conventional clash", "C", "F#", mix.KeyIncompatible},
		{"missing left", "", "8A", mix.KeyUnknown},
		{"missing right", "8A", "", mix.KeyUnknown},
		{"garbage", "purple", "8A", mix.KeyUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := transition.KeyCompatibility(tc.keyA, tc.keyB); got != tc.want {
				t.Fatalf("KeyCompatibility(%q, %q) = %s, want %s", tc.keyA, tc.keyB, got, tc.want)
			}
		})
	}
}

func TestUnknownKeyScoresBetweenExtremes(t *testing.T) {
	compatible := transition.ScorePair(track(120, "8A"), track(120, "8A"), 0)
	unknown := transition.ScorePair(track(120, ""), track(120, "8A"), 0)
	clash := transition.ScorePair(track(120, "8A"), track(120, "3A"), 0)
	if !(clash.Overall < unknown.Overall && unknown.Overall < compatible.Overall) {
		t.Fatalf("expected clash < unknown < compatible, got %v / %v / %v",
			clash.Overall, unknown.Overall, compatible.Overall)
	}
}

func TestGrades(t *testing.T) {
	good := transition.ScorePair(track(120, "8A"), track(120.5, "8A"), 0)
	if good.Grade != mix.GradeGood {
		t.Fatalf("matched pair graded %s (overall %v), want good", good.Grade, good.Overall)
	}
	poor := transition.ScorePair(track(120, "8A"), track(132, "3A"), 0)
	if poor.Grade != mix.GradePoor {
		t.Fatalf("clashing pair graded %s (overall %v), want poor", poor.Grade, poor.Overall)
	}
}

func TestScorePairsAdjacentTracks(t *testing.T) {
	tracks := []mix.Track{track(120, "8A"), track(121, "8A"), track(124, "9A")}
	scores := transition.Score(tracks)
	if len(scores) != 2 {
		t.Fatalf("scored %d pairs, want 2", len(scores))
	}
	for i, s := range scores {
		if s.PairIndex != i {
			t.Fatalf("pair %d carries index %d", i, s.PairIndex)
		}
	}
	if scores[0].TempoTier != mix.TempoCompatible {
		t.Fatalf("pair 0 tier = %s", scores[0].TempoTier)
	}
	if scores[1].TempoTier != mix.TempoBorderline {
		t.Fatalf("pair 1 tier = %s", scores[1].TempoTier)
	}
	if got := transition.Score(tracks[:1]); len(got) != 0 {
		t.Fatalf("single track produced %d scores", len(got))
	}
}
