package envelope_test

import (
	"math"
	"testing"

	"mixdown/internal/envelope"
	"mixdown/internal/mix"
)

func TestDBConversionRoundTrip(t *testing.T) {
	if got := envelope.DBToLinear(0); got != 1.0 {
		t.Fatalf("DBToLinear(0) = %v, want 1.0", got)
	}
	if got := envelope.LinearToDB(1.0); got != 0 {
		t.Fatalf("LinearToDB(1) = %v, want 0", got)
	}
	if got := envelope.LinearToDB(0); !math.IsInf(got, -1) {
		t.Fatalf("LinearToDB(0) = %v, want -Inf", got)
	}
	if got := envelope.LinearToDB(-0.5); !math.IsInf(got, -1) {
		t.Fatalf("LinearToDB(-0.5) = %v, want -Inf", got)
	}
	for db := -60.0; db <= 20.0; db += 2.5 {
		round := envelope.LinearToDB(envelope.DBToLinear(db))
		if math.Abs(round-db) > 1e-9 {
			t.Fatalf("round trip at %v dB drifted to %v", db, round)
		}
	}
}

func TestInterpolateUnityFallback(t *testing.T) {
	cases := []struct {
		name     string
		points   []mix.EnvelopePoint
		duration float64
	}{
		{"no points", nil, 120},
		{"empty points", []mix.EnvelopePoint{}, 1},
		{"zero duration", []mix.EnvelopePoint{{Time: 0, Value: 0.5}}, 0},
		{"negative duration", []mix.EnvelopePoint{{Time: 0, Value: 0.5}}, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples := envelope.Interpolate(tc.points, tc.duration, 16)
			if len(samples) != 16 {
				t.Fatalf("sample count = %d, want 16", len(samples))
			}
			for i, v := range samples {
				if v != 1.0 {
					t.Fatalf("sample %d = %v, want unity gain", i, v)
				}
			}
		})
	}
}

func TestInterpolateHoldsEndpoints(t *testing.T) {
	points := []mix.EnvelopePoint{
		{Time: 4, Value: 0.8},
		{Time: 6, Value: 0.2},
	}
	samples := envelope.Interpolate(points, 10, 11)
	if len(samples) != 11 {
		t.Fatalf("sample count = %d, want 11", len(samples))
	}
	// One sample per second: before the first point the first value holds.
	for i := 0; i <= 4; i++ {
		if math.Abs(samples[i]-0.8) > 1e-9 {
			t.Fatalf("sample %d = %v, want held 0.8", i, samples[i])
		}
	}
	// After the last point the last value holds.
	for i := 6; i <= 10; i++ {
		if math.Abs(samples[i]-0.2) > 1e-9 {
			t.Fatalf("sample %d = %v, want held 0.2", i, samples[i])
		}
	}
	// Midpoint interpolates linearly.
	if mid := samples[5]; math.Abs(mid-0.5) > 1e-9 {
		t.Fatalf("midpoint = %v, want 0.5", mid)
	}
}

func TestInterpolateSortsAndClamps(t *testing.T) {
	points := []mix.EnvelopePoint{
		{Time: 8, Value: -2.0},
		{Time: 0, Value: 4.0},
	}
	samples := envelope.Interpolate(points, 8, 9)
	for i, v := range samples {
		if v < 0 || v > 1 {
			t.Fatalf("sample %d = %v escaped [0,1]", i, v)
		}
	}
	if samples[0] != 1.0 {
		t.Fatalf("first sample = %v, want clamped 1.0", samples[0])
	}
	if samples[8] != 0.0 {
		t.Fatalf("last sample = %v, want clamped 0.0", samples[8])
	}
}

func TestInterpolateSingleSample(t *testing.T) {
	points := []mix.EnvelopePoint{{Time: 5, Value: 0.4}}
	samples := envelope.Interpolate(points, 10, 1)
	if len(samples) != 1 {
		t.Fatalf("sample count = %d, want 1", len(samples))
	}
	if math.Abs(samples[0]-0.4) > 1e-9 {
		t.Fatalf("sample = %v, want 0.4", samples[0])
	}
}
