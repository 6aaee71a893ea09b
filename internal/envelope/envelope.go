package envelope

import (
	"math"
	"sort"

	"mixdown/internal/mix"
)

// DBToLinear converts a decibel value to linear gain.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear gain to decibels. Zero and negative gain map to
// -Inf, which represents digital silence rather than an error.
func LinearToDB(gain float64) float64 {
	if gain <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(gain)
}

// Interpolate samples the envelope at sampleCount positions evenly spaced over
// [0, duration]. Without points, or with a non-positive duration, every sample
// is unity gain. The first point's value holds before it, the last point's
// value holds after it, and samples between points interpolate linearly by
// time. Every output sample is clamped to [0,1] regardless of stored values.
func Interpolate(points []mix.EnvelopePoint, duration float64, sampleCount int) []float64 {
	if sampleCount <= 0 {
		return nil
	}
	samples := make([]float64, sampleCount)
	if len(points) == 0 || duration <= 0 {
		for i := range samples {
			samples[i] = 1.0
		}
		return samples
	}

	sorted := append([]mix.EnvelopePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	step := 0.0
	if sampleCount > 1 {
		step = duration / float64(sampleCount-1)
	}
	for i := range samples {
		samples[i] = clamp01(valueAt(sorted, float64(i)*step))
	}
	return samples
}

func valueAt(points []mix.EnvelopePoint, t float64) float64 {
	if t <= points[0].Time {
		return points[0].Value
	}
	last := points[len(points)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 1; i < len(points); i++ {
		if t > points[i].Time {
			continue
		}
		prev := points[i-1]
		next := points[i]
		span := next.Time - prev.Time
		if span <= 0 {
			return next.Value
		}
		frac := (t - prev.Time) / span
		return prev.Value + (next.Value-prev.Value)*frac
	}
	return last.Value
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
