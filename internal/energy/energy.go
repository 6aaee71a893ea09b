package energy

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"mixdown/internal/mix"
)

// DefaultPointCount is the profile resolution used when callers do not ask
// for a specific one.
const DefaultPointCount = 200

// Profile partitions peaks into contiguous windows, takes the RMS of each,
// smooths with a 3-point moving average (endpoints unsmoothed), and normalizes
// by the global maximum. The result length is min(pointCount, len(peaks));
// empty input or a non-positive pointCount yields an empty profile, and an
// all-zero input yields an all-zero profile rather than dividing by zero.
func Profile(peaks []float64, pointCount int) mix.EnergyProfile {
	if len(peaks) == 0 || pointCount <= 0 {
		return mix.EnergyProfile{}
	}
	count := pointCount
	if count > len(peaks) {
		count = len(peaks)
	}

	raw := make([]float64, count)
	for i := 0; i < count; i++ {
		start := i * len(peaks) / count
		end := (i + 1) * len(peaks) / count
		if end <= start {
			end = start + 1
		}
		raw[i] = rms(peaks[start:end])
	}

	smoothed := smooth3(raw)

	peak := floats.Max(smoothed)
	if peak <= 0 {
		return mix.EnergyProfile(smoothed)
	}
	floats.Scale(1/peak, smoothed)
	return mix.EnergyProfile(smoothed)
}

func rms(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	norm := floats.Norm(window, 2)
	return norm / math.Sqrt(float64(len(window)))
}

// smooth3 applies a 3-point moving average, leaving the endpoints untouched.
func smooth3(values []float64) []float64 {
	out := append([]float64(nil), values...)
	for i := 1; i < len(values)-1; i++ {
		out[i] = (values[i-1] + values[i] + values[i+1]) / 3
	}
	return out
}
