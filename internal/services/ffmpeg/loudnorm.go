package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mixdown/internal/services"
)

// LoudnessTargets configures the loudnorm filter.
type LoudnessTargets struct {
	IntegratedLUFS float64
	TruePeakDB     float64
	RangeLU        float64
}

// LoudnessMeasurement holds the first-pass analysis the second pass feeds
// back into the filter for linear normalization.
type LoudnessMeasurement struct {
	InputI      string `json:"input_i"`
	InputTP     string `json:"input_tp"`
	InputLRA    string `json:"input_lra"`
	InputThresh string `json:"input_thresh"`
}

func (m LoudnessMeasurement) valid() bool {
	for _, field := range []string{m.InputI, m.InputTP, m.InputLRA, m.InputThresh} {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return false
		}
	}
	return true
}

// AnalysisFilter renders the measurement-pass loudnorm filter string.
func (t LoudnessTargets) AnalysisFilter() string {
	return fmt.Sprintf("loudnorm=I=%s:TP=%s:LRA=%s:print_format=json",
		formatFloat(t.IntegratedLUFS), formatFloat(t.TruePeakDB), formatFloat(t.RangeLU))
}

// RenderFilter renders the second-pass filter string using measured values.
func (t LoudnessTargets) RenderFilter(m LoudnessMeasurement) string {
	return fmt.Sprintf("loudnorm=I=%s:TP=%s:LRA=%s:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:linear=true",
		formatFloat(t.IntegratedLUFS), formatFloat(t.TruePeakDB), formatFloat(t.RangeLU),
		m.InputI, m.InputTP, m.InputLRA, m.InputThresh)
}

// MeasureLoudness runs the loudnorm analysis pass against input and returns
// the measured statistics.
func (c *Client) MeasureLoudness(ctx context.Context, input string, targets LoudnessTargets) (LoudnessMeasurement, error) {
	args := []string{
		"-hide_banner", "-nostdin",
		"-i", input,
		"-af", targets.AnalysisFilter(),
		"-f", "null", "-",
	}
	result, err := c.Run(ctx, args, nil)
	if err != nil {
		return LoudnessMeasurement{}, err
	}
	measurement, err := parseLoudnormJSON(result.Stderr)
	if err != nil {
		return LoudnessMeasurement{}, services.Wrap(services.ErrAnalysis, "ffmpeg", "loudnorm", "parse measurement for "+input, err)
	}
	return measurement, nil
}

// parseLoudnormJSON extracts the JSON block loudnorm prints at the end of
// stderr. The block is the last brace-delimited object in the stream; the
// surrounding log lines are ignored.
func parseLoudnormJSON(stderr string) (LoudnessMeasurement, error) {
	end := strings.LastIndex(stderr, "}")
	if end < 0 {
		return LoudnessMeasurement{}, fmt.Errorf("no JSON block in loudnorm output")
	}
	start := strings.LastIndex(stderr[:end], "{")
	if start < 0 {
		return LoudnessMeasurement{}, fmt.Errorf("no JSON block in loudnorm output")
	}
	var measurement LoudnessMeasurement
	if err := json.Unmarshal([]byte(stderr[start:end+1]), &measurement); err != nil {
		return LoudnessMeasurement{}, fmt.Errorf("decode loudnorm JSON: %w", err)
	}
	if !measurement.valid() {
		return LoudnessMeasurement{}, fmt.Errorf("loudnorm output missing measured fields")
	}
	return measurement, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
