package render

import (
	"fmt"
	"math"
	"strings"

	"mixdown/internal/envelope"
	"mixdown/internal/mix"
	"mixdown/internal/timeline"
)

// crossfadeGainSamples is the resolution at which the crossfade envelope is
// sampled when building the per-overlap gain expressions.
const crossfadeGainSamples = 9

// renderArgs builds the ffmpeg invocation that produces the staged
// intermediate mix: one input per track, trims applied, crossfades as
// opposing envelope-driven gain ramps, optional per-track loudness
// correction. The intermediate is PCM so the encoding phase never re-encodes
// lossy data twice.
func renderArgs(tracks []mix.Track, tl timeline.Timeline, loudness map[string]string, stagingPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	for _, track := range tracks {
		args = append(args, "-i", track.Path)
	}
	args = append(args,
		"-filter_complex", renderFilterGraph(tracks, tl, loudness),
		"-map", "[mix]",
		"-c:a", "pcm_s24le",
		stagingPath,
	)
	return args
}

// renderFilterGraph wires atrim per input, applies the interpolated crossfade
// gain ramp over each overlap region, delays every track to its timeline
// placement, and sums the result. A single-track mix passes through with no
// gain stage at all.
func renderFilterGraph(tracks []mix.Track, tl timeline.Timeline, loudness map[string]string) string {
	var b strings.Builder
	for i, track := range tracks {
		fmt.Fprintf(&b, "[%d:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS",
			i, formatNumber(track.EffectiveStart()), formatNumber(track.EffectiveEnd()))
		if filter, ok := loudness[track.ID]; ok {
			b.WriteString("," + filter)
		}
		fmt.Fprintf(&b, "[t%d];", i)
	}

	if len(tracks) == 1 {
		b.WriteString("[t0]anull[mix]")
		return b.String()
	}

	d := tl.CrossfadeDuration
	fadeOut, fadeIn := crossfadeRamps(d)
	for i, placement := range tl.Placements {
		var chain []string
		if d > 0 {
			if i > 0 {
				chain = append(chain, fmt.Sprintf("volume='%s':eval=frame", gainExpression(fadeIn, 0, d)))
			}
			if i < len(tl.Placements)-1 {
				chain = append(chain, fmt.Sprintf("volume='%s':eval=frame", gainExpression(fadeOut, placement.EffectiveLength-d, d)))
			}
		}
		if placement.StartTime > 0 {
			chain = append(chain, fmt.Sprintf("adelay=%d:all=1", int(math.Round(placement.StartTime*1000))))
		}
		if len(chain) == 0 {
			chain = append(chain, "anull")
		}
		fmt.Fprintf(&b, "[t%d]%s[g%d];", i, strings.Join(chain, ","), i)
	}

	for i := range tl.Placements {
		fmt.Fprintf(&b, "[g%d]", i)
	}
	fmt.Fprintf(&b, "amix=inputs=%d:normalize=0[mix]", len(tl.Placements))
	return b.String()
}

// crossfadeRamps samples the two opposing crossfade envelopes: the outgoing
// track ramps from unity to silence, the incoming track mirrors it.
func crossfadeRamps(duration float64) (fadeOut, fadeIn []float64) {
	out := []mix.EnvelopePoint{{Time: 0, Value: 1}, {Time: duration, Value: 0}}
	in := []mix.EnvelopePoint{{Time: 0, Value: 0}, {Time: duration, Value: 1}}
	return envelope.Interpolate(out, duration, crossfadeGainSamples),
		envelope.Interpolate(in, duration, crossfadeGainSamples)
}

// gainExpression reconstructs the sampled envelope as a piecewise-linear
// ffmpeg volume expression in stream time. The envelope spans
// [offset, offset+duration]; the first sample holds before it and the last
// sample holds after it, matching the interpolator's boundary behavior.
func gainExpression(samples []float64, offset, duration float64) string {
	n := len(samples)
	step := duration / float64(n-1)
	expr := formatNumber(samples[n-1])
	for j := n - 2; j >= 0; j-- {
		t0 := offset + float64(j)*step
		t1 := offset + float64(j+1)*step
		segment := fmt.Sprintf("%s+(%s-%s)*(t-%s)/%s",
			formatNumber(samples[j]), formatNumber(samples[j+1]), formatNumber(samples[j]),
			formatNumber(t0), formatNumber(step))
		expr = fmt.Sprintf("if(lt(t,%s),%s,%s)", formatNumber(t1), segment, expr)
	}
	return fmt.Sprintf("if(lt(t,%s),%s,%s)", formatNumber(offset), formatNumber(samples[0]), expr)
}

// encodeArgs builds the ffmpeg invocation that finalizes the staged mix to
// the requested container, bitrate, and tags.
func encodeArgs(request mix.ExportRequest, stagingPath, encodedPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", stagingPath}
	switch request.Format {
	case mix.FormatWAV:
		args = append(args, "-c:a", "pcm_s16le")
	case mix.FormatFLAC:
		args = append(args, "-c:a", "flac", "-compression_level", "8")
	case mix.FormatMP3:
		args = append(args, "-c:a", "libmp3lame", "-b:a", fmt.Sprintf("%dk", request.MP3BitrateKbps), "-id3v2_version", "3")
	}
	args = append(args, metadataArgs(request.Metadata)...)
	return append(args, encodedPath)
}

func metadataArgs(meta mix.Metadata) []string {
	var args []string
	add := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			args = append(args, "-metadata", key+"="+value)
		}
	}
	add("title", meta.Title)
	add("artist", meta.Artist)
	add("album", meta.Album)
	add("genre", meta.Genre)
	add("date", meta.Year)
	add("comment", meta.Comment)
	return args
}

func formatNumber(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
