package render

import (
	"time"

	"mixdown/internal/mix"
	"mixdown/internal/timeline"
)

// emitter translates pipeline events into progress snapshots on a bounded
// channel. Snapshots are dropped rather than blocking the encoder when the
// consumer falls behind; the terminal snapshot is sent the same way and the
// channel close is the reliable completion signal.
type emitter struct {
	ch          chan<- mix.Progress
	totalTracks int
	startedAt   time.Time
}

func newEmitter(ch chan<- mix.Progress, totalTracks int) *emitter {
	return &emitter{ch: ch, totalTracks: totalTracks, startedAt: time.Now()}
}

func (e *emitter) send(p mix.Progress) {
	select {
	case e.ch <- p:
	default:
	}
}

// phase emits a bare phase-entry snapshot.
func (e *emitter) phase(phase mix.Phase) {
	e.send(mix.Progress{Phase: phase, TotalTracks: e.totalTracks})
}

// trackProgress reports per-track work such as loudness measurement.
func (e *emitter) trackProgress(phase mix.Phase, index int, name string, percentage float64) {
	e.send(mix.Progress{
		Phase:             phase,
		CurrentTrackIndex: index,
		CurrentTrackName:  name,
		TotalTracks:       e.totalTracks,
		Percentage:        clampPercent(percentage),
	})
}

// renderProgress converts encoder elapsed seconds into a snapshot: the
// placement containing the elapsed position names the current track, and the
// percentage is the position within that placement.
func (e *emitter) renderProgress(phase mix.Phase, tl timeline.Timeline, elapsed float64) {
	snapshot := mix.Progress{Phase: phase, TotalTracks: e.totalTracks}

	index, placement := placementAt(tl, elapsed)
	snapshot.CurrentTrackIndex = index
	snapshot.CurrentTrackName = placement.Title
	if placement.EffectiveLength > 0 {
		snapshot.Percentage = clampPercent((elapsed - placement.StartTime) / placement.EffectiveLength * 100)
	}

	if total := tl.TotalDuration(); total > 0 && elapsed > 0 {
		// ETA from the observed encode rate so far.
		rate := elapsed / time.Since(e.startedAt).Seconds()
		if rate > 0 {
			snapshot.ETASeconds = (total - elapsed) / rate
			if snapshot.ETASeconds < 0 {
				snapshot.ETASeconds = 0
			}
		}
	}
	e.send(snapshot)
}

// terminal emits the final snapshot for the outcome.
func (e *emitter) terminal(outcome Outcome) {
	snapshot := mix.Progress{
		Phase:       outcome.Phase,
		TotalTracks: e.totalTracks,
		OutputPath:  outcome.OutputPath,
	}
	if outcome.Phase == mix.PhaseComplete {
		snapshot.Percentage = 100
	}
	if outcome.Err != nil {
		snapshot.Err = outcome.Err.Error()
	}
	e.send(snapshot)
}

// placementAt locates the latest placement whose span contains elapsed. An
// overlap region belongs to the incoming track.
func placementAt(tl timeline.Timeline, elapsed float64) (int, timeline.Placement) {
	if len(tl.Placements) == 0 {
		return 0, timeline.Placement{}
	}
	current := 0
	for i, placement := range tl.Placements {
		if placement.StartTime <= elapsed {
			current = i
		}
	}
	return current, tl.Placements[current]
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
