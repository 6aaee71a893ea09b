// Package analysis orchestrates feature extraction for a project's tracks.
//
// Per-track work (energy profile, phrase boundaries) runs on a bounded worker
// pool; per-pair transition scoring runs once every track's features exist.
// A failure while fetching one track's waveform or sections is isolated: that
// track degrades to neutral values and the batch continues.
//
// Completed results are committed to the snapshot cache only after the full
// pass succeeds, so readers never observe a half-updated project.
package analysis
