// Package energy reduces raw waveform peak samples to a fixed-length,
// normalized energy profile used by phrase detection and the timeline UI
// collaborators.
package energy
