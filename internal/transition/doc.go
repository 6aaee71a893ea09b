// Package transition scores adjacent track pairs for mix compatibility.
//
// Tempo deltas are tiered, harmonic compatibility follows Camelot-wheel
// adjacency, and the two fold together with a small format signal into one
// overall score and grade. Missing tempo, key, or bitrate metadata degrades
// the corresponding signal to a neutral value instead of failing the pair.
package transition
