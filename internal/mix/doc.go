// Package mix defines the shared data model for the mix engine.
//
// Tracks, cue points, analysis artifacts (energy profiles, phrase boundaries,
// transition scores), and the export request/progress types all live here so
// the analysis, timeline, and render packages can exchange values without
// depending on each other. Keep this package free of behavior beyond small
// accessors and boundary validation; the numeric work belongs to the
// per-concern packages.
package mix
