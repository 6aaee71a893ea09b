// Package services defines the error taxonomy shared across the engine and
// the helpers that tag failures crossing package boundaries.
//
// Every failure is wrapped with one of the sentinel markers so callers can
// classify it with errors.Is: configuration and validation problems are
// caught before anything spawns, process errors carry captured stderr,
// per-track analysis failures stay isolated to their track, and cancellation
// is a distinct terminal outcome rather than a failure.
package services
