// Package render drives an export through its phase machine:
// validating, analyzing, rendering, encoding, then one of complete, error,
// or cancelled.
//
// The pipeline is single-flight per project, enforced by an in-process guard
// plus a file lock so a second mixdown process fails fast instead of
// competing for the same encoder and output path. Rendering happens in a
// staging directory; the finished file is moved to the requested path only
// on success, so a failed or cancelled job never leaves a partial file
// there. Progress snapshots go out on a bounded channel that is closed after
// the terminal snapshot.
package render
