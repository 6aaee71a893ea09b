// Package library maintains an owned index of the audio library for
// duplicate-file checks.
//
// The index is keyed by (path, mtime, size): a rescan reuses cached entries
// whose stat fields are unchanged and re-reads the rest. It is persisted as
// JSON and replaced only after a full successful walk; Invalidate drops a
// single path and Clear drops everything.
package library
