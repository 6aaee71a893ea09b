// Package ffmpeg wraps the external encoder used by the render pipeline.
//
// The client spawns ffmpeg with explicit argument vectors, never a shell
// string, and keeps both output pipes drained while the process runs. It
// exposes version discovery, two-pass loudness measurement, and a progress
// parser that reassembles time tokens split across stream chunks. Command
// execution sits behind an Executor so tests can substitute a stub.
package ffmpeg
