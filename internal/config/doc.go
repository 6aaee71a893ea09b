// Package config loads, validates, and defaults mixdown's TOML configuration.
//
// Configuration sections by subsystem:
//   - Paths: library, output, staging, log, and cache directories
//   - Export: crossfade, format, bitrate, and loudness normalization defaults
//   - FFmpeg: encoder/probe binaries and the render timeout
//   - Analysis: worker pool size and energy profile resolution
//   - Logging: log format and level
//
// Load returns a fully normalized config: paths expanded to absolute form and
// every value validated. Validation failures are configuration errors and
// surface before any engine work starts.
package config
