// Package logging builds the slog loggers used across mixdown and defines
// the standardized attribute keys shared by every component.
//
// Console output renders a compact human-readable line; JSON output is meant
// for ingestion. Components derive their logger with NewComponentLogger so
// every record carries a component field, and tests use NewNop to silence
// output entirely.
package logging
