// Package project persists projects, their ordered tracks, cue points, and
// export job records in SQLite.
//
// The Store manages database connections, schema initialization, and busy
// retries. Tracks carry the analysis metadata the engine reads (tempo, key,
// peaks, trims); export jobs record a configuration snapshot on creation and
// their terminal result when the render pipeline finishes. Schema changes
// bump the version in schema.go; users clear the database to adopt the new
// schema.
package project
