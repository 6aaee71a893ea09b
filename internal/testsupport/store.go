package testsupport

import (
	"context"
	"testing"

	"mixdown/internal/config"
	"mixdown/internal/mix"
	"mixdown/internal/project"
)

// MustOpenStore opens a project.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()

	store, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, store *project.Store, name string, crossfade float64) project.Project {
	t.Helper()

	proj, err := store.CreateProject(context.Background(), name, crossfade)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return proj
}

// AddTrack appends a track with the given title and duration to the project.
func AddTrack(t testing.TB, store *project.Store, projectID, title string, duration float64) mix.Track {
	t.Helper()

	track, err := store.AddTrack(context.Background(), projectID, mix.Track{
		Title:    title,
		Artist:   "Test Artist",
		Path:     "/music/" + title + ".flac",
		Duration: duration,
		Format:   "flac",
	})
	if err != nil {
		t.Fatalf("store.AddTrack: %v", err)
	}
	return track
}
