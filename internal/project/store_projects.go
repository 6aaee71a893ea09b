package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateProject inserts a new project and returns it.
func (s *Store)CreateProject(ctx context.Context, name string, crossfadeSeconds float64) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, fmt.Errorf("project name required")
	}
	now := time.Now().UTC()
	proj := Project{
		ID:               uuid.NewString(),
		Name:             name,
		CrossfadeSeconds: crossfadeSeconds,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO projects (id, name, crossfade_seconds, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		proj.ID, proj.Name, proj.CrossfadeSeconds, formatTime(now), formatTime(now))
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return proj, nil
}

// GetProject fetches one project by id.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, crossfade_seconds, created_at, updated_at FROM projects WHERE id = ?`, id)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return proj, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, crossfade_seconds, created_at, updated_at FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, proj)
	}
	return projects, rows.Err()
}

// UpdateProjectCrossfade sets the project's default crossfade duration.
func (s *Store) UpdateProjectCrossfade(ctx context.Context, id string, crossfadeSeconds float64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE projects SET crossfade_seconds = ?, updated_at = ? WHERE id = ?`,
		crossfadeSeconds, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update project crossfade: %w", err)
	}
	return requireRow(res, "project "+id)
}

// DeleteProject removes a project and, via foreign keys, its tracks, cue
// points, and export jobs.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res, "project "+id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var (
		proj               Project
		createdAt, updated string
	)
	if err := row.Scan(&proj.ID, &proj.Name, &proj.CrossfadeSeconds, &createdAt, &updated); err != nil {
		return Project{}, err
	}
	proj.CreatedAt = parseTime(createdAt)
	proj.UpdatedAt = parseTime(updated)
	return proj, nil
}

func requireRow(res sql.Result, subject string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return nil
}
