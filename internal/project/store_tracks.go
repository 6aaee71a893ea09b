package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mixdown/internal/mix"
)

// AddTrack appends a track to the end of a project's order and returns it
// with its assigned id and position.
func (s *Store) AddTrack(ctx context.Context, projectID string, track mix.Track) (mix.Track, error) {
	ctx = ensureContext(ctx)
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return mix.Track{}, err
	}
	if track.ID == "" {
		track.ID = uuid.NewString()
	}

	var maxPos sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM tracks WHERE project_id = ?`, projectID).Scan(&maxPos); err != nil {
		return mix.Track{}, fmt.Errorf("next track position: %w", err)
	}
	track.Position = 0
	if maxPos.Valid {
		track.Position = int(maxPos.Int64) + 1
	}

	peaks, err := encodePeaks(track.Peaks)
	if err != nil {
		return mix.Track{}, err
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO tracks (id, project_id, position, title, artist, path, duration_seconds,
			tempo_bpm, musical_key, bitrate_kbps, format, peaks_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID, projectID, track.Position, track.Title, track.Artist, track.Path, track.Duration,
		track.TempoBPM, track.Key, track.BitrateKbps, track.Format, peaks)
	if err != nil {
		return mix.Track{}, fmt.Errorf("insert track: %w", err)
	}
	s.touchProject(ctx, projectID)
	return track, nil
}

// UpdateTrack persists analysis metadata for an existing track. Trims are
// owned by cue points, not this row.
func (s *Store) UpdateTrack(ctx context.Context, track mix.Track) error {
	peaks, err := encodePeaks(track.Peaks)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE tracks SET title = ?, artist = ?, duration_seconds = ?, tempo_bpm = ?,
			musical_key = ?, bitrate_kbps = ?, format = ?, peaks_json = ?
		WHERE id = ?`,
		track.Title, track.Artist, track.Duration, track.TempoBPM,
		track.Key, track.BitrateKbps, track.Format, peaks,
		track.ID)
	if err != nil {
		return fmt.Errorf("update track: %w", err)
	}
	return requireRow(res, "track "+track.ID)
}

// ReorderTracks rewrites positions to match the given id order. Every track
// in the project must appear exactly once.
func (s *Store) ReorderTracks(ctx context.Context, projectID string, orderedIDs []string) error {
	ctx = ensureContext(ctx)
	existing, err := s.ListTracks(ctx, projectID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(existing) {
		return fmt.Errorf("reorder needs all %d tracks, got %d ids", len(existing), len(orderedIDs))
	}
	known := make(map[string]struct{}, len(existing))
	for _, track := range existing {
		known[track.ID] = struct{}{}
	}
	for _, id := range orderedIDs {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("track %s not in project %s", id, projectID)
		}
		delete(known, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for position, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tracks SET position = ? WHERE id = ?`, position, id); err != nil {
			return fmt.Errorf("set track position: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	s.touchProject(ctx, projectID)
	return nil
}

// RemoveTrack deletes a track and compacts the remaining positions.
func (s *Store) RemoveTrack(ctx context.Context, projectID, trackID string) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM tracks WHERE id = ? AND project_id = ?`, trackID, projectID)
	if err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	if err := requireRow(res, "track "+trackID); err != nil {
		return err
	}
	remaining, err := s.ListTracks(ctx, projectID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(remaining))
	for _, track := range remaining {
		ids = append(ids, track.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return s.ReorderTracks(ctx, projectID, ids)
}

// ListTracks returns a project's tracks in position order with their cue
// points applied.
func (s *Store) ListTracks(ctx context.Context, projectID string) ([]mix.Track, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position, title, artist, path, duration_seconds, tempo_bpm,
			musical_key, bitrate_kbps, format, peaks_json
		FROM tracks WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []mix.Track
	for rows.Next() {
		var (
			track mix.Track
			peaks string
		)
		if err := rows.Scan(&track.ID, &track.Position, &track.Title, &track.Artist, &track.Path,
			&track.Duration, &track.TempoBPM, &track.Key, &track.BitrateKbps, &track.Format,
			&peaks); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if err := json.Unmarshal([]byte(peaks), &track.Peaks); err != nil {
			return nil, fmt.Errorf("decode peaks for track %s: %w", track.ID, err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachCuePoints(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// GetTrack fetches one track by id.
func (s *Store) GetTrack(ctx context.Context, trackID string) (mix.Track, error) {
	ctx = ensureContext(ctx)
	var projectID string
	if err := s.db.QueryRowContext(ctx,
		`SELECT project_id FROM tracks WHERE id = ?`, trackID).Scan(&projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mix.Track{}, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
		}
		return mix.Track{}, fmt.Errorf("get track: %w", err)
	}
	tracks, err := s.ListTracks(ctx, projectID)
	if err != nil {
		return mix.Track{}, err
	}
	for _, track := range tracks {
		if track.ID == trackID {
			return track, nil
		}
	}
	return mix.Track{}, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
}

// SetCuePoint stores a cue on a track. Trim cues replace any existing cue of
// the same type; markers accumulate.
func (s *Store) SetCuePoint(ctx context.Context, trackID string, cue mix.CuePoint) (mix.CuePoint, error) {
	ctx = ensureContext(ctx)
	track, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return mix.CuePoint{}, err
	}
	if cue.ID == "" {
		cue.ID = uuid.NewString()
	}
	// Validates type, bounds, and the one-trim-of-each-kind invariant.
	if err := track.ApplyCue(cue); err != nil {
		return mix.CuePoint{}, err
	}

	if cue.Type != mix.CueMarker {
		if _, err := s.execWithRetry(ctx,
			`DELETE FROM cue_points WHERE track_id = ? AND type = ?`, trackID, string(cue.Type)); err != nil {
			return mix.CuePoint{}, fmt.Errorf("replace trim cue: %w", err)
		}
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO cue_points (id, track_id, type, timestamp_seconds, label) VALUES (?, ?, ?, ?, ?)`,
		cue.ID, trackID, string(cue.Type), cue.Timestamp, cue.Label); err != nil {
		return mix.CuePoint{}, fmt.Errorf("insert cue point: %w", err)
	}
	return cue, nil
}

// DeleteCuePoint removes one cue by id.
func (s *Store) DeleteCuePoint(ctx context.Context, cueID string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM cue_points WHERE id = ?`, cueID)
	if err != nil {
		return fmt.Errorf("delete cue point: %w", err)
	}
	return requireRow(res, "cue point "+cueID)
}

func (s *Store) attachCuePoints(ctx context.Context, tracks []mix.Track) error {
	byID := make(map[string]*mix.Track, len(tracks))
	for i := range tracks {
		byID[tracks[i].ID] = &tracks[i]
	}
	if len(byID) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cp.id, cp.track_id, cp.type, cp.timestamp_seconds, cp.label
		FROM cue_points cp JOIN tracks t ON t.id = cp.track_id
		WHERE t.project_id = (SELECT project_id FROM tracks WHERE id = ? LIMIT 1)
		ORDER BY cp.timestamp_seconds`, tracks[0].ID)
	if err != nil {
		return fmt.Errorf("list cue points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cue     mix.CuePoint
			trackID string
			kind    string
		)
		if err := rows.Scan(&cue.ID, &trackID, &kind, &cue.Timestamp, &cue.Label); err != nil {
			return fmt.Errorf("scan cue point: %w", err)
		}
		cue.Type = mix.CueType(kind)
		track, ok := byID[trackID]
		if !ok {
			continue
		}
		if err := track.ApplyCue(cue); err != nil {
			return fmt.Errorf("apply stored cue %s: %w", cue.ID, err)
		}
	}
	return rows.Err()
}

func (s *Store) touchProject(ctx context.Context, projectID string) {
	_, _ = s.execWithRetry(ctx,
		`UPDATE projects SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), projectID)
}

func encodePeaks(peaks []float64) (string, error) {
	if len(peaks) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(peaks)
	if err != nil {
		return "", fmt.Errorf("encode peaks: %w", err)
	}
	return string(encoded), nil
}
