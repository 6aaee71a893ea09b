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

// CreateExportJob records a new job in the validating phase with its
// configuration snapshot.
func (s *Store) CreateExportJob(ctx context.Context, request mix.ExportRequest) (ExportJob, error) {
	ctx = ensureContext(ctx)
	if err := request.Validate(); err != nil {
		return ExportJob{}, err
	}
	if _, err := s.GetProject(ctx, request.ProjectID); err != nil {
		return ExportJob{}, err
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return ExportJob{}, fmt.Errorf("encode export request: %w", err)
	}

	job := ExportJob{
		ID:        uuid.NewString(),
		ProjectID: request.ProjectID,
		Request:   request,
		Phase:     mix.PhaseValidating,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO export_jobs (id, project_id, request_json, phase, created_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.ProjectID, string(encoded), string(job.Phase), formatTime(job.CreatedAt))
	if err != nil {
		return ExportJob{}, fmt.Errorf("insert export job: %w", err)
	}
	return job, nil
}

// SetJobPhase advances a job to a non-terminal phase.
func (s *Store) SetJobPhase(ctx context.Context, jobID string, phase mix.Phase) error {
	if phase.Terminal() {
		return fmt.Errorf("phase %s is terminal, use FinishJob", phase)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE export_jobs SET phase = ? WHERE id = ? AND finished_at IS NULL`,
		string(phase), jobID)
	if err != nil {
		return fmt.Errorf("set job phase: %w", err)
	}
	return requireRow(res, "export job "+jobID)
}

// FinishJob archives a job with its terminal result. OutputPath is only
// meaningful for complete, errorMessage only for error.
func (s *Store) FinishJob(ctx context.Context, jobID string, phase mix.Phase, outputPath, errorMessage string) error {
	if !phase.Terminal() {
		return fmt.Errorf("phase %s is not terminal", phase)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE export_jobs SET phase = ?, output_path = ?, error_message = ?, finished_at = ?
		WHERE id = ? AND finished_at IS NULL`,
		string(phase), outputPath, errorMessage, formatTime(time.Now()), jobID)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return requireRow(res, "export job "+jobID)
}

// GetExportJob fetches one job by id.
func (s *Store) GetExportJob(ctx context.Context, jobID string) (ExportJob, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, request_json, phase, output_path, error_message, created_at, finished_at
		FROM export_jobs WHERE id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, fmt.Errorf("export job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return ExportJob{}, fmt.Errorf("get export job: %w", err)
	}
	return job, nil
}

// ActiveExportJob returns the project's unfinished job, if one exists.
func (s *Store) ActiveExportJob(ctx context.Context, projectID string) (ExportJob, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, request_json, phase, output_path, error_message, created_at, finished_at
		FROM export_jobs WHERE project_id = ? AND finished_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		projectID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, false, nil
	}
	if err != nil {
		return ExportJob{}, false, fmt.Errorf("active export job: %w", err)
	}
	return job, true, nil
}

// ListExportJobs returns a project's jobs, newest first.
func (s *Store) ListExportJobs(ctx context.Context, projectID string) ([]ExportJob, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, request_json, phase, output_path, error_message, created_at, finished_at
		FROM export_jobs WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ExportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (ExportJob, error) {
	var (
		job        ExportJob
		request    string
		phase      string
		createdAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&job.ID, &job.ProjectID, &request, &phase, &job.OutputPath,
		&job.ErrorMessage, &createdAt, &finishedAt); err != nil {
		return ExportJob{}, err
	}
	if err := json.Unmarshal([]byte(request), &job.Request); err != nil {
		return ExportJob{}, fmt.Errorf("decode export request: %w", err)
	}
	job.Phase = mix.Phase(phase)
	job.CreatedAt = parseTime(createdAt)
	if finishedAt.Valid {
		finished := parseTime(finishedAt.String)
		job.FinishedAt = &finished
	}
	return job, nil
}
