package project

import (
	"errors"
	"time"

	"mixdown/internal/mix"
)

// ErrNotFound indicates a missing project, track, or job.
var ErrNotFound = errors.New("not found")

// Project groups an ordered track list under a name.
type Project struct {
	ID               string
	Name             string
	CrossfadeSeconds float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExportJob is the persisted record of one export. Request is the validated
// configuration snapshot taken when the job was created; OutputPath and
// ErrorMessage are filled on terminal phases.
type ExportJob struct {
	ID           string
	ProjectID    string
	Request      mix.ExportRequest
	Phase        mix.Phase
	OutputPath   string
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

// Terminal reports whether the job has finished.
func (j ExportJob) Terminal() bool {
	return j.Phase.Terminal()
}

const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
