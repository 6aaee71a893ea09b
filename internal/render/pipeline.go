package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mixdown/internal/config"
	"mixdown/internal/cuesheet"
	"mixdown/internal/fileutil"
	"mixdown/internal/logging"
	"mixdown/internal/mix"
	"mixdown/internal/preflight"
	"mixdown/internal/services"
	"mixdown/internal/services/ffmpeg"
	"mixdown/internal/timeline"
)

// progressBuffer bounds the snapshot channel. A slow consumer drops
// intermediate snapshots; terminal snapshots are never dropped silently
// because the channel close still signals completion.
const progressBuffer = 64

// JobRecorder receives phase transitions for persistence. The project store
// satisfies it; tests use a nil recorder.
type JobRecorder interface {
	SetJobPhase(ctx context.Context, jobID string, phase mix.Phase) error
	FinishJob(ctx context.Context, jobID string, phase mix.Phase, outputPath, errorMessage string) error
}

// Outcome is the terminal result of one export.
type Outcome struct {
	Phase      mix.Phase
	OutputPath string
	Err        error
}

// Job is a running export. Progress is closed after the terminal snapshot;
// Wait blocks until then.
type Job struct {
	ID       string
	Progress <-chan mix.Progress

	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Cancel requests cooperative cancellation.
func (j *Job) Cancel() {
	j.cancel()
}

// Wait blocks until the job reaches a terminal phase.
func (j *Job) Wait() Outcome {
	<-j.done
	return j.outcome
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.NewComponentLogger(logger, "render") }
}

// WithRecorder wires job phase persistence.
func WithRecorder(recorder JobRecorder) Option {
	return func(p *Pipeline) { p.recorder = recorder }
}

// Pipeline runs export jobs.
type Pipeline struct {
	cfg      *config.Config
	client   *ffmpeg.Client
	recorder JobRecorder
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{} // project ids with a running export
}

// New constructs a Pipeline.
func New(cfg *config.Config, client *ffmpeg.Client, opts ...Option) *Pipeline {
	pipeline := &Pipeline{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(nil, "render"),
		active: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// Start validates single-flight access and launches the export. The request
// must already have passed Validate; tracks must be in play order.
func (p *Pipeline) Start(ctx context.Context, jobID string, request mix.ExportRequest, tracks []mix.Track) (*Job, error) {
	if jobID == "" {
		jobID = uuid.NewString()
	}
	release, err := p.acquire(request.ProjectID)
	if err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	progress := make(chan mix.Progress, progressBuffer)
	job := &Job{
		ID:       jobID,
		Progress: progress,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer release()
		defer cancel()
		job.outcome = p.run(jobCtx, jobID, request, tracks, progress)
		close(progress)
		close(job.done)
	}()
	return job, nil
}

// acquire takes the in-process guard for a project. The cross-process file
// lock is taken later, once the request has validated, because creating the
// lock file is already a filesystem write.
func (p *Pipeline) acquire(projectID string) (func(), error) {
	p.mu.Lock()
	if _, busy := p.active[projectID]; busy {
		p.mu.Unlock()
		return nil, services.Wrap(services.ErrBusy, "render", "start", "export already running for project "+projectID, nil)
	}
	p.active[projectID] = struct{}{}
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.active, projectID)
		p.mu.Unlock()
	}, nil
}

// lockExport creates the staging directory and takes the cross-process file
// lock. This is the pipeline's first filesystem write and must not run until
// the request and timeline have validated.
func (p *Pipeline) lockExport(projectID string) (func(), error) {
	if err := os.MkdirAll(p.cfg.Paths.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	lock := flock.New(filepath.Join(p.cfg.Paths.StagingDir, "export-"+projectID+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire export lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, "render", "start", "export lock held for project "+projectID, nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

// run executes the phase machine and always returns a terminal outcome.
func (p *Pipeline) run(ctx context.Context, jobID string, request mix.ExportRequest, tracks []mix.Track, progress chan<- mix.Progress) Outcome {
	emitter := newEmitter(progress, len(tracks))
	staging := stagingPaths(p.cfg.Paths.StagingDir, jobID, request)
	defer staging.cleanup()

	fail := func(phase mix.Phase, err error) Outcome {
		if ctx.Err() != nil || errors.Is(err, services.ErrCancelled) {
			return p.finish(jobID, emitter, Outcome{Phase: mix.PhaseCancelled}, request)
		}
		wrapped := fmt.Errorf("%s: %w", phase, err)
		return p.finish(jobID, emitter, Outcome{Phase: mix.PhaseError, Err: wrapped}, request)
	}

	tl, unlock, err := p.runValidating(ctx, jobID, request, tracks, emitter)
	if err != nil {
		return fail(mix.PhaseValidating, err)
	}
	defer unlock()

	loudness, err := p.runAnalyzing(ctx, jobID, request, tracks, emitter)
	if err != nil {
		return fail(mix.PhaseAnalyzing, err)
	}

	if err := p.runRendering(ctx, jobID, tracks, tl, loudness, staging, emitter); err != nil {
		return fail(mix.PhaseRendering, err)
	}

	outputPath, err := p.runEncoding(ctx, jobID, request, tracks, tl, staging, emitter)
	if err != nil {
		return fail(mix.PhaseEncoding, err)
	}

	return p.finish(jobID, emitter, Outcome{Phase: mix.PhaseComplete, OutputPath: outputPath}, request)
}

// runValidating checks everything that can fail without side effects first:
// the request contract, the timeline (where an oversized crossfade surfaces
// as a configuration error), and output directory access. Only after those
// pass does it write the lock file and probe the encoder binary.
func (p *Pipeline) runValidating(ctx context.Context, jobID string, request mix.ExportRequest, tracks []mix.Track, emitter *emitter) (timeline.Timeline, func(), error) {
	if err := p.advance(ctx, jobID, mix.PhaseValidating, emitter); err != nil {
		return timeline.Timeline{}, nil, err
	}
	if err := request.Validate(); err != nil {
		return timeline.Timeline{}, nil, services.Wrap(services.ErrConfiguration, "render", "validate", "export request", err)
	}
	tl, err := timeline.Build(tracks, request.CrossfadeDuration)
	if err != nil {
		return timeline.Timeline{}, nil, err
	}
	if check := preflight.CheckDirectoryAccess("output directory", request.OutputDirectory); !check.Passed {
		return timeline.Timeline{}, nil, services.Wrap(services.ErrValidation, "render", "validate", check.Detail, nil)
	}

	unlock, err := p.lockExport(request.ProjectID)
	if err != nil {
		return timeline.Timeline{}, nil, err
	}

	version, err := p.client.Version(ctx)
	if err != nil {
		unlock()
		return timeline.Timeline{}, nil, err
	}
	p.logger.Info("encoder resolved",
		logging.String(logging.FieldJobID, jobID),
		logging.String("binary", p.client.Binary()),
		logging.String("version", version))

	return tl, unlock, nil
}

// runAnalyzing measures per-track loudness for the second-pass filter. The
// cancel token is honored between tracks, never mid-measurement.
func (p *Pipeline) runAnalyzing(ctx context.Context, jobID string, request mix.ExportRequest, tracks []mix.Track, emitter *emitter) (map[string]string, error) {
	if err := p.advance(ctx, jobID, mix.PhaseAnalyzing, emitter); err != nil {
		return nil, err
	}
	if !request.Normalization {
		return nil, nil
	}

	targets := ffmpeg.LoudnessTargets{
		IntegratedLUFS: p.cfg.Export.TargetLoudness,
		TruePeakDB:     p.cfg.Export.TruePeak,
		RangeLU:        p.cfg.Export.LoudnessRange,
	}
	filters := make(map[string]string, len(tracks))
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "render", "analyze", "cancelled before track "+track.ID, err)
		}
		emitter.trackProgress(mix.PhaseAnalyzing, i, track.Title, float64(i)/float64(len(tracks))*100)
		measurement, err := p.client.MeasureLoudness(ctx, track.Path, targets)
		if err != nil {
			return nil, err
		}
		filters[track.ID] = targets.RenderFilter(measurement)
	}
	return filters, nil
}

func (p *Pipeline) runRendering(ctx context.Context, jobID string, tracks []mix.Track, tl timeline.Timeline, loudness map[string]string, staging stagedFiles, emitter *emitter) error {
	if err := p.advance(ctx, jobID, mix.PhaseRendering, emitter); err != nil {
		return err
	}

	parser := ffmpeg.NewProgressParser(func(elapsed float64) {
		emitter.renderProgress(mix.PhaseRendering, tl, elapsed)
	})
	args := renderArgs(tracks, tl, loudness, staging.intermediate)
	_, err := p.client.Run(ctx, args, parser.Write)
	parser.Flush()
	return err
}

func (p *Pipeline) runEncoding(ctx context.Context, jobID string, request mix.ExportRequest, tracks []mix.Track, tl timeline.Timeline, staging stagedFiles, emitter *emitter) (string, error) {
	if err := p.advance(ctx, jobID, mix.PhaseEncoding, emitter); err != nil {
		return "", err
	}

	parser := ffmpeg.NewProgressParser(func(elapsed float64) {
		emitter.renderProgress(mix.PhaseEncoding, tl, elapsed)
	})
	if _, err := p.client.Run(ctx, encodeArgs(request, staging.intermediate, staging.encoded), parser.Write); err != nil {
		parser.Flush()
		return "", err
	}
	parser.Flush()

	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrCancelled, "render", "encode", "cancelled before finalize", err)
	}

	outputPath := request.OutputPath()
	if err := fileutil.MoveFile(staging.encoded, outputPath); err != nil {
		return "", fmt.Errorf("move output into place: %w", err)
	}
	if request.GenerateCueSheet {
		sheet := cuesheet.FromTimeline(tl, tracks, request.Metadata, outputPath)
		cuePath := cueSheetPath(outputPath)
		if err := sheet.WriteFile(cuePath); err != nil {
			// The mix itself is in place; a cue sheet failure is not
			// worth destroying it over.
			p.logger.Warn("cue sheet not written",
				logging.String(logging.FieldJobID, jobID),
				logging.String("path", cuePath),
				logging.Error(err))
		}
	}
	return outputPath, nil
}

// advance checks the cancel token, records the phase, and emits a snapshot.
// No phase may begin once cancellation has been requested.
func (p *Pipeline) advance(ctx context.Context, jobID string, phase mix.Phase, emitter *emitter) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCancelled, "render", "advance", "cancelled before "+string(phase), err)
	}
	if p.recorder != nil {
		// Recorder updates are best effort; persistence hiccups must not
		// kill a running encode.
		if err := p.recorder.SetJobPhase(context.Background(), jobID, phase); err != nil {
			p.logger.Warn("phase not recorded",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldPhase, string(phase)),
				logging.Error(err))
		}
	}
	emitter.phase(phase)
	p.logger.Info("phase started",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldPhase, string(phase)))
	return nil
}

// finish emits the terminal snapshot, records the archive row, and scrubs
// the requested output path for non-complete outcomes.
func (p *Pipeline) finish(jobID string, emitter *emitter, outcome Outcome, request mix.ExportRequest) Outcome {
	// The staged design means only a completed job ever moves a file to the
	// requested path, but a cancelled job must leave nothing there at all.
	if outcome.Phase == mix.PhaseCancelled {
		removeIfExists(request.OutputPath())
		removeIfExists(cueSheetPath(request.OutputPath()))
	}

	message := ""
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}
	if p.recorder != nil {
		if err := p.recorder.FinishJob(context.Background(), jobID, outcome.Phase, outcome.OutputPath, message); err != nil {
			p.logger.Warn("job archive not recorded",
				logging.String(logging.FieldJobID, jobID),
				logging.Error(err))
		}
	}

	emitter.terminal(outcome)
	p.logger.Info("export finished",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldPhase, string(outcome.Phase)),
		logging.String("output", outcome.OutputPath))
	return outcome
}

type stagedFiles struct {
	intermediate string
	encoded      string
}

func stagingPaths(stagingDir, jobID string, request mix.ExportRequest) stagedFiles {
	return stagedFiles{
		intermediate: filepath.Join(stagingDir, jobID+".mix.wav"),
		encoded:      filepath.Join(stagingDir, jobID+"."+string(request.Format)),
	}
}

// cleanup removes whatever staging files the job left behind.
func (s stagedFiles) cleanup() {
	removeIfExists(s.intermediate)
	removeIfExists(s.encoded)
}

func cueSheetPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return outputPath[:len(outputPath)-len(ext)] + ".cue"
}

func removeIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Nothing actionable beyond logging at the caller; the file may
		// be gone already.
		_ = err
	}
}

// RunTimeout returns the configured per-invocation encoder timeout.
func (p *Pipeline) RunTimeout() time.Duration {
	return time.Duration(p.cfg.FFmpeg.RenderTimeout) * time.Second
}
