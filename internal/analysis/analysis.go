package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mixdown/internal/energy"
	"mixdown/internal/logging"
	"mixdown/internal/mix"
	"mixdown/internal/phrase"
	"mixdown/internal/services"
	"mixdown/internal/transition"
)

// WaveformSource supplies normalized peak magnitudes for a track. Best
// effort; errors are isolated per track.
type WaveformSource interface {
	Peaks(ctx context.Context, track mix.Track) ([]float64, error)
}

// SectionSource supplies structural sections for a track. Best effort.
type SectionSource interface {
	Sections(ctx context.Context, track mix.Track) ([]mix.Section, error)
}

// TrackFeatures holds everything extracted for one track. Degraded reports
// why the track fell back to neutral values; the batch itself succeeded.
type TrackFeatures struct {
	TrackID  string
	Energy   mix.EnergyProfile
	Phrases  []mix.PhraseBoundary
	Degraded error
}

// Snapshot is an immutable view of one full analysis pass.
type Snapshot struct {
	ProjectID   string
	Tracks      []TrackFeatures
	Transitions []mix.TransitionScore
	CompletedAt time.Time
}

// Features returns the extracted features for a track id, or false.
func (s *Snapshot) Features(trackID string) (TrackFeatures, bool) {
	for _, features := range s.Tracks {
		if features.TrackID == trackID {
			return features, true
		}
	}
	return TrackFeatures{}, false
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers bounds the per-track worker pool.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithEnergyPoints sets the energy profile resolution.
func WithEnergyPoints(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.energyPoints = n
		}
	}
}

// WithWaveformSource wires the peak supplier.
func WithWaveformSource(source WaveformSource) Option {
	return func(a *Analyzer) { a.waveforms = source }
}

// WithSectionSource wires the section supplier.
func WithSectionSource(source SectionSource) Option {
	return func(a *Analyzer) { a.sections = source }
}

// WithLogger attaches a base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logging.NewComponentLogger(logger, "analysis") }
}

// Analyzer runs feature extraction passes and caches their snapshots.
type Analyzer struct {
	workers      int
	energyPoints int
	waveforms    WaveformSource
	sections     SectionSource
	logger       *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// New constructs an Analyzer with defaults of 4 workers and 200 energy
// points.
func New(opts ...Option) *Analyzer {
	analyzer := &Analyzer{
		workers:      4,
		energyPoints: energy.DefaultPointCount,
		logger:       logging.NewComponentLogger(nil, "analysis"),
		snapshots:    make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer
}

// Cached returns the last committed snapshot for a project, if any.
func (a *Analyzer) Cached(projectID string) (*Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snapshot, ok := a.snapshots[projectID]
	return snapshot, ok
}

// Invalidate drops a project's cached snapshot.
func (a *Analyzer) Invalidate(projectID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.snapshots, projectID)
}

// Analyze extracts features for every track and scores adjacent pairs. The
// returned snapshot is committed to the cache only when the whole pass
// completes; cancellation leaves any previous snapshot untouched.
func (a *Analyzer) Analyze(ctx context.Context, projectID string, tracks []mix.Track) (*Snapshot, error) {
	features := make([]TrackFeatures, len(tracks))

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i := range tracks {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, services.Wrap(services.ErrCancelled, "analysis", "analyze", "project "+projectID, ctx.Err())
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			features[i] = a.analyzeTrack(ctx, tracks[i])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrCancelled, "analysis", "analyze", "project "+projectID, err)
	}

	snapshot := &Snapshot{
		ProjectID:   projectID,
		Tracks:      features,
		Transitions: transition.Score(tracks),
		CompletedAt: time.Now().UTC(),
	}

	a.mu.Lock()
	a.snapshots[projectID] = snapshot
	a.mu.Unlock()

	a.logger.Info("analysis pass committed",
		logging.String(logging.FieldProjectID, projectID),
		logging.Int("tracks", len(tracks)),
		logging.Int("transitions", len(snapshot.Transitions)))
	return snapshot, nil
}

// analyzeTrack extracts one track's features. Source failures degrade the
// track to neutral values instead of failing the batch.
func (a *Analyzer) analyzeTrack(ctx context.Context, track mix.Track) TrackFeatures {
	features := TrackFeatures{TrackID: track.ID}

	peaks := track.Peaks
	if len(peaks) == 0 && a.waveforms != nil {
		fetched, err := a.waveforms.Peaks(ctx, track)
		if err != nil {
			features.Degraded = services.Wrap(services.ErrAnalysis, "analysis", "peaks", "track "+track.ID, err)
			a.logger.Warn("waveform unavailable, using neutral energy",
				logging.String(logging.FieldTrackID, track.ID),
				logging.Error(err))
		} else {
			peaks = fetched
		}
	}

	var sections []mix.Section
	if a.sections != nil {
		fetched, err := a.sections.Sections(ctx, track)
		if err != nil {
			if features.Degraded == nil {
				features.Degraded = services.Wrap(services.ErrAnalysis, "analysis", "sections", "track "+track.ID, err)
			}
			a.logger.Warn("sections unavailable, skipping section boost",
				logging.String(logging.FieldTrackID, track.ID),
				logging.Error(err))
		} else {
			sections = fetched
		}
	}

	features.Energy = energy.Profile(peaks, a.energyPoints)
	features.Phrases = phrase.Detect(phrase.Input{
		TempoBPM: track.TempoBPM,
		Duration: track.Duration,
		Profile:  features.Energy,
		Sections: sections,
	})
	return features
}
