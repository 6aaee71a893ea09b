package render

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"mixdown/internal/mix"
	"mixdown/internal/services"
	"mixdown/internal/services/ffmpeg"
	"mixdown/internal/testsupport"
)

const versionOutput = "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers\n"

const loudnormOutput = `[Parsed_loudnorm_0 @ 0x55]
{
	"input_i" : "-23.61",
	"input_tp" : "-6.53",
	"input_lra" : "18.06",
	"input_thresh" : "-34.23"
}
`

// scriptedExecutor fakes ffmpeg invocations by inspecting the argument
// vector: version probe, loudness measurement, render, or encode.
type scriptedExecutor struct {
	blockRenderUntilCancel bool
	renderStarted          chan struct{}
	failEncode             bool
}

func (s *scriptedExecutor) Run(ctx context.Context, _ string, args []string, onStderr func([]byte)) (ffmpeg.Result, error) {
	joined := strings.Join(args, " ")
	switch {
	case joined == "-version":
		return ffmpeg.Result{Stdout: versionOutput}, nil

	case strings.Contains(joined, "print_format=json"):
		if onStderr != nil {
			onStderr([]byte(loudnormOutput))
		}
		return ffmpeg.Result{Stderr: loudnormOutput}, nil

	case strings.Contains(joined, "-filter_complex"):
		if s.renderStarted != nil {
			close(s.renderStarted)
			s.renderStarted = nil
		}
		if s.blockRenderUntilCancel {
			<-ctx.Done()
			return ffmpeg.Result{ExitCode: 255}, nil
		}
		if onStderr != nil {
			onStderr([]byte("time=00:00:10.00"))
			onStderr([]byte(" bitrate=900k\rtime=00:00:25.50 speed=4x\r"))
		}
		// The render output file itself; content is irrelevant.
		return ffmpeg.Result{}, os.WriteFile(args[len(args)-1], []byte("pcm"), 0o644)

	default: // encode
		if s.failEncode {
			return ffmpeg.Result{ExitCode: 1, Stderr: "encode exploded"}, nil
		}
		return ffmpeg.Result{}, os.WriteFile(args[len(args)-1], []byte("encoded"), 0o644)
	}
}

func testPipeline(t *testing.T, exec ffmpeg.Executor) (*Pipeline, mix.ExportRequest, []mix.Track) {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}

	request := mix.ExportRequest{
		ProjectID:         "p1",
		OutputDirectory:   cfg.Paths.OutputDir,
		OutputFilename:    "mix.flac",
		Format:            mix.FormatFLAC,
		Normalization:     true,
		GenerateCueSheet:  true,
		CrossfadeDuration: 5,
		Metadata:          mix.Metadata{Title: "Test Mix", Artist: "Tester"},
	}
	tracks := []mix.Track{
		{ID: "a", Position: 0, Title: "One", Path: "/music/one.flac", Duration: 10, TempoBPM: 120},
		{ID: "b", Position: 1, Title: "Two", Path: "/music/two.flac", Duration: 10, TempoBPM: 121},
	}
	return New(cfg, client), request, tracks
}

func collectPhases(t *testing.T, job *Job) []mix.Phase {
	t.Helper()
	var phases []mix.Phase
	for snapshot := range job.Progress {
		if len(phases) == 0 || phases[len(phases)-1] != snapshot.Phase {
			phases = append(phases, snapshot.Phase)
		}
	}
	return phases
}

func TestExportCompletes(t *testing.T) {
	pipeline, request, tracks := testPipeline(t, &scriptedExecutor{})

	job, err := pipeline.Start(context.Background(), "job1", request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	phases := collectPhases(t, job)
	outcome := job.Wait()

	if outcome.Phase != mix.PhaseComplete {
		t.Fatalf("outcome %s err=%v", outcome.Phase, outcome.Err)
	}
	want := []mix.Phase{mix.PhaseValidating, mix.PhaseAnalyzing, mix.PhaseRendering, mix.PhaseEncoding, mix.PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phases %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases %v, want %v", phases, want)
		}
	}

	if _, err := os.Stat(outcome.OutputPath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	cue := strings.TrimSuffix(outcome.OutputPath, ".flac") + ".cue"
	data, err := os.ReadFile(cue)
	if err != nil {
		t.Fatalf("cue sheet missing: %v", err)
	}
	if !strings.Contains(string(data), "TRACK 02 AUDIO") {
		t.Fatalf("cue sheet incomplete:\n%s", data)
	}
}

func TestExportBusy(t *testing.T) {
	exec := &scriptedExecutor{
		blockRenderUntilCancel: true,
		renderStarted:          make(chan struct{}),
	}
	pipeline, request, tracks := testPipeline(t, exec)

	started := exec.renderStarted
	job, err := pipeline.Start(context.Background(), "job1", request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	if _, err := pipeline.Start(context.Background(), "job2", request, tracks); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}

	job.Cancel()
	job.Wait()
}

func TestExportCancelMidRender(t *testing.T) {
	exec := &scriptedExecutor{
		blockRenderUntilCancel: true,
		renderStarted:          make(chan struct{}),
	}
	pipeline, request, tracks := testPipeline(t, exec)

	started := exec.renderStarted
	job, err := pipeline.Start(context.Background(), "job1", request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	job.Cancel()

	outcome := job.Wait()
	if outcome.Phase != mix.PhaseCancelled {
		t.Fatalf("outcome %s err=%v", outcome.Phase, outcome.Err)
	}
	if _, err := os.Stat(request.OutputPath()); !os.IsNotExist(err) {
		t.Fatal("cancelled job left a file at the output path")
	}

	// Channel closes after the terminal snapshot; nothing arrives later.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot, ok := <-job.Progress:
			if !ok {
				return
			}
			if snapshot.Phase == mix.PhaseError {
				t.Fatalf("cancel surfaced as error: %+v", snapshot)
			}
		case <-deadline:
			t.Fatal("progress channel never closed")
		}
	}
}

func TestExportEncodeFailure(t *testing.T) {
	pipeline, request, tracks := testPipeline(t, &scriptedExecutor{failEncode: true})

	job, err := pipeline.Start(context.Background(), "job1", request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	outcome := job.Wait()
	if outcome.Phase != mix.PhaseError {
		t.Fatalf("outcome %s", outcome.Phase)
	}
	if !errors.Is(outcome.Err, services.ErrProcessExit) {
		t.Fatalf("expected process exit error, got %v", outcome.Err)
	}
	if !strings.Contains(outcome.Err.Error(), "encode exploded") {
		t.Fatalf("stderr not carried: %v", outcome.Err)
	}
	if _, err := os.Stat(request.OutputPath()); !os.IsNotExist(err) {
		t.Fatal("failed job left a file at the output path")
	}
}

func TestExportRecordsJobPhases(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	proj := testsupport.NewProject(t, store, "Warehouse Set", 2)
	testsupport.AddTrack(t, store, proj.ID, "Opener", 10)
	testsupport.AddTrack(t, store, proj.ID, "Closer", 10)

	tracks, err := store.ListTracks(context.Background(), proj.ID)
	if err != nil {
		t.Fatalf("ListTracks: %v", err)
	}
	record, err := store.CreateExportJob(context.Background(), mix.ExportRequest{
		ProjectID:         proj.ID,
		OutputDirectory:   cfg.Paths.OutputDir,
		OutputFilename:    "set.wav",
		Format:            mix.FormatWAV,
		CrossfadeDuration: 2,
	})
	if err != nil {
		t.Fatalf("CreateExportJob: %v", err)
	}

	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&scriptedExecutor{}))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	pipeline := New(cfg, client, WithRecorder(store))

	job, err := pipeline.Start(context.Background(), record.ID, record.Request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	collectPhases(t, job)
	outcome := job.Wait()
	if outcome.Phase != mix.PhaseComplete {
		t.Fatalf("outcome %s err=%v", outcome.Phase, outcome.Err)
	}

	persisted, err := store.GetExportJob(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetExportJob: %v", err)
	}
	if persisted.Phase != mix.PhaseComplete {
		t.Fatalf("persisted phase %s", persisted.Phase)
	}
	if persisted.OutputPath != outcome.OutputPath {
		t.Fatalf("persisted output %q, want %q", persisted.OutputPath, outcome.OutputPath)
	}
	if persisted.FinishedAt == nil {
		t.Fatal("finished timestamp not recorded")
	}
}

// countingExecutor records how many processes the pipeline spawned.
type countingExecutor struct {
	inner ffmpeg.Executor
	calls int
}

func (c *countingExecutor) Run(ctx context.Context, binary string, args []string, onStderr func([]byte)) (ffmpeg.Result, error) {
	c.calls++
	return c.inner.Run(ctx, binary, args, onStderr)
}

func TestExportConfigurationErrorsBeforeAnySideEffect(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*mix.ExportRequest)
	}{
		{"invalid mp3 bitrate", func(r *mix.ExportRequest) {
			r.Format = mix.FormatMP3
			r.OutputFilename = "mix.mp3"
			r.MP3BitrateKbps = 137
		}},
		{"oversized crossfade", func(r *mix.ExportRequest) {
			r.CrossfadeDuration = 8 // more than half of a 10s track
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &countingExecutor{inner: &scriptedExecutor{}}
			pipeline, request, tracks := testPipeline(t, exec)
			tc.mutate(&request)

			job, err := pipeline.Start(context.Background(), "job1", request, tracks)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			outcome := job.Wait()
			if outcome.Phase != mix.PhaseError {
				t.Fatalf("outcome %s", outcome.Phase)
			}
			if !errors.Is(outcome.Err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", outcome.Err)
			}

			if exec.calls != 0 {
				t.Fatalf("spawned %d processes before validation finished", exec.calls)
			}
			entries, err := os.ReadDir(pipeline.cfg.Paths.StagingDir)
			if err != nil {
				t.Fatalf("read staging dir: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("staging dir touched before validation: %v", entries)
			}
		})
	}
}

func TestExportRejectsOversizedCrossfade(t *testing.T) {
	pipeline, request, tracks := testPipeline(t, &scriptedExecutor{})
	request.CrossfadeDuration = 8 // more than half of a 10s track

	job, err := pipeline.Start(context.Background(), "job1", request, tracks)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	outcome := job.Wait()
	if outcome.Phase != mix.PhaseError {
		t.Fatalf("outcome %s", outcome.Phase)
	}
	if !errors.Is(outcome.Err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", outcome.Err)
	}
}
