package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"mixdown/internal/services"
)

type stubExecutor struct {
	result Result
	err    error
	chunks [][]byte

	gotBinary string
	gotArgs   []string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onStderr func([]byte)) (Result, error) {
	s.gotBinary = binary
	s.gotArgs = args
	for _, chunk := range s.chunks {
		if onStderr != nil {
			onStderr(chunk)
		}
	}
	return s.result, s.err
}

func TestClientRunNonZeroExit(t *testing.T) {
	stub := &stubExecutor{result: Result{ExitCode: 1, Stderr: "boom"}}
	client, err := New("ffmpeg", WithExecutor(stub))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Run(context.Background(), []string{"-i", "in.flac"}, nil)
	if !errors.Is(err, services.ErrProcessExit) {
		t.Fatalf("expected process exit error, got %v", err)
	}
	var exitErr *services.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.ExitCode != 1 || exitErr.Stderr != "boom" {
		t.Fatalf("unexpected exit error: %+v", exitErr)
	}
}

func TestDrainStderrKeepsNewestOutput(t *testing.T) {
	// A verbose encode can emit far more than the capture limit before it
	// fails; the failure reason at the end of the stream must survive.
	noise := strings.Repeat("frame= 1000 fps=100 q=-1.0 size=  10kB\n", 4*1024)
	final := "Conversion failed: no such file or directory\n"

	var capture bytes.Buffer
	drainStderr(strings.NewReader(noise+final), &capture, nil)

	if capture.Len() > stderrCaptureLimit {
		t.Fatalf("capture %d bytes exceeds limit %d", capture.Len(), stderrCaptureLimit)
	}
	got := capture.String()
	if !strings.HasSuffix(got, final) {
		t.Fatalf("final stderr line lost, capture ends with %q", got[len(got)-80:])
	}
	if !strings.Contains(tail(got), "Conversion failed") {
		t.Fatalf("tail missing failure reason: %q", tail(got))
	}
}

func TestClientNewRejectsEmptyBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestVersionParsesReleaseToken(t *testing.T) {
	cases := []struct {
		name   string
		stdout string
		want   string
	}{
		{"release", "ffmpeg version 6.1.1 Copyright (c) 2000-2023\nbuilt with gcc", "6.1.1"},
		{"git build", "ffmpeg version N-113007-g8d6e9ea8a3 Copyright (c) 2000-2024", "N-113007-g8d6e9ea8a3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubExecutor{result: Result{Stdout: tc.stdout}}
			client, _ := New("ffmpeg", WithExecutor(stub))
			got, err := client.Version(context.Background())
			if err != nil {
				t.Fatalf("Version: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
			if len(stub.gotArgs) != 1 || stub.gotArgs[0] != "-version" {
				t.Fatalf("unexpected args: %v", stub.gotArgs)
			}
		})
	}
}

func TestVersionUnrecognizedOutput(t *testing.T) {
	stub := &stubExecutor{result: Result{Stdout: "not an encoder"}}
	client, _ := New("ffmpeg", WithExecutor(stub))
	if _, err := client.Version(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProgressParserSplitChunks(t *testing.T) {
	var elapsed []float64
	parser := NewProgressParser(func(seconds float64) {
		elapsed = append(elapsed, seconds)
	})

	parser.Write([]byte("time=00:00:10.00"))
	parser.Write([]byte(" bitrate=1411.2kbits/s\rtime=00:00:25.50"))
	parser.Flush()

	want := []float64{10, 25.5}
	if len(elapsed) != len(want) {
		t.Fatalf("got %v, want %v", elapsed, want)
	}
	for i := range want {
		if math.Abs(elapsed[i]-want[i]) > 1e-9 {
			t.Fatalf("got %v, want %v", elapsed, want)
		}
	}
}

func TestProgressParserTokenSplitMidTimestamp(t *testing.T) {
	var elapsed []float64
	parser := NewProgressParser(func(seconds float64) {
		elapsed = append(elapsed, seconds)
	})

	parser.Write([]byte("frame=100 time=00:01"))
	parser.Write([]byte(":23.45 speed=2x\r"))
	parser.Flush()

	if len(elapsed) != 1 || math.Abs(elapsed[0]-83.45) > 1e-9 {
		t.Fatalf("got %v, want [83.45]", elapsed)
	}
}

func TestProgressParserHoldsTrailingFraction(t *testing.T) {
	var elapsed []float64
	parser := NewProgressParser(func(seconds float64) {
		elapsed = append(elapsed, seconds)
	})

	// The fraction continues in the next chunk; an eager parse would
	// report 25.5 instead of 25.55.
	parser.Write([]byte("time=00:00:25.5"))
	parser.Write([]byte("5 speed=2x\r"))
	parser.Flush()

	if len(elapsed) != 1 || math.Abs(elapsed[0]-25.55) > 1e-9 {
		t.Fatalf("got %v, want [25.55]", elapsed)
	}
}

func TestProgressParserIgnoresNoise(t *testing.T) {
	called := false
	parser := NewProgressParser(func(float64) { called = true })
	parser.Write([]byte("Stream mapping:\n  Stream #0:0 -> #0:0 (flac (native) -> pcm_s16le (native))\n"))
	parser.Flush()
	if called {
		t.Fatal("callback fired without a time token")
	}
}

func TestParseLoudnormJSON(t *testing.T) {
	stderr := "[Parsed_loudnorm_0 @ 0x55] \n{\n" +
		"\t\"input_i\" : \"-23.61\",\n" +
		"\t\"input_tp\" : \"-6.53\",\n" +
		"\t\"input_lra\" : \"18.06\",\n" +
		"\t\"input_thresh\" : \"-34.23\",\n" +
		"\t\"output_i\" : \"-14.47\",\n" +
		"\t\"normalization_type\" : \"dynamic\"\n" +
		"}\n"
	m, err := parseLoudnormJSON(stderr)
	if err != nil {
		t.Fatalf("parseLoudnormJSON: %v", err)
	}
	if m.InputI != "-23.61" || m.InputTP != "-6.53" || m.InputLRA != "18.06" || m.InputThresh != "-34.23" {
		t.Fatalf("unexpected measurement: %+v", m)
	}
}

func TestParseLoudnormJSONMissingBlock(t *testing.T) {
	if _, err := parseLoudnormJSON("size=N/A time=00:03:00.00"); err == nil {
		t.Fatal("expected error for missing JSON block")
	}
}

func TestLoudnessFilters(t *testing.T) {
	targets := LoudnessTargets{IntegratedLUFS: -14, TruePeakDB: -1.5, RangeLU: 11}
	if got, want := targets.AnalysisFilter(), "loudnorm=I=-14:TP=-1.5:LRA=11:print_format=json"; got != want {
		t.Fatalf("analysis filter %q, want %q", got, want)
	}
	m := LoudnessMeasurement{InputI: "-23.61", InputTP: "-6.53", InputLRA: "18.06", InputThresh: "-34.23"}
	second := targets.RenderFilter(m)
	want := "loudnorm=I=-14:TP=-1.5:LRA=11:measured_I=-23.61:measured_TP=-6.53:measured_LRA=18.06:measured_thresh=-34.23:linear=true"
	if second != want {
		t.Fatalf("render filter %q, want %q", second, want)
	}
}
