package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"mixdown/internal/services"
)

// stderrCaptureLimit bounds how much diagnostic output is retained for error
// reporting. The newest output is kept; the failure reason sits at the end of
// the stream. The progress callback still sees every chunk.
const stderrCaptureLimit = 64 * 1024

// Result captures a finished invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor abstracts command execution for testability. onStderr receives raw
// stream chunks as they arrive and may be nil.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStderr func([]byte)) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Run invokes the encoder and resolves once the process exits. A non-zero
// exit is reported as a process exit error carrying the captured stderr;
// failure to start at all is a spawn error.
func (c *Client) Run(ctx context.Context, args []string, onStderr func([]byte)) (Result, error) {
	result, err := c.exec.Run(ctx, c.binary, args, onStderr)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		if ctx.Err() != nil {
			return result, services.Wrap(services.ErrCancelled, "ffmpeg", "run", "terminated", ctx.Err())
		}
		return result, services.NewExitError(c.binary, result.ExitCode, tail(result.Stderr))
	}
	return result, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStderr func([]byte)) (Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	// Ask the encoder to shut down cleanly before the runtime escalates.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, services.Wrap(services.ErrSpawn, "ffmpeg", "run", "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, services.Wrap(services.ErrSpawn, "ffmpeg", "run", "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, services.Wrap(services.ErrSpawn, "ffmpeg", "run", "start "+binary, err)
	}

	var (
		wg        sync.WaitGroup
		stdoutBuf bytes.Buffer
		stderrBuf bytes.Buffer
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&stdoutBuf, stdout)
	}()
	go func() {
		defer wg.Done()
		drainStderr(stderr, &stderrBuf, onStderr)
	}()
	wg.Wait()

	err = cmd.Wait()
	result := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, services.Wrap(services.ErrSpawn, "ffmpeg", "run", "wait "+binary, err)
	}
	return result, nil
}

// drainStderr keeps the pipe flowing regardless of how fast the consumer is;
// a stalled diagnostic pipe would block the encoder itself.
func drainStderr(r io.Reader, capture *bytes.Buffer, onChunk func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			capture.Write(chunk)
			if excess := capture.Len() - stderrCaptureLimit; excess > 0 {
				capture.Next(excess)
			}
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

func tail(s string) string {
	const maxLines = 10
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
