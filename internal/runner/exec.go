package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autobear/autobear/internal/logging"
	"github.com/autobear/autobear/internal/logline"
)

// processWaitDelay bounds how long Wait blocks on pipe I/O after the child
// is killed.
const processWaitDelay = 100 * time.Millisecond

// maxLineSize caps a single output line. Longer lines are split by the
// scanner rather than aborting the run.
const maxLineSize = 1024 * 1024

// runScript executes an external script through the configured interpreter,
// pumping stdout and stderr into the run's output stream. It returns the
// child's exit code and a classification error for non-zero exits.
func (r *Runner) runScript(ctx context.Context, run *Run, args []string) (int, error) {
	path := run.script.ResolvePath(r.opts.ScriptsDir)
	if _, statErr := os.Stat(path); statErr != nil {
		return 1, fmt.Errorf("script not found: %s", path)
	}

	argv := append([]string{path}, args...)
	//nolint:gosec // Interpreter and path come from the user's own registry.
	cmd := exec.CommandContext(ctx, r.opts.Interpreter, argv...)
	// Keeps Python children line-buffered so output streams as it happens.
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.WaitDelay = processWaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 1, fmt.Errorf("opening stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 1, fmt.Errorf("opening stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("starting script: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "runner").
		Str("script", run.script.Name).
		Str("path", path).
		Int("pid", cmd.Process.Pid).
		Msg("script process started")

	var pumps errgroup.Group
	pumps.Go(func() error {
		return r.pumpStdout(run, stdout)
	})
	pumps.Go(func() error {
		return r.pumpStderr(run, stderr)
	})

	pumpErr := pumps.Wait()
	waitErr := cmd.Wait()

	switch {
	case waitErr == nil:
		if pumpErr != nil {
			return 1, fmt.Errorf("reading script output: %w", pumpErr)
		}
		return 0, nil
	case ctx.Err() != nil:
		// Killed by stop or timeout; classification happens in execute.
		return 1, ctx.Err()
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				code = 1
			}
			return code, fmt.Errorf("script exited with code %d", code)
		}
		return 1, fmt.Errorf("running script: %w", waitErr)
	}
}

// pumpStdout forwards stdout lines as leveled output. Lines already shaped
// like console output keep their level; everything else arrives as INFO.
func (r *Runner) pumpStdout(run *Run, pipe io.Reader) error {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		text := scanner.Text()
		if line, ok := logline.Parse(text); ok {
			r.emit(run, line.Level, line.Message)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		r.emit(run, logline.LevelInfo, text)
	}
	return scanner.Err()
}

// pumpStderr forwards stderr lines as ERROR output.
func (r *Runner) pumpStderr(run *Run, pipe io.Reader) error {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		r.emit(run, logline.LevelError, text)
	}
	return scanner.Err()
}
