// Package runner executes registered scripts one at a time, streaming their
// output as leveled messages. External scripts run as child processes whose
// stdout and stderr are parsed line by line; the built-in simulation produces
// a staged demonstration run without touching the filesystem.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/logging"
	"github.com/autobear/autobear/internal/logline"
	"github.com/autobear/autobear/internal/registry"
)

const (
	defaultInterpreter = "python3"

	// outputBuffer bounds how far script output can run ahead of the
	// consumer before the pumps block.
	outputBuffer = 256
)

// ErrAlreadyRunning indicates a start was attempted while another script was
// still executing. Only one script runs at a time.
var ErrAlreadyRunning = errors.New("a script is already running")

// Status classifies how a run ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusStopped Status = "stopped"
)

// Output is one leveled message produced by a running script.
type Output struct {
	Time    time.Time
	Level   logline.Level
	Message string
}

// RunResult describes a completed run.
type RunResult struct {
	Script    string
	Status    Status
	ExitCode  int
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

// Duration returns how long the run took.
func (r RunResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Event is the payload published on script lifecycle events. Result is zero
// for ScriptStarted.
type Event struct {
	Script string
	Result RunResult
}

// OutputEvent is the payload published per output line when something is
// subscribed to events.ScriptOutput.
type OutputEvent struct {
	Script string
	Output Output
}

// Options configures a Runner. The delay fields pace the built-in
// simulation; zero disables the corresponding pause.
type Options struct {
	ScriptsDir    string
	Interpreter   string
	DeveloperMode bool // emit DEBUG output
	Timeout       time.Duration
	StageDelay    time.Duration
	DetailDelay   time.Duration
	BatchDelay    time.Duration
}

// DefaultOptions returns the standard pacing and interpreter.
func DefaultOptions() Options {
	return Options{
		Interpreter: defaultInterpreter,
		StageDelay:  time.Second,
		DetailDelay: 100 * time.Millisecond,
		BatchDelay:  500 * time.Millisecond,
	}
}

// Runner starts scripts and enforces the one-at-a-time rule.
type Runner struct {
	mu      sync.Mutex
	current *Run
	bus     *events.Bus
	opts    Options
}

// New creates a Runner publishing lifecycle events on bus. A nil bus is
// replaced with an unused private one.
func New(bus *events.Bus, opts Options) *Runner {
	if bus == nil {
		bus = events.NewBus()
	}
	if opts.Interpreter == "" {
		opts.Interpreter = defaultInterpreter
	}
	return &Runner{bus: bus, opts: opts}
}

// Running reports whether a script is currently executing.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && !r.current.finished()
}

// Start begins executing script and returns a handle for consuming its
// output. Callers must drain the handle's Output channel until it closes.
// Start fails with ErrAlreadyRunning while a previous run is still active.
func (r *Runner) Start(ctx context.Context, script registry.Script, args ...string) (*Run, error) {
	r.mu.Lock()
	if r.current != nil && !r.current.finished() {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if r.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
	}

	run := &Run{
		script: script,
		ctx:    runCtx,
		cancel: cancel,
		out:    make(chan Output, outputBuffer),
		done:   make(chan struct{}),
	}
	run.result.Script = script.Name
	run.result.StartTime = time.Now()
	r.current = run
	r.mu.Unlock()

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "runner").
		Str("script", script.Name).
		Bool("builtin", script.IsBuiltin()).
		Msg("starting script")

	r.bus.Publish(events.ScriptStarted, Event{Script: script.Name})
	r.bus.Publish(events.StatusChanged, "running: "+script.Name)

	go r.execute(runCtx, run, args)
	return run, nil
}

// execute drives a run to completion and classifies the outcome.
func (r *Runner) execute(ctx context.Context, run *Run, args []string) {
	var exitCode int
	var err error

	if run.script.IsBuiltin() {
		err = r.runSimulation(ctx, run)
	} else {
		exitCode, err = r.runScript(ctx, run, args)
	}

	run.result.EndTime = time.Now()

	switch {
	case run.stopReq.Load():
		run.result.Status = StatusStopped
		run.result.ExitCode = 1
		run.emitFinal(Output{
			Time:    time.Now(),
			Level:   logline.LevelWarning,
			Message: "Script execution interrupted by user.",
		})
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		run.result.Status = StatusError
		run.result.ExitCode = 1
		run.result.Err = errors.New("script timed out after " + r.opts.Timeout.String())
		run.emitFinal(Output{
			Time:    time.Now(),
			Level:   logline.LevelError,
			Message: "Script timed out after " + r.opts.Timeout.String(),
		})
	case err != nil:
		run.result.Status = StatusError
		run.result.ExitCode = exitCode
		if run.result.ExitCode == 0 {
			run.result.ExitCode = 1
		}
		run.result.Err = err
		run.emitFinal(Output{
			Time:    time.Now(),
			Level:   logline.LevelError,
			Message: err.Error(),
		})
	default:
		run.result.Status = StatusSuccess
		run.result.ExitCode = 0
	}

	close(run.out)

	payload := Event{Script: run.script.Name, Result: run.result}
	switch run.result.Status {
	case StatusSuccess:
		r.bus.Publish(events.ScriptCompleted, payload)
	case StatusError:
		r.bus.Publish(events.ScriptError, payload)
	case StatusStopped:
		r.bus.Publish(events.ScriptStopped, payload)
	}
	r.bus.Publish(events.StatusChanged, "idle")

	close(run.done)
	run.cancel()
}

// emit delivers one output line, honoring the developer-mode gate for DEBUG
// messages. It gives up if the run is being torn down.
func (r *Runner) emit(run *Run, level logline.Level, msg string) {
	if level == logline.LevelDebug && !r.opts.DeveloperMode {
		return
	}
	out := Output{Time: time.Now(), Level: level, Message: msg}
	select {
	case run.out <- out:
		if r.bus.HasSubscribers(events.ScriptOutput) {
			r.bus.Publish(events.ScriptOutput, OutputEvent{Script: run.script.Name, Output: out})
		}
	case <-run.ctx.Done():
	}
}

// Run is a handle to a single script execution.
type Run struct {
	script  registry.Script
	ctx     context.Context
	cancel  context.CancelFunc
	out     chan Output
	done    chan struct{}
	result  RunResult
	stopReq atomic.Bool
}

// Script returns the script being executed.
func (run *Run) Script() registry.Script {
	return run.script
}

// Output returns the stream of leveled messages. The channel closes when the
// run finishes; callers must drain it.
func (run *Run) Output() <-chan Output {
	return run.out
}

// Wait blocks until the run finishes and returns its result.
func (run *Run) Wait() RunResult {
	<-run.done
	return run.result
}

// Done returns a channel closed when the run finishes.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Stop requests cancellation. The run ends with StatusStopped and a closing
// warning message. Stopping an already finished run has no effect.
func (run *Run) Stop() {
	if run.finished() {
		return
	}
	run.stopReq.Store(true)
	run.cancel()
}

func (run *Run) finished() bool {
	select {
	case <-run.done:
		return true
	default:
		return false
	}
}

// emitFinal delivers a closing message after the run's context is already
// canceled. The send blocks; consumers drain Output until close.
func (run *Run) emitFinal(out Output) {
	run.out <- out
}
