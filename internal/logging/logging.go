// Package logging configures the application's diagnostic logger.
//
// Diagnostics always go to stderr or a log file, never stdout: stdout belongs
// to script output and must stay parseable by the console line contract.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format, and destination for diagnostics.
type Config struct {
	Level  string // trace|debug|info|warn|error, defaults to info
	Format string // console|json, defaults to console
	Output string // stderr|file
	File   string // log file path when Output is "file"
	Caller bool   // annotate entries with file:line
}

// LogPathResult carries the constructed logger plus where its output landed,
// so the CLI can tell the user when logs moved to a file or a fallback
// happened.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any. Safe to call on a console-only
// result.
func (r *LogPathResult) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLoggerWithPath builds a logger per cfg. File output failures fall back
// to stderr rather than failing the command; the result records the reason so
// callers can surface it.
func NewLoggerWithPath(cfg Config) LogPathResult {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	result := LogPathResult{}
	var out io.Writer

	if cfg.Output == "file" && cfg.File != "" {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.File), 0o750); mkErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = fmt.Sprintf("could not create log directory: %v", mkErr)
		} else if f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = fmt.Sprintf("could not open log file: %v", openErr)
		} else {
			result.UsingFile = true
			result.FilePath = cfg.File
			result.file = f
			out = f
		}
	}

	if out == nil {
		out = consoleWriter(os.Stderr)
	} else if cfg.Format == "console" {
		out = consoleWriter(out)
	}

	logCtx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	result.Logger = logCtx.Logger()
	return result
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

// FromContext returns the logger attached to ctx, or a default stderr logger
// at info level when none was attached.
func FromContext(ctx context.Context) zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		return zerolog.New(consoleWriter(os.Stderr)).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	return *logger
}

// ComponentLogger tags every entry from a subsystem.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// PrintLogPathMessage tells the user where diagnostics are going when they
// moved off the terminal.
func PrintLogPathMessage(w io.Writer, path string) {
	fmt.Fprintf(w, "Logs: %s\n", path)
}

// PrintFallbackWarning reports that file logging failed and stderr is used
// instead.
func PrintFallbackWarning(w io.Writer, reason string) {
	fmt.Fprintf(w, "Warning: %s; logging to stderr\n", reason)
}
