// Package simulate implements the built-in demonstration job: a linear batch
// run that emits sample console lines for exercising log viewers. The job is
// strictly sequential; pauses exist only to pace output for human readability.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/autobear/autobear/internal/logline"
)

// printer renders record counts with thousand separators.
var printer = message.NewPrinter(language.English)

// Default pacing. The delays make live output readable; tests run at zero.
const (
	DefaultRecordCount = 1000
	DefaultBatchDelay  = 500 * time.Millisecond
	DefaultLineDelay   = 100 * time.Millisecond
	DefaultWarnEvery   = 4

	maxSkippedPerWarning = 5
)

// Config is the job's inline configuration literal.
type Config struct {
	RecordCount     int
	BatchSize       int
	OutputFormat    string // json, csv, or table
	ValidateRecords bool
	BatchDelay      time.Duration
	LineDelay       time.Duration
	WarnEvery       int   // warn roughly every N batches; 0 disables warnings
	Seed            int64 // 0 seeds from the clock
}

// DefaultConfig mirrors the registered demonstration parameters: 1000
// records in batches of 100, JSON output, validation on.
func DefaultConfig() Config {
	return Config{
		RecordCount:     DefaultRecordCount,
		BatchSize:       DefaultBatchSize,
		OutputFormat:    "json",
		ValidateRecords: true,
		BatchDelay:      DefaultBatchDelay,
		LineDelay:       DefaultLineDelay,
		WarnEvery:       DefaultWarnEvery,
	}
}

// Validate rejects configurations before the first line is emitted.
func (c Config) Validate() error {
	if c.RecordCount < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeRecords, c.RecordCount)
	}
	if c.RecordCount > MaxRecordCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyRecords, c.RecordCount, MaxRecordCount)
	}
	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, c.BatchSize)
	}
	switch c.OutputFormat {
	case "json", "csv", "table":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.OutputFormat)
	}
	if c.WarnEvery < 0 {
		return fmt.Errorf("warn frequency cannot be negative: got %d", c.WarnEvery)
	}
	return nil
}

// Result carries the job's counters after the run.
type Result struct {
	Processed int
	Skipped   int
	Batches   int
	Duration  time.Duration
}

// Run executes the demonstration job, writing console lines to out.
//
// The flow is: start message, configuration-loaded message, data-loaded
// message, one progress line per batch with an occasional randomized
// validation warning, then summary messages. Context cancellation emits the
// interruption warning and returns ErrInterrupted; warnings alone never
// produce an error.
func Run(ctx context.Context, out io.Writer, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // cosmetic warnings, not cryptography

	w := logline.NewWriter(out)
	start := time.Now()

	result := Result{Batches: (cfg.RecordCount + cfg.BatchSize - 1) / cfg.BatchSize}
	fail := func(err error) (Result, error) {
		result.Duration = time.Since(start)
		if errors.Is(err, ErrInterrupted) {
			// The interruption warning is part of the output contract.
			_ = w.Emit(logline.LevelWarning, "Script execution interrupted by user.")
		}
		return result, err
	}

	if err := emitHeader(ctx, w, cfg); err != nil {
		return fail(err)
	}

	processor, err := NewProcessor(cfg.BatchSize)
	if err != nil {
		return fail(err)
	}

	progress, runErr := processor.Run(ctx, cfg.RecordCount, func(ctx context.Context, batch Batch) error {
		return runBatch(ctx, w, cfg, rng, &result, batch)
	})
	if progress != nil {
		result.Processed = progress.Snapshot().ProcessedRecords
	}
	if runErr != nil {
		return fail(runErr)
	}

	result.Duration = time.Since(start)

	if err := emitSummary(w, cfg, result); err != nil {
		return fail(err)
	}
	return result, nil
}

func emitHeader(ctx context.Context, w *logline.Writer, cfg Config) error {
	if err := w.Emit(logline.LevelInfo, "Starting data processing job..."); err != nil {
		return err
	}
	if err := pause(ctx, cfg.LineDelay); err != nil {
		return err
	}

	validation := "off"
	if cfg.ValidateRecords {
		validation = "on"
	}
	if err := w.Emitf(logline.LevelDebug,
		"Batch size: %d, output format: %s, validation: %s",
		cfg.BatchSize, cfg.OutputFormat, validation); err != nil {
		return err
	}
	if err := w.Emit(logline.LevelInfo, "Configuration loaded"); err != nil {
		return err
	}
	if err := pause(ctx, cfg.LineDelay); err != nil {
		return err
	}

	if err := w.Emitf(logline.LevelInfo, "Loaded %s records from source",
		printer.Sprintf("%d", cfg.RecordCount)); err != nil {
		return err
	}
	return pause(ctx, cfg.LineDelay)
}

func runBatch(ctx context.Context, w *logline.Writer, cfg Config, rng *rand.Rand, result *Result, batch Batch) error {
	if err := w.Emitf(logline.LevelInfo, "Processing batch %d/%d (%s/%s records)",
		batch.Index+1, result.Batches,
		printer.Sprintf("%d", batch.End),
		printer.Sprintf("%d", cfg.RecordCount)); err != nil {
		return err
	}

	if cfg.ValidateRecords {
		if err := w.Emitf(logline.LevelDebug, "Validated records %d-%d", batch.Start+1, batch.End); err != nil {
			return err
		}
	}

	if cfg.WarnEvery > 0 && rng.Intn(cfg.WarnEvery) == 0 {
		skipped := rng.Intn(maxSkippedPerWarning) + 1
		result.Skipped += skipped
		if err := w.Emitf(logline.LevelWarning,
			"%d records had missing values and were skipped", skipped); err != nil {
			return err
		}
	}

	return pause(ctx, cfg.BatchDelay)
}

func emitSummary(w *logline.Writer, cfg Config, result Result) error {
	if err := w.Emit(logline.LevelSuccess, "Data processing completed successfully!"); err != nil {
		return err
	}

	if err := w.Emitf(logline.LevelInfo, "Processed %s records in %s (%s skipped)",
		printer.Sprintf("%d", result.Processed),
		result.Duration.Round(time.Millisecond),
		printer.Sprintf("%d", result.Skipped)); err != nil {
		return err
	}

	if err := w.Emitf(logline.LevelInfo, "Results written to output/results.%s",
		outputExtension(cfg.OutputFormat)); err != nil {
		return err
	}

	rate := float64(result.Processed)
	if secs := result.Duration.Seconds(); secs > 0 {
		rate = float64(result.Processed) / secs
	}
	return w.Emitf(logline.LevelDebug, "Average rate: %s records/sec", printer.Sprintf("%.0f", rate))
}

func outputExtension(format string) string {
	switch format {
	case "csv":
		return "csv"
	case "table":
		return "txt"
	default:
		return "json"
	}
}

// pause sleeps for d unless the context is canceled first. Zero and negative
// delays only poll for cancellation.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ErrInterrupted
	case <-timer.C:
		return nil
	}
}
