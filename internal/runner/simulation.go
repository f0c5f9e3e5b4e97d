package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/autobear/autobear/internal/logline"
)

// simStage is one step of the built-in demonstration run. Details are
// emitted at DEBUG level, so they only appear in developer mode.
type simStage struct {
	message string
	details []string
}

var simulationStages = []simStage{
	{"Starting script execution...", []string{
		"Python version: 3.9.7",
		"Script path: /scripts/data_processor.py",
		"Working directory: /home/user/projects",
	}},
	{"Initializing components...", []string{
		"Loading module: pandas v1.3.4",
		"Loading module: numpy v1.21.4",
		"Memory allocated: 128MB",
	}},
	{"Loading configuration...", []string{
		"Config file: config.json",
		"Parsing JSON configuration...",
		"Validated 15 configuration parameters",
	}},
	{"Connecting to database...", []string{
		"Database host: localhost:5432",
		"Connection pool size: 10",
		"SSL mode: require",
		"Connection established in 0.23 seconds",
	}},
	{"Fetching data...", []string{
		"Query: SELECT * FROM sales_data WHERE date >= '2024-01-01'",
		"Fetching 10,000 records...",
		"Data transfer rate: 2.3 MB/s",
	}},
	{"Processing records...", []string{
		"Applying data transformations...",
		"Validating data integrity...",
		"Calculating aggregations...",
	}},
	{"Generating report...", []string{
		"Template: quarterly_report.html",
		"Generating charts...",
		"Compiling PDF output...",
	}},
	{"Finalizing operations...", []string{
		"Closing database connections...",
		"Clearing temporary files...",
		"Total execution time: 4.7 seconds",
	}},
}

// processingStage is the index whose stage expands into batch progress.
const processingStage = 5

// simulationBatches is how many progress steps the processing stage shows.
const simulationBatches = 5

// runSimulation plays the built-in demonstration script, emitting staged
// operations with DEBUG detail lines and a batch progress section.
func (r *Runner) runSimulation(ctx context.Context, run *Run) error {
	for i, stage := range simulationStages {
		if err := simWait(ctx, 0); err != nil {
			return err
		}

		r.emit(run, logline.LevelInfo, stage.message)
		for _, detail := range stage.details {
			r.emit(run, logline.LevelDebug, detail)
			if err := simWait(ctx, r.opts.DetailDelay); err != nil {
				return err
			}
		}

		if err := simWait(ctx, r.opts.StageDelay); err != nil {
			return err
		}

		if i == processingStage {
			if err := r.simulateProcessing(ctx, run); err != nil {
				return err
			}
		}
	}

	r.emit(run, logline.LevelSuccess, "Script completed successfully!")
	r.emit(run, logline.LevelInfo, "Output saved to: /output/report_2024_01_15.pdf")
	r.emit(run, logline.LevelDebug, "Total memory peak: 256MB")
	r.emit(run, logline.LevelDebug, "CPU usage average: 45%")
	return nil
}

// simulateProcessing emits the batch progress section of the demonstration
// run, closing with a data-quality warning.
func (r *Runner) simulateProcessing(ctx context.Context, run *Run) error {
	for batch := 0; batch < simulationBatches; batch++ {
		if err := simWait(ctx, 0); err != nil {
			return err
		}

		r.emit(run, logline.LevelInfo,
			fmt.Sprintf("  Processing batch %d/%d...", batch+1, simulationBatches))
		r.emit(run, logline.LevelDebug,
			fmt.Sprintf("    Records %d-%d: Validated", batch*2000+1, (batch+1)*2000))
		r.emit(run, logline.LevelDebug,
			fmt.Sprintf("    Memory usage: %dMB", 64+batch*12))
		r.emit(run, logline.LevelDebug,
			fmt.Sprintf("    Processing rate: %.1fk records/sec", 1.8+float64(batch)*0.1))

		if err := simWait(ctx, r.opts.BatchDelay); err != nil {
			return err
		}
	}

	r.emit(run, logline.LevelWarning, "  Warning: 3 records had missing values and were skipped")
	r.emit(run, logline.LevelDebug, "    Missing values in columns: [customer_id, purchase_date, amount]")
	return nil
}

// simWait pauses for d while remaining responsive to cancellation. A
// non-positive d only checks for cancellation.
func simWait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
