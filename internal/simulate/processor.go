package simulate

import (
	"context"
	"errors"
	"fmt"
)

// Batch sizing bounds.
const (
	// DefaultBatchSize is the number of records per batch when unset.
	DefaultBatchSize = 100

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000

	// MaxRecordCount bounds the synthetic record set.
	MaxRecordCount = 10_000_000
)

// Batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrNegativeRecords  = errors.New("record count cannot be negative")
	ErrTooManyRecords   = errors.New("record count exceeds supported maximum")
	ErrInterrupted      = errors.New("script execution interrupted by user")
	ErrInvalidFormat    = errors.New("output format must be json, csv, or table")
)

// Batch describes one fixed-size subrange of the simulated record set.
// End is exclusive; the final batch may be short.
type Batch struct {
	Index int // 0-based
	Start int
	End   int
}

// Size returns the number of records in the batch.
func (b Batch) Size() int {
	return b.End - b.Start
}

// BatchCallback processes one batch. Returning an error aborts the run.
type BatchCallback func(ctx context.Context, batch Batch) error

// ProgressCallback observes progress after each completed batch.
type ProgressCallback func(progress *Progress)

// Processor walks a synthetic record set in fixed-size batches. Records are
// never materialized; batches are index ranges over the record count.
type Processor struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size.
func NewProcessor(batchSize int) (*Processor, error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults creates a processor with the default batch size.
func NewProcessorWithDefaults() *Processor {
	return &Processor{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets a progress observer.
func (p *Processor) WithProgressCallback(callback ProgressCallback) *Processor {
	p.onProgress = callback
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor) BatchSize() int {
	return p.batchSize
}

// TotalBatches returns ceil(totalRecords / batchSize).
func (p *Processor) TotalBatches(totalRecords int) int {
	batches := totalRecords / p.batchSize
	if totalRecords%p.batchSize > 0 {
		batches++
	}
	return batches
}

// Batches returns the batch boundaries for the given record count.
func (p *Processor) Batches(totalRecords int) []Batch {
	total := p.TotalBatches(totalRecords)
	batches := make([]Batch, total)

	for i := 0; i < total; i++ {
		start := i * p.batchSize
		end := start + p.batchSize
		if end > totalRecords {
			end = totalRecords
		}
		batches[i] = Batch{Index: i, Start: start, End: end}
	}
	return batches
}

// Run processes totalRecords sequentially, one batch at a time, stopping on
// the first callback error or on context cancellation (reported as
// ErrInterrupted). A record count of zero completes immediately with zero
// batches.
func (p *Processor) Run(ctx context.Context, totalRecords int, callback BatchCallback) (*Progress, error) {
	if totalRecords < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeRecords, totalRecords)
	}
	if callback == nil {
		return nil, ErrNilCallback
	}

	totalBatches := p.TotalBatches(totalRecords)
	progress := NewProgress(totalRecords, totalBatches, p.batchSize)

	for _, batch := range p.Batches(totalRecords) {
		select {
		case <-ctx.Done():
			return progress, ErrInterrupted
		default:
		}

		if err := callback(ctx, batch); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrInterrupted) {
				return progress, ErrInterrupted
			}
			return progress, fmt.Errorf("batch %d failed: %w", batch.Index, err)
		}

		progress.AddProcessed(batch.Size())

		if p.onProgress != nil {
			p.onProgress(progress)
		}
	}

	return progress, nil
}
