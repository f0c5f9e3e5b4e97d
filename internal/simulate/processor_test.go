package simulate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessor(t *testing.T) {
	t.Run("valid batch size", func(t *testing.T) {
		p, err := NewProcessor(10)
		require.NoError(t, err)
		assert.Equal(t, 10, p.BatchSize())
	})

	t.Run("zero batch size rejected", func(t *testing.T) {
		_, err := NewProcessor(0)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	})

	t.Run("oversized batch rejected", func(t *testing.T) {
		_, err := NewProcessor(MaxBatchSize + 1)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	})

	t.Run("defaults", func(t *testing.T) {
		p := NewProcessorWithDefaults()
		assert.Equal(t, DefaultBatchSize, p.BatchSize())
	})
}

func TestTotalBatches(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		batchSize int
		want      int
	}{
		{name: "exact multiple", records: 1000, batchSize: 100, want: 10},
		{name: "remainder adds a batch", records: 101, batchSize: 100, want: 2},
		{name: "25 records in batches of 10", records: 25, batchSize: 10, want: 3},
		{name: "single short batch", records: 99, batchSize: 100, want: 1},
		{name: "one record", records: 1, batchSize: 100, want: 1},
		{name: "zero records", records: 0, batchSize: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProcessor(tt.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.TotalBatches(tt.records))
		})
	}
}

func TestBatchesBoundaries(t *testing.T) {
	p, err := NewProcessor(10)
	require.NoError(t, err)

	batches := p.Batches(25)
	require.Len(t, batches, 3)

	assert.Equal(t, Batch{Index: 0, Start: 0, End: 10}, batches[0])
	assert.Equal(t, Batch{Index: 1, Start: 10, End: 20}, batches[1])
	assert.Equal(t, Batch{Index: 2, Start: 20, End: 25}, batches[2])
	assert.Equal(t, 5, batches[2].Size())
}

func TestProcessorRun(t *testing.T) {
	p, err := NewProcessor(10)
	require.NoError(t, err)

	var calls atomic.Int32
	progress, err := p.Run(context.Background(), 25, func(_ context.Context, batch Batch) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	snap := progress.Snapshot()
	assert.Equal(t, 25, snap.ProcessedRecords)
	assert.Equal(t, 3, snap.ProcessedBatches)
	assert.True(t, progress.IsComplete())
	assert.InDelta(t, 100.0, snap.PercentComplete, 0.001)
}

func TestProcessorRunZeroRecords(t *testing.T) {
	p := NewProcessorWithDefaults()

	var calls atomic.Int32
	progress, err := p.Run(context.Background(), 0, func(context.Context, Batch) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, progress.Snapshot().ProcessedRecords)
}

func TestProcessorRunValidation(t *testing.T) {
	p := NewProcessorWithDefaults()

	t.Run("negative records", func(t *testing.T) {
		_, err := p.Run(context.Background(), -1, func(context.Context, Batch) error { return nil })
		assert.ErrorIs(t, err, ErrNegativeRecords)
	})

	t.Run("nil callback", func(t *testing.T) {
		_, err := p.Run(context.Background(), 10, nil)
		assert.ErrorIs(t, err, ErrNilCallback)
	})
}

func TestProcessorRunStopsOnError(t *testing.T) {
	p, err := NewProcessor(10)
	require.NoError(t, err)

	boom := errors.New("boom")
	var calls atomic.Int32
	progress, err := p.Run(context.Background(), 30, func(_ context.Context, batch Batch) error {
		calls.Add(1)
		if batch.Index == 1 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), calls.Load())
	// Only the first batch completed.
	assert.Equal(t, 10, progress.Snapshot().ProcessedRecords)
}

func TestProcessorRunCancellation(t *testing.T) {
	p, err := NewProcessor(10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	progress, err := p.Run(ctx, 100, func(context.Context, Batch) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 30, progress.Snapshot().ProcessedRecords)
	assert.False(t, progress.IsComplete())
}

func TestProgressCallbackObservesMonotonicCounts(t *testing.T) {
	var seen []int
	p, err := NewProcessor(10)
	require.NoError(t, err)
	p.WithProgressCallback(func(progress *Progress) {
		seen = append(seen, progress.Snapshot().ProcessedRecords)
	})

	_, err = p.Run(context.Background(), 35, func(context.Context, Batch) error { return nil })
	require.NoError(t, err)

	require.Equal(t, []int{10, 20, 30, 35}, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestProgressSkippedTracking(t *testing.T) {
	progress := NewProgress(100, 10, 10)
	progress.AddProcessed(10)
	progress.AddSkipped(3)

	snap := progress.Snapshot()
	assert.Equal(t, 10, snap.ProcessedRecords)
	assert.Equal(t, 3, snap.SkippedRecords)
	assert.Equal(t, 1, snap.ProcessedBatches)
}
