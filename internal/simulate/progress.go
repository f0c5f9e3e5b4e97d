package simulate

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Progress tracks a running job's counters. It is safe for concurrent reads
// while the job advances it, which the console uses for live status.
//
// ProcessedRecords only ever grows and never exceeds TotalRecords.
type Progress struct {
	TotalRecords     int
	ProcessedRecords int
	SkippedRecords   int
	TotalBatches     int
	ProcessedBatches int
	BatchSize        int
	StartTime        time.Time
	LastUpdateTime   time.Time

	mu sync.RWMutex
}

// NewProgress creates a progress tracker for a job of the given shape.
func NewProgress(totalRecords, totalBatches, batchSize int) *Progress {
	now := time.Now()
	return &Progress{
		TotalRecords:   totalRecords,
		TotalBatches:   totalBatches,
		BatchSize:      batchSize,
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddProcessed advances the processed counters by one completed batch.
func (p *Progress) AddProcessed(records int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ProcessedRecords += records
	p.ProcessedBatches++
	p.LastUpdateTime = time.Now()
}

// AddSkipped counts records dropped by the validation warning branch.
// Skips are cosmetic and never affect the processed counters or exit status.
func (p *Progress) AddSkipped(records int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SkippedRecords += records
	p.LastUpdateTime = time.Now()
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.TotalRecords == 0 {
		return 0
	}
	return (float64(p.ProcessedRecords) / float64(p.TotalRecords)) * percentMultiplier
}

// IsComplete reports whether every record has been processed.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.ProcessedRecords >= p.TotalRecords
}

// ElapsedTime returns the time since the job started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return time.Since(p.StartTime)
}

// RecordsPerSecond returns the observed processing rate.
func (p *Progress) RecordsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.ProcessedRecords) / elapsed
}

// Snapshot returns an immutable copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var percent float64
	if p.TotalRecords > 0 {
		percent = (float64(p.ProcessedRecords) / float64(p.TotalRecords)) * percentMultiplier
	}

	return ProgressSnapshot{
		TotalRecords:     p.TotalRecords,
		ProcessedRecords: p.ProcessedRecords,
		SkippedRecords:   p.SkippedRecords,
		TotalBatches:     p.TotalBatches,
		ProcessedBatches: p.ProcessedBatches,
		BatchSize:        p.BatchSize,
		StartTime:        p.StartTime,
		LastUpdateTime:   p.LastUpdateTime,
		PercentComplete:  percent,
		ElapsedTime:      time.Since(p.StartTime),
	}
}

// ProgressSnapshot is an immutable view of progress state.
type ProgressSnapshot struct {
	TotalRecords     int
	ProcessedRecords int
	SkippedRecords   int
	TotalBatches     int
	ProcessedBatches int
	BatchSize        int
	StartTime        time.Time
	LastUpdateTime   time.Time
	PercentComplete  float64
	ElapsedTime      time.Duration
}
