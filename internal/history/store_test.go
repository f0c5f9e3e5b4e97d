package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobear/autobear/internal/runner"
)

func TestBeginFinishPersistsRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 0)

	pending := store.Begin("Simulation", "")
	assert.Len(t, pending.RunID(), 26, "run IDs are ULIDs")
	assert.False(t, pending.StartTime().IsZero())

	rec, err := pending.Finish(runner.StatusSuccess, 0, "")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusSuccess, rec.Status)
	assert.Equal(t, "Simulation", rec.ScriptName)
	assert.GreaterOrEqual(t, rec.DurationSecs, 0.0)

	runs, err := store.ForScript("Simulation")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, pending.RunID(), runs[0].RunID)

	// The document survives a fresh store.
	reopened := NewStore(dir, 0)
	runs, err = reopened.ForScript("Simulation")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runner.StatusSuccess, runs[0].Status)
}

func TestFinishFromResult(t *testing.T) {
	store := NewStore(t.TempDir(), 0)

	pending := store.Begin("Job", "job.py")
	rec, err := pending.FinishFromResult(runner.RunResult{
		Status:   runner.StatusError,
		ExitCode: 3,
		Err:      assert.AnError,
	})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusError, rec.Status)
	assert.Equal(t, 3, rec.ExitCode)
	assert.Equal(t, assert.AnError.Error(), rec.ErrorMessage)
}

func TestAppendCapsRunsPerScript(t *testing.T) {
	store := NewStore(t.TempDir(), 5)

	for i := 0; i < 8; i++ {
		err := store.Append(Record{
			RunID:      string(rune('a' + i)),
			ScriptName: "Job",
			Status:     runner.StatusSuccess,
		})
		require.NoError(t, err)
	}

	runs, err := store.ForScript("Job")
	require.NoError(t, err)
	require.Len(t, runs, 5)
	assert.Equal(t, "d", runs[0].RunID, "oldest surviving run")
	assert.Equal(t, "h", runs[4].RunID, "most recent run")
}

func TestAppendRequiresScriptName(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	err := store.Append(Record{Status: runner.StatusSuccess})
	assert.Error(t, err)
}

func TestLastRun(t *testing.T) {
	store := NewStore(t.TempDir(), 0)

	_, err := store.LastRun("Job")
	assert.ErrorIs(t, err, ErrNoRuns)

	require.NoError(t, store.Append(Record{RunID: "one", ScriptName: "Job"}))
	require.NoError(t, store.Append(Record{RunID: "two", ScriptName: "Job"}))

	rec, err := store.LastRun("Job")
	require.NoError(t, err)
	assert.Equal(t, "two", rec.RunID)
}

func TestScriptStats(t *testing.T) {
	store := NewStore(t.TempDir(), 0)

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	runs := []Record{
		{ScriptName: "Job", Status: runner.StatusSuccess, EndTime: base, DurationSecs: 2},
		{ScriptName: "Job", Status: runner.StatusError, EndTime: base.Add(time.Hour), DurationSecs: 4},
		{ScriptName: "Job", Status: runner.StatusStopped, EndTime: base.Add(2 * time.Hour), DurationSecs: 6},
		{ScriptName: "Job", Status: runner.StatusSuccess, EndTime: base.Add(3 * time.Hour), DurationSecs: 8},
	}
	for _, rec := range runs {
		require.NoError(t, store.Append(rec))
	}

	stats, err := store.ScriptStats("Job")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRuns)
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.001)
	assert.InDelta(t, 5.0, stats.AvgDurationSecs, 0.001)
	require.NotNil(t, stats.LastSuccess)
	assert.True(t, stats.LastSuccess.Equal(base.Add(3*time.Hour)))
	require.NotNil(t, stats.LastFailure)
	assert.True(t, stats.LastFailure.Equal(base.Add(time.Hour)))
}

func TestScriptStatsEmpty(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	stats, err := store.ScriptStats("Nothing")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestCorruptedFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 0)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	runs, err := store.ForScript("Job")
	require.NoError(t, err)
	assert.Empty(t, runs)

	// New runs can still be recorded over the corrupted document.
	require.NoError(t, store.Append(Record{RunID: "one", ScriptName: "Job"}))
	reopened := NewStore(dir, 0)
	runs, err = reopened.ForScript("Job")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClear(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	require.NoError(t, store.Append(Record{RunID: "a", ScriptName: "Job"}))
	require.NoError(t, store.Append(Record{RunID: "b", ScriptName: "Other"}))

	require.NoError(t, store.Clear("Job"))
	runs, err := store.ForScript("Job")
	require.NoError(t, err)
	assert.Empty(t, runs)

	others, err := store.ForScript("Other")
	require.NoError(t, err)
	assert.Len(t, others, 1)

	assert.NoError(t, store.Clear("Never Ran"))
}

func TestClearAll(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	require.NoError(t, store.Append(Record{RunID: "a", ScriptName: "Job"}))
	require.NoError(t, store.Append(Record{RunID: "b", ScriptName: "Other"}))

	require.NoError(t, store.ClearAll())
	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	names, err := store.ScriptNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestScriptNamesSorted(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, store.Append(Record{RunID: name, ScriptName: name}))
	}

	names, err := store.ScriptNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, names)
}

func TestAllReturnsCopies(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	require.NoError(t, store.Append(Record{RunID: "a", ScriptName: "Job"}))

	all, err := store.All()
	require.NoError(t, err)
	all["Job"][0].RunID = "tampered"
	delete(all, "Job")

	runs, err := store.ForScript("Job")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].RunID)
}

func TestDocumentShape(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 0)
	require.NoError(t, store.Append(Record{RunID: "a", ScriptName: "Job", Status: runner.StatusSuccess}))

	path := filepath.Join(dir, "execution_history.json")
	assert.Equal(t, path, store.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n', "document ends with newline")

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "Job")
	assert.Equal(t, "a", doc["Job"][0]["run_id"])
	assert.Equal(t, "success", doc["Job"][0]["status"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLastRunDisplay(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	require.NoError(t, store.Append(Record{
		RunID:      "a",
		ScriptName: "Job",
		Status:     runner.StatusSuccess,
		EndTime:    time.Now(),
	}))

	display, status, err := store.LastRunDisplay("Job")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusSuccess, status)
	assert.Contains(t, display, "Today at ")

	_, _, err = store.LastRunDisplay("Never Ran")
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestFormatLastRun(t *testing.T) {
	// A Monday afternoon.
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{
			name: "same day",
			end:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local),
			want: "Today at 10:00 AM",
		},
		{
			name: "previous day",
			end:  time.Date(2024, 1, 14, 15, 4, 0, 0, time.Local),
			want: "Yesterday at 3:04 PM",
		},
		{
			name: "within a week",
			end:  time.Date(2024, 1, 12, 9, 5, 0, 0, time.Local),
			want: "Friday at 9:05 AM",
		},
		{
			name: "older than a week",
			end:  time.Date(2023, 12, 1, 15, 4, 0, 0, time.Local),
			want: "2023-12-01 3:04 PM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatLastRun(tt.end, now))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0.25, "250ms"},
		{1.5, "1.5s"},
		{42.04, "42.0s"},
		{90, "1m30s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.secs))
	}
}

func TestRecordDuration(t *testing.T) {
	rec := Record{DurationSecs: 2.5}
	assert.Equal(t, 2500*time.Millisecond, rec.Duration())
}
