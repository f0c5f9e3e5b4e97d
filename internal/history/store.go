package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/autobear/autobear/internal/runner"
)

const (
	// DefaultMaxRuns caps how many runs are kept per script.
	DefaultMaxRuns = 100

	historyFileName = "execution_history.json"
)

// ErrNoRuns indicates a script has no recorded executions.
var ErrNoRuns = errors.New("no recorded runs")

// Store reads and writes the execution history document. All methods are
// safe for concurrent use. The document is loaded lazily and kept in memory
// between writes.
type Store struct {
	mu      sync.Mutex
	dir     string
	maxRuns int
	log     zerolog.Logger
	runs    map[string][]Record // nil until loaded
}

// NewStore creates a store rooted at dir. A maxRuns of zero or less falls
// back to DefaultMaxRuns.
func NewStore(dir string, maxRuns int) *Store {
	return NewStoreWithLogger(dir, maxRuns, zerolog.Nop())
}

// NewStoreWithLogger creates a store that reports recoverable problems, such
// as a corrupted history file, through logger.
func NewStoreWithLogger(dir string, maxRuns int, logger zerolog.Logger) *Store {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	return &Store{
		dir:     dir,
		maxRuns: maxRuns,
		log:     logger.With().Str("component", "history").Logger(),
	}
}

// Path returns the location of the history document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, historyFileName)
}

// Begin records the start of a run and returns a handle used to finish it.
// Nothing is persisted until Finish is called.
func (s *Store) Begin(scriptName, scriptPath string) *PendingRun {
	return &PendingRun{
		store: s,
		record: Record{
			RunID:      ulid.Make().String(),
			ScriptName: scriptName,
			ScriptPath: scriptPath,
			StartTime:  time.Now(),
		},
	}
}

// PendingRun tracks an execution between Begin and Finish.
type PendingRun struct {
	store  *Store
	record Record
}

// RunID returns the identifier minted for this run.
func (p *PendingRun) RunID() string {
	return p.record.RunID
}

// StartTime returns when the run began.
func (p *PendingRun) StartTime() time.Time {
	return p.record.StartTime
}

// Finish completes the run and persists it.
func (p *PendingRun) Finish(status runner.Status, exitCode int, errMsg string) (Record, error) {
	rec := p.record
	rec.EndTime = time.Now()
	rec.DurationSecs = rec.EndTime.Sub(rec.StartTime).Seconds()
	rec.Status = status
	rec.ExitCode = exitCode
	rec.ErrorMessage = errMsg

	if err := p.store.Append(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// FinishFromResult completes the run using a runner result.
func (p *PendingRun) FinishFromResult(res runner.RunResult) (Record, error) {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	return p.Finish(res.Status, res.ExitCode, errMsg)
}

// Append adds a completed record, trimming the script's list to the
// configured cap, and saves the document.
func (s *Store) Append(rec Record) error {
	if rec.ScriptName == "" {
		return errors.New("record has no script name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	runs := append(s.runs[rec.ScriptName], rec)
	if len(runs) > s.maxRuns {
		runs = runs[len(runs)-s.maxRuns:]
	}
	s.runs[rec.ScriptName] = runs

	return s.saveLocked()
}

// ForScript returns a script's runs, oldest first. The returned slice is a
// copy.
func (s *Store) ForScript(name string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	runs := s.runs[name]
	out := make([]Record, len(runs))
	copy(out, runs)
	return out, nil
}

// LastRun returns a script's most recent run.
func (s *Store) LastRun(name string) (Record, error) {
	runs, err := s.ForScript(name)
	if err != nil {
		return Record{}, err
	}
	if len(runs) == 0 {
		return Record{}, ErrNoRuns
	}
	return runs[len(runs)-1], nil
}

// LastRunDisplay returns a friendly description of the most recent run,
// such as "Today at 3:04 PM", along with its status.
func (s *Store) LastRunDisplay(name string) (string, runner.Status, error) {
	rec, err := s.LastRun(name)
	if err != nil {
		return "", "", err
	}
	return formatLastRun(rec.EndTime, time.Now()), rec.Status, nil
}

// ScriptStats computes summary statistics for a script.
func (s *Store) ScriptStats(name string) (Stats, error) {
	runs, err := s.ForScript(name)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(runs), nil
}

// ScriptNames returns every script with recorded runs, sorted.
func (s *Store) ScriptNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.runs))
	for name := range s.runs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// All returns a copy of the full history document.
func (s *Store) All() (map[string][]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	out := make(map[string][]Record, len(s.runs))
	for name, runs := range s.runs {
		cp := make([]Record, len(runs))
		copy(cp, runs)
		out[name] = cp
	}
	return out, nil
}

// Clear removes one script's history. Clearing an unknown script is not an
// error.
func (s *Store) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	if _, ok := s.runs[name]; !ok {
		return nil
	}
	delete(s.runs, name)
	return s.saveLocked()
}

// ClearAll removes every recorded run.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string][]Record)
	return s.saveLocked()
}

// loadLocked reads the history document once. A missing file yields an empty
// document. A corrupted file is logged and treated as empty rather than
// blocking new runs.
func (s *Store) loadLocked() error {
	if s.runs != nil {
		return nil
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			s.runs = make(map[string][]Record)
			return nil
		}
		return fmt.Errorf("reading history: %w", err)
	}

	var runs map[string][]Record
	if err := json.Unmarshal(data, &runs); err != nil {
		s.log.Warn().Err(err).Str("path", s.Path()).Msg("History file is corrupted, starting fresh")
		s.runs = make(map[string][]Record)
		return nil
	}
	if runs == nil {
		runs = make(map[string][]Record)
	}
	s.runs = runs
	return nil
}

// saveLocked writes the document atomically via a temp file rename.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := json.MarshalIndent(s.runs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	data = append(data, '\n')

	path := s.Path()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}
