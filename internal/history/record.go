// Package history persists script execution records and derives per-script
// statistics. Records live in one JSON document mapping script names to
// ordered run lists, capped at a configurable number of recent runs each.
package history

import (
	"fmt"
	"time"

	"github.com/autobear/autobear/internal/runner"
)

// Record is one completed script execution.
type Record struct {
	RunID        string        `json:"run_id"`
	ScriptName   string        `json:"script_name"`
	ScriptPath   string        `json:"script_path,omitempty"`
	Status       runner.Status `json:"status"`
	ExitCode     int           `json:"exit_code"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	DurationSecs float64       `json:"duration"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Duration returns the run duration.
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationSecs * float64(time.Second))
}

// Stats summarizes a script's run history.
type Stats struct {
	TotalRuns       int        `json:"total_runs"`
	SuccessRate     float64    `json:"success_rate"` // percent, 0-100
	AvgDurationSecs float64    `json:"avg_duration"`
	LastSuccess     *time.Time `json:"last_success,omitempty"`
	LastFailure     *time.Time `json:"last_failure,omitempty"`
}

// computeStats derives Stats from an ordered run list (oldest first).
func computeStats(records []Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	var successes int
	var totalDuration float64
	for _, rec := range records {
		if rec.Status == runner.StatusSuccess {
			successes++
		}
		totalDuration += rec.DurationSecs
	}

	stats := Stats{
		TotalRuns:       len(records),
		SuccessRate:     float64(successes) / float64(len(records)) * 100,
		AvgDurationSecs: totalDuration / float64(len(records)),
	}

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		switch rec.Status {
		case runner.StatusSuccess:
			if stats.LastSuccess == nil {
				end := rec.EndTime
				stats.LastSuccess = &end
			}
		case runner.StatusError:
			if stats.LastFailure == nil {
				end := rec.EndTime
				stats.LastFailure = &end
			}
		case runner.StatusStopped:
			// Stops count toward neither streak.
		}
		if stats.LastSuccess != nil && stats.LastFailure != nil {
			break
		}
	}
	return stats
}

// formatLastRun renders a run end time relative to now: "Today at 3:04 PM",
// "Yesterday at 3:04 PM", a weekday form inside a week, or the date.
func formatLastRun(end, now time.Time) string {
	end = end.Local()
	endY, endM, endD := end.Date()
	nowY, nowM, nowD := now.Date()

	if endY == nowY && endM == nowM && endD == nowD {
		return end.Format("Today at 3:04 PM")
	}

	yesterday := now.AddDate(0, 0, -1)
	yY, yM, yD := yesterday.Date()
	if endY == yY && endM == yM && endD == yD {
		return end.Format("Yesterday at 3:04 PM")
	}

	if now.Sub(end) < 7*24*time.Hour {
		return end.Format("Monday at 3:04 PM")
	}

	return end.Format("2006-01-02 3:04 PM")
}

// FormatDuration renders seconds for display, switching units as the value
// grows.
func FormatDuration(secs float64) string {
	d := time.Duration(secs * float64(time.Second))
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
