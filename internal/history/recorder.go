package history

import (
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/runner"
)

// PathResolver maps a script name to its registered path for the record.
// Returning "" leaves the path off the record.
type PathResolver func(scriptName string) string

// Recorder bridges script lifecycle events to the store so console sessions
// persist runs the same way the run command does. One record is appended per
// terminal event, built entirely from the runner's result.
type Recorder struct {
	store   *Store
	bus     *events.Bus
	resolve PathResolver
	subs    []events.Subscription
	log     zerolog.Logger
}

// NewRecorder subscribes a recorder to the terminal script events on bus.
// Call Close to detach. A nil resolve is allowed.
func NewRecorder(bus *events.Bus, store *Store, resolve PathResolver, logger zerolog.Logger) *Recorder {
	r := &Recorder{
		store:   store,
		bus:     bus,
		resolve: resolve,
		log:     logger.With().Str("component", "history").Logger(),
	}
	r.subs = []events.Subscription{
		bus.Subscribe(events.ScriptCompleted, r.onFinished),
		bus.Subscribe(events.ScriptError, r.onFinished),
		bus.Subscribe(events.ScriptStopped, r.onFinished),
	}
	return r
}

// Close detaches the recorder from the bus.
func (r *Recorder) Close() {
	for _, sub := range r.subs {
		r.bus.Unsubscribe(sub)
	}
	r.subs = nil
}

func (r *Recorder) onFinished(ev events.Event) {
	payload, ok := ev.Payload.(runner.Event)
	if !ok {
		return
	}
	res := payload.Result

	rec := Record{
		RunID:        ulid.Make().String(),
		ScriptName:   payload.Script,
		Status:       res.Status,
		ExitCode:     res.ExitCode,
		StartTime:    res.StartTime,
		EndTime:      res.EndTime,
		DurationSecs: res.Duration().Seconds(),
	}
	if r.resolve != nil {
		rec.ScriptPath = r.resolve(payload.Script)
	}
	if res.Err != nil {
		rec.ErrorMessage = res.Err.Error()
	}

	if err := r.store.Append(rec); err != nil {
		r.log.Warn().Err(err).Str("script", payload.Script).Msg("recording run failed")
		return
	}
	r.log.Debug().
		Str("script", payload.Script).
		Str("run_id", rec.RunID).
		Str("status", string(rec.Status)).
		Msg("run recorded")
}
