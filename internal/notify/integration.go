package notify

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/runner"
)

// Integration bridges script lifecycle events to desktop notifications.
// Per-kind settings decide which events actually notify.
type Integration struct {
	mgr  *Manager
	bus  *events.Bus
	subs []events.Subscription
	log  zerolog.Logger
}

// NewIntegration subscribes a manager to the script lifecycle events on bus.
// Call Close to detach.
func NewIntegration(bus *events.Bus, mgr *Manager, logger zerolog.Logger) *Integration {
	i := &Integration{
		mgr: mgr,
		bus: bus,
		log: logger.With().Str("component", "notify").Logger(),
	}
	i.subs = []events.Subscription{
		bus.Subscribe(events.ScriptStarted, i.onStarted),
		bus.Subscribe(events.ScriptCompleted, i.onCompleted),
		bus.Subscribe(events.ScriptError, i.onError),
		bus.Subscribe(events.ScriptStopped, i.onStopped),
	}
	return i
}

// Close detaches the integration from the bus.
func (i *Integration) Close() {
	for _, sub := range i.subs {
		i.bus.Unsubscribe(sub)
	}
	i.subs = nil
}

func (i *Integration) onStarted(ev events.Event) {
	payload, ok := ev.Payload.(runner.Event)
	if !ok || !i.mgr.settings.OnStart {
		return
	}
	name := FormatScriptName(payload.Script)
	i.send(KindStart, "Script Started", name+" has begun execution")
}

func (i *Integration) onCompleted(ev events.Event) {
	payload, ok := ev.Payload.(runner.Event)
	if !ok || !i.mgr.settings.OnSuccess {
		return
	}
	name := FormatScriptName(payload.Script)
	i.send(KindSuccess, "Script Completed Successfully", name+" finished without errors")
}

func (i *Integration) onError(ev events.Event) {
	payload, ok := ev.Payload.(runner.Event)
	if !ok || !i.mgr.settings.OnError {
		return
	}
	name := FormatScriptName(payload.Script)

	var message string
	if payload.Result.Err != nil {
		errMsg := payload.Result.Err.Error()
		if len(errMsg) > maxErrorLength {
			errMsg = errMsg[:maxErrorLength-3] + "..."
		}
		message = fmt.Sprintf("%s failed: %s", name, errMsg)
	} else {
		message = fmt.Sprintf("%s failed with exit code %d", name, payload.Result.ExitCode)
	}
	i.send(KindError, "Script Error", message)
}

func (i *Integration) onStopped(ev events.Event) {
	payload, ok := ev.Payload.(runner.Event)
	if !ok || !i.mgr.settings.OnStopped {
		return
	}
	name := FormatScriptName(payload.Script)
	i.send(KindWarning, "Script Stopped", name+" was stopped by user")
}

func (i *Integration) send(kind Kind, title, message string) {
	if err := i.mgr.Send(kind, title, message); err != nil {
		i.log.Debug().Err(err).Str("kind", string(kind)).Msg("event notification skipped")
	}
}
