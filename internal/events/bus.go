// Package events provides an in-process publish/subscribe bus that decouples
// the runner from the console, history, and notification layers.
package events

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Event names used across the application.
const (
	ScriptStarted   = "script.started"
	ScriptStopped   = "script.stopped"
	ScriptCompleted = "script.completed"
	ScriptError     = "script.error"
	ScriptOutput    = "script.output"
	OutputCleared   = "output.cleared"
	OutputExported  = "output.exported"
	StatusChanged   = "status.changed"
	AppClosing      = "app.closing"
)

// Event is delivered to every handler subscribed to its name.
type Event struct {
	Name    string
	Payload any
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type Handler func(Event)

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	event string
	id    uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

// Bus is a threadsafe event dispatcher. The zero value is not usable; use
// NewBus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscriber
	log    zerolog.Logger
}

// NewBus returns an empty bus that discards diagnostics.
func NewBus() *Bus {
	return NewBusWithLogger(zerolog.Nop())
}

// NewBusWithLogger returns an empty bus logging handler panics and dispatch
// traces to log.
func NewBusWithLogger(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[string][]subscriber),
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers fn for the named event and returns a token for
// Unsubscribe.
func (b *Bus) Subscribe(name string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[name] = append(b.subs[name], subscriber{id: b.nextID, fn: fn})
	return Subscription{event: name, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. It returns false when
// the subscription is unknown or already removed.
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, ok := b.subs[sub.event]
	if !ok {
		return false
	}
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.event] = append(list[:i:i], list[i+1:]...)
			if len(b.subs[sub.event]) == 0 {
				delete(b.subs, sub.event)
			}
			return true
		}
	}
	return false
}

// Publish delivers the event to all current subscribers of name. The handler
// list is snapshotted first, so handlers may subscribe or unsubscribe without
// affecting this dispatch. A panicking handler is recovered and logged; the
// remaining handlers still run.
func (b *Bus) Publish(name string, payload any) {
	b.mu.RLock()
	snapshot := make([]subscriber, len(b.subs[name]))
	copy(snapshot, b.subs[name])
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	ev := Event{Name: name, Payload: payload}
	for _, s := range snapshot {
		b.dispatch(s, ev)
	}
}

func (b *Bus) dispatch(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", ev.Name).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.fn(ev)
}

// HasSubscribers reports whether any handler is registered for name.
func (b *Bus) HasSubscribers(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name]) > 0
}

// SubscriberCount returns the number of handlers registered for name.
func (b *Bus) SubscriberCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// EventNames returns the sorted names that currently have subscribers.
func (b *Bus) EventNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs))
	for name := range b.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every handler for name. It returns false when the event had
// no subscribers.
func (b *Bus) Clear(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[name]; !ok {
		return false
	}
	delete(b.subs, name)
	return true
}

// ClearAll removes every handler for every event.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]subscriber)
}
