package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(ClockEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the static type, so switch to the concrete one
	switch e := ev.(type) {
	case ClockEvent:
		event.Publish(b.dispatcher, e)
	case SunsetEvent:
		event.Publish(b.dispatcher, e)
	case ConfigUpdateEvent:
		event.Publish(b.dispatcher, e)
	case LightsStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e SunsetEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ClockEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SunsetEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigUpdateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LightsStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// Close stops the dispatcher's delivery goroutines.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
