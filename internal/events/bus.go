// Package events routes typed notifications between the daemon's components.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an event bus with its own dispatcher.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish delivers an event to all subscribers of its concrete type.
// Handlers run asynchronously on dispatcher goroutines.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case PickerUpdateEvent:
		event.Publish(b.dispatcher, e)
	case SessionStateEvent:
		event.Publish(b.dispatcher, e)
	case ConfigChangeEvent:
		event.Publish(b.dispatcher, e)
	case EngineNoticeEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler for the event type named by its parameter.
// Returns an unsubscribe function. Unrecognized handler types are ignored.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PickerUpdateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigChangeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EngineNoticeEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
