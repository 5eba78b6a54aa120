package events

import "byobmarket/core/types"

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder is an Emitter that retains every emitted event in order. Tests use
// it to assert on the event stream produced by a sequence of operations.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// Typed returns the recorded events matching the given type.
func (r *Recorder) Typed(eventType string) []Event {
	if r == nil {
		return nil
	}
	var matched []Event
	for _, evt := range r.Events {
		if evt.EventType() == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}

// Payload extracts the underlying typed event, if the emitted value carries
// one. Engines wrap *types.Event values so subscribers can reach the
// attributes without knowing the wrapper type.
func Payload(evt Event) *types.Event {
	type carrier interface {
		Event() *types.Event
	}
	if c, ok := evt.(carrier); ok {
		return c.Event()
	}
	return nil
}
