// Package events is the observer surface Task, Job and Scheduler emit
// their lifecycle notifications through: a subscriber names an event and
// supplies a callback receiving one payload. The emitter mechanism is
// the one piece of "event-emitter plumbing" this module owns outright;
// what's attached to it (a progress bar, a log line) is someone else's
// concern.
package events

import "sync"

// Handler receives a single event payload. Payload shapes are enumerated
// per-component (task.ProgressPayload, job.ProgressPayload, and so on).
type Handler func(payload any)

// Subscription identifies one registered handler so it can be detached
// individually, without disturbing other subscribers of the same event.
type Subscription struct {
	event string
	id    int64
}

type entry struct {
	id      int64
	handler Handler
}

// Emitter is a minimal publish/subscribe surface. The zero value is not
// usable; construct with New.
type Emitter struct {
	mu       sync.Mutex
	handlers map[string][]entry
	nextID   int64
}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{handlers: make(map[string][]entry)}
}

// On registers handler for event, in registration order relative to any
// other handler already registered for the same event.
func (e *Emitter) On(event string, handler Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], entry{id: id, handler: handler})
	return Subscription{event: event, id: id}
}

// Off detaches a single subscription returned by On. Detaching a
// subscription that was already removed (or never existed) is a no-op.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := e.handlers[sub.event]
	for i, en := range entries {
		if en.id == sub.id {
			e.handlers[sub.event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Clear removes every handler for every event.
func (e *Emitter) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[string][]entry)
}

// Emit invokes every handler registered for event, in registration order,
// with payload. The handler slice is snapshotted before dispatch so a
// handler may call Off or register a new handler on the same event
// without disturbing the in-flight iteration.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.Lock()
	snapshot := make([]Handler, len(e.handlers[event]))
	for i, en := range e.handlers[event] {
		snapshot[i] = en.handler
	}
	e.mu.Unlock()

	for _, h := range snapshot {
		h(payload)
	}
}
