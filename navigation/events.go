package navigation

import (
	"fmt"
	"log/slog"
)

// EventKind identifies what happened.
type EventKind int

const (
	// KeyUp is a key released anywhere in the window.
	KeyUp EventKind = iota
	// QueryKeyUp is a key released while typing in the query input.
	// It fires before the KeyUp of the same key.
	QueryKeyUp
	// Click is a mouse click.
	Click
)

func (k EventKind) String() string {
	switch k {
	case KeyUp:
		return "keyup"
	case QueryKeyUp:
		return "query-keyup"
	case Click:
		return "click"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Target describes the element an event happened on.
type Target struct {
	Tag   string // input, textarea, li, div ...
	ID    string
	Class string
}

// IsTextInput reports whether the target takes typed text.
func (t Target) IsTextInput() bool {
	return t.Tag == "input" || t.Tag == "textarea"
}

// Event is delivered to the handlers registered for its Kind.
type Event struct {
	Kind   EventKind
	Code   string // key name for key events
	Query  string // query input value for QueryKeyUp
	Target Target
}

// Handler handles one event. A returned error means nothing was changed.
type Handler func(Event) error

// Bus delivers events to handlers synchronously, in registration order.
// Every handler runs inside its own fault boundary: errors and panics are
// logged and the next handler still runs.
type Bus struct {
	handlers map[EventKind][]Handler
	log      *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler), log: log}
}

// On registers h for events of kind.
func (b *Bus) On(kind EventKind, h Handler) {
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Off drops every handler.
func (b *Bus) Off() {
	b.handlers = make(map[EventKind][]Handler)
}

// Dispatch runs the handlers of ev.Kind and returns how many of them failed.
func (b *Bus) Dispatch(ev Event) int {
	failed := 0
	for _, h := range b.handlers[ev.Kind] {
		if err := b.run(h, ev); err != nil {
			failed++
			b.log.Warn("event_handler_failed", "event", ev.Kind.String(), "code", ev.Code, "error", err)
		}
	}
	return failed
}

func (b *Bus) run(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ev)
}
