package wish

import (
	"fmt"
	"strings"
)

// EventType is the kind of a synthesized input event.
type EventType int

const (
	KeyPress EventType = iota + 1
	KeyRelease
	ButtonPress
	ButtonRelease
)

func (t EventType) String() string {
	switch t {
	case KeyPress:
		return "key-press"
	case KeyRelease:
		return "key-release"
	case ButtonPress:
		return "button-press"
	case ButtonRelease:
		return "button-release"
	default:
		return "unknown"
	}
}

// Event is one synthesized key or button transition.
type Event struct {
	Type EventType
	Code uint8
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d)", e.Type, e.Code)
}

// Action is an immutable, ordered sequence of input events.
type Action struct {
	events []Event
}

// KeyAction presses the modifiers in order, taps key, then releases the
// modifiers in reverse order.
func KeyAction(key uint8, modifiers ...uint8) Action {
	return build(KeyPress, KeyRelease, key, modifiers)
}

// ButtonAction is KeyAction with a pointer button as the primary. Modifiers
// remain keyboard keys.
func ButtonAction(button uint8, modifiers ...uint8) Action {
	return build(ButtonPress, ButtonRelease, button, modifiers)
}

func build(press, release EventType, primary uint8, modifiers []uint8) Action {
	events := make([]Event, 0, 2*len(modifiers)+2)
	for _, mod := range modifiers {
		events = append(events, Event{Type: KeyPress, Code: mod})
	}
	events = append(events, Event{Type: press, Code: primary}, Event{Type: release, Code: primary})
	for i := len(modifiers) - 1; i >= 0; i-- {
		events = append(events, Event{Type: KeyRelease, Code: modifiers[i]})
	}
	return Action{events: events}
}

// Events returns a copy of the action's event sequence.
func (a Action) Events() []Event {
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

func (a Action) Len() int { return len(a.events) }

func (a Action) Empty() bool { return len(a.events) == 0 }

func (a Action) String() string {
	parts := make([]string, len(a.events))
	for i, ev := range a.events {
		parts[i] = ev.String()
	}
	return strings.Join(parts, " ")
}
