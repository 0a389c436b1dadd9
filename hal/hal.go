// Package hal is the host layer: window or headless loop, input, display
// and the render backends.
package hal

import (
	"errors"

	"marcher/render"
)

// ErrQuit is returned by an application step to end the host loop
// cleanly.
var ErrQuit = errors.New("quit")

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyS
	KeyEscape
)

// KeyEvent is a keyboard event. Text input arrives with Code KeyUnknown
// and the typed Rune.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// EventKind tells which fields of an Event are set.
type EventKind uint8

const (
	EventKey EventKind = iota + 1
	EventScroll
	EventResize
)

// Event is one input or window event.
type Event struct {
	Kind EventKind

	Key KeyEvent

	// ScrollX and ScrollY are wheel offsets for EventScroll.
	ScrollX, ScrollY float64

	// Width and Height are the new viewport size for EventResize.
	Width, Height int
}

// Input provides input events (best-effort on each platform).
type Input interface {
	Events() <-chan Event
}

// Display is where presented frames end up.
type Display interface {
	// Size returns the current viewport size.
	Size() (w, h int)
	// Overlay returns the text layer drawn over presented frames.
	Overlay() *Overlay
}

// HAL provides the only contact point between the application and the
// outside world.
type HAL interface {
	Backend() render.Backend
	Display() Display
	Input() Input
}
