package hal

import "marcher/render"

type hostHAL struct {
	backend render.Backend
	disp    *hostDisplay
	in      *hostInput
}

func newHostHAL(b render.Backend, w, h int) *hostHAL {
	return &hostHAL{
		backend: b,
		disp:    &hostDisplay{w: w, h: h, overlay: NewOverlay(w, h)},
		in:      &hostInput{ch: make(chan Event, 64)},
	}
}

func (h *hostHAL) Backend() render.Backend { return h.backend }
func (h *hostHAL) Display() Display        { return h.disp }
func (h *hostHAL) Input() Input            { return h.in }

type hostDisplay struct {
	w, h    int
	overlay *Overlay
}

func (d *hostDisplay) Size() (int, int)  { return d.w, d.h }
func (d *hostDisplay) Overlay() *Overlay { return d.overlay }

// resize records a new viewport size and reports whether it changed.
func (d *hostDisplay) resize(w, h int) bool {
	if w == d.w && h == d.h {
		return false
	}
	d.w, d.h = w, h
	d.overlay.Resize(w, h)
	return true
}

type hostInput struct {
	ch chan Event
}

func (in *hostInput) Events() <-chan Event { return in.ch }

// emit queues ev, dropping it if the application is not keeping up.
func (in *hostInput) emit(ev Event) {
	select {
	case in.ch <- ev:
	default:
	}
}
