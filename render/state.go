package render

import "github.com/go-gl/mathgl/mgl32"

// FrameState is the externally controlled input of a frame.
//
// It is a comparable value: two states are the same state exactly when ==
// holds, whatever produced them.
type FrameState struct {
	CameraPosition  mgl32.Vec3
	CameraDirection mgl32.Vec3
	ScrollX         float32
	ScrollY         float32
}

// StateSource supplies the current FrameState on demand.
type StateSource interface {
	State() FrameState
}

// StateFunc adapts a function to StateSource.
type StateFunc func() FrameState

func (f StateFunc) State() FrameState { return f() }

// trackedState is a canonical FrameState plus the generation it was adopted
// at. Generations stand in for identity: equal generations mean equal state.
type trackedState struct {
	state FrameState
	gen   uint64
}

// stateTracker samples a StateSource and keeps the canonical state. A new
// generation is issued only when the sampled value differs from the
// canonical one.
type stateTracker struct {
	src    StateSource
	cur    trackedState
	primed bool
}

func newStateTracker(src StateSource) *stateTracker {
	return &stateTracker{src: src}
}

func (t *stateTracker) current() trackedState {
	s := t.src.State()
	if !t.primed || s != t.cur.state {
		t.primed = true
		t.cur = trackedState{state: s, gen: t.cur.gen + 1}
	}
	return t.cur
}
