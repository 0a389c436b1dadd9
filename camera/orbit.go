// Package camera provides the orbit controller that produces the frame
// state each render pass consumes.
package camera

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"marcher/render"
)

// Orbit circles a target at a distance. It does not depend on any input
// system; callers feed it deltas or a held-key snapshot.
//
// Orbit is not safe for concurrent use.
type Orbit struct {
	Target mgl32.Vec3
	Yaw    float32
	Pitch  float32
	Radius float32

	MinRadius float32
	MaxRadius float32

	ScrollX float32
	ScrollY float32

	// Speed is the rotation rate in radians per second for Step. Zoom
	// moves at the same rate in units per second.
	Speed float32
}

const maxPitch = 1.5

// NewOrbit returns an orbit 3 units in front of the origin, looking at it
// along +Z.
func NewOrbit() *Orbit {
	return &Orbit{
		Radius:    3,
		MinRadius: 1.3,
		MaxRadius: 8,
		Speed:     1.2,
	}
}

// Position returns the camera position.
func (c *Orbit) Position() mgl32.Vec3 {
	r := c.Radius
	if r == 0 {
		r = 3
	}
	m := mgl32.Rotate3DY(c.Yaw).Mul3(mgl32.Rotate3DX(c.Pitch))
	return c.Target.Add(m.Mul3x1(mgl32.Vec3{0, 0, -r}))
}

// State implements render.StateSource.
func (c *Orbit) State() render.FrameState {
	pos := c.Position()
	return render.FrameState{
		CameraPosition:  pos,
		CameraDirection: c.Target.Sub(pos).Normalize(),
		ScrollX:         c.ScrollX,
		ScrollY:         c.ScrollY,
	}
}

func (c *Orbit) Rotate(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch = mgl32.Clamp(c.Pitch+deltaPitch, -maxPitch, maxPitch)
}

func (c *Orbit) Zoom(delta float32) {
	c.Radius += delta
	if c.MinRadius != 0 && c.Radius < c.MinRadius {
		c.Radius = c.MinRadius
	}
	if c.MaxRadius != 0 && c.Radius > c.MaxRadius {
		c.Radius = c.MaxRadius
	}
}

// Scroll accumulates wheel offsets.
func (c *Orbit) Scroll(dx, dy float32) {
	c.ScrollX += dx
	c.ScrollY += dy
}

// Held is the set of movement keys down during a Step.
type Held struct {
	Left, Right bool
	Up, Down    bool
	In, Out     bool
}

// Any reports whether any key is held.
func (h Held) Any() bool {
	return h.Left || h.Right || h.Up || h.Down || h.In || h.Out
}

// Step moves the camera for keys held over dt.
func (c *Orbit) Step(h Held, dt time.Duration) {
	if !h.Any() || dt <= 0 {
		return
	}
	d := c.Speed * float32(dt.Seconds())
	var yaw, pitch, zoom float32
	if h.Left {
		yaw -= d
	}
	if h.Right {
		yaw += d
	}
	if h.Up {
		pitch += d
	}
	if h.Down {
		pitch -= d
	}
	if h.In {
		zoom -= d
	}
	if h.Out {
		zoom += d
	}
	c.Rotate(yaw, pitch)
	if zoom != 0 {
		c.Zoom(zoom)
	}
}
