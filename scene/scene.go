// Package scene evaluates the mandelbulb distance field on the CPU.
//
// It is the per-pixel evaluator behind the software backend and the
// reference for the GPU shader: both march the same field with the same
// camera model, so headless snapshots and window output agree.
//
// Frame state mapping:
//
//	CameraPosition   ray origin
//	CameraDirection  view direction (need not be normalized)
//	ScrollX          rotation of the bulb around the Y axis, in 1/100 rad
//	ScrollY          added to the fractal power, in 1/100
package scene

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"marcher/render"
)

// Params tunes the fractal and the marcher.
type Params struct {
	Power      float32
	Iterations int
	MaxSteps   int
}

// DefaultParams returns the classic power-8 bulb.
func DefaultParams() Params {
	return Params{Power: 8, Iterations: 8, MaxSteps: 96}
}

// Loop bounds of the GPU shader; the CPU marcher honors the same limits so
// both backends draw the same image.
const (
	MaxIterations = 16
	MaxMarchSteps = 256
)

var errParams = fmt.Errorf("scene: want power >= 2, iterations in 1..%d, max steps in 1..%d", MaxIterations, MaxMarchSteps)

// Validate rejects parameters the marcher cannot work with.
func (p Params) Validate() error {
	if p.Power < 2 ||
		p.Iterations <= 0 || p.Iterations > MaxIterations ||
		p.MaxSteps <= 0 || p.MaxSteps > MaxMarchSteps {
		return errParams
	}
	return nil
}

const (
	boundRadius = 1.25
	bailout     = 2
	focal       = 1.5
	hitEpsilon  = 0.0008
)

// Scene is safe for concurrent use; it holds no mutable state.
type Scene struct {
	params Params
	light  mgl32.Vec3
	base   mgl32.Vec3
	glow   mgl32.Vec3
}

// New returns a scene for p. Invalid params fall back to DefaultParams.
func New(p Params) *Scene {
	if p.Validate() != nil {
		p = DefaultParams()
	}
	return &Scene{
		params: p,
		light:  mgl32.Vec3{0.6, 0.7, -0.5}.Normalize(),
		base:   mgl32.Vec3{0.85, 0.45, 0.2},
		glow:   mgl32.Vec3{0.2, 0.5, 0.9},
	}
}

// Params returns the scene parameters.
func (s *Scene) Params() Params { return s.params }

// Distance estimates the distance from p to the surface of the bulb of the
// given power. trap is the smallest orbit radius seen, used for coloring.
func (s *Scene) Distance(p mgl32.Vec3, power float32) (dist, trap float32) {
	z := p
	dr := float32(1)
	r := z.Len()
	trap = r
	for i := 0; i < s.params.Iterations; i++ {
		r = z.Len()
		if r > bailout {
			break
		}
		trap = math32.Min(trap, r)
		if r < 1e-6 {
			return 0, 0
		}

		theta := math32.Acos(mgl32.Clamp(z.Z()/r, -1, 1)) * power
		phi := math32.Atan2(z.Y(), z.X()) * power
		dr = math32.Pow(r, power-1)*power*dr + 1
		zr := math32.Pow(r, power)

		st := math32.Sin(theta)
		z = mgl32.Vec3{
			st * math32.Cos(phi),
			st * math32.Sin(phi),
			math32.Cos(theta),
		}.Mul(zr).Add(p)
	}
	r = z.Len()
	if r < 1e-6 {
		return 0, trap
	}
	return 0.5 * math32.Log(r) * r / dr, trap
}

// Ray returns the origin and direction of the primary ray through the
// center of pixel (x, y) of a w×h image.
func Ray(st render.FrameState, x, y, w, h int) (ro, rd mgl32.Vec3) {
	fwd := st.CameraDirection
	if fwd.Len() == 0 {
		fwd = mgl32.Vec3{0, 0, 1}
	}
	fwd = fwd.Normalize()
	right := mgl32.Vec3{0, 1, 0}.Cross(fwd)
	if right.Len() < 1e-6 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := fwd.Cross(right)

	scale := 2 / float32(h)
	u := (float32(x) + 0.5 - float32(w)/2) * scale
	v := (float32(h)/2 - float32(y) - 0.5) * scale
	rd = fwd.Mul(focal).Add(right.Mul(u)).Add(up.Mul(v)).Normalize()

	rot := mgl32.Rotate3DY(st.ScrollX * 0.01)
	return rot.Mul3x1(st.CameraPosition), rot.Mul3x1(rd)
}

// Pixel shades pixel (x, y) of a w×h image.
func (s *Scene) Pixel(st render.FrameState, x, y, w, h int) color.RGBA {
	ro, rd := Ray(st, x, y, w, h)
	return toRGBA(s.Trace(ro, rd, s.params.Power+st.ScrollY*0.01))
}

// Trace marches one ray and returns its linear color.
func (s *Scene) Trace(ro, rd mgl32.Vec3, power float32) mgl32.Vec3 {
	near, far, ok := hitSphere(ro, rd, boundRadius)
	if !ok {
		return background(rd)
	}

	t := math32.Max(near, 0)
	for i := 0; i < s.params.MaxSteps && t < far; i++ {
		p := ro.Add(rd.Mul(t))
		d, trap := s.Distance(p, power)
		if d < hitEpsilon*math32.Max(t, 1) {
			ao := 1 - float32(i)/float32(s.params.MaxSteps)
			return s.shade(p, rd, power, trap, ao)
		}
		t += d
	}
	return background(rd)
}

func (s *Scene) shade(p, rd mgl32.Vec3, power, trap, ao float32) mgl32.Vec3 {
	n := s.normal(p, power)
	diff := math32.Max(n.Dot(s.light), 0)
	h := s.light.Sub(rd).Normalize()
	spec := math32.Pow(math32.Max(n.Dot(h), 0), 24)

	k := mgl32.Clamp(trap, 0, 1)
	albedo := s.base.Mul(k).Add(s.glow.Mul(1 - k))
	col := albedo.Mul(0.15 + 0.85*diff).Add(mgl32.Vec3{1, 1, 1}.Mul(0.3 * spec))
	return col.Mul(0.35 + 0.65*ao)
}

// normal uses the tetrahedron gradient: four field samples instead of six.
func (s *Scene) normal(p mgl32.Vec3, power float32) mgl32.Vec3 {
	const e = 0.0005
	k := [4]mgl32.Vec3{{1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {1, 1, 1}}
	var n mgl32.Vec3
	for _, d := range k {
		dist, _ := s.Distance(p.Add(d.Mul(e)), power)
		n = n.Add(d.Mul(dist))
	}
	if n.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func hitSphere(ro, rd mgl32.Vec3, r float32) (near, far float32, ok bool) {
	b := ro.Dot(rd)
	c := ro.Dot(ro) - r*r
	disc := b*b - c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math32.Sqrt(disc)
	near, far = -b-sq, -b+sq
	if far < 0 {
		return 0, 0, false
	}
	return near, far, true
}

func background(rd mgl32.Vec3) mgl32.Vec3 {
	f := 0.5 - rd.Y()*0.5
	return mgl32.Vec3{0.05 + 0.1*f, 0.06 + 0.12*f, 0.12 + 0.2*f}
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	return color.RGBA{R: clampU8(c.X()), G: clampU8(c.Y()), B: clampU8(c.Z()), A: 0xff}
}

func clampU8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
