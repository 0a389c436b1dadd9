package render

import (
	"errors"
	"fmt"
)

// ErrEmptyViewport is returned when a viewport has no pixels left after
// fitting it to a plan's repeat grid.
var ErrEmptyViewport = errors.New("render: empty viewport")

// FitViewport shrinks w and h until they are multiples of the repeat grid,
// so every sample pixel maps to a whole cell and tiles have no seams.
func FitViewport(w, h int, r Repeat) (int, int) {
	if r.X <= 0 || r.Y <= 0 {
		return w, h
	}
	for w > 0 && w%r.X != 0 {
		w--
	}
	for h > 0 && h%r.Y != 0 {
		h--
	}
	return w, h
}

// SamplePool owns the single reduced-resolution surface that each partial
// pass renders into. It keeps no history: every pass overwrites it.
type SamplePool struct {
	surf Surface
}

func newSamplePool(b Backend, viewport Size, r Repeat) (*SamplePool, error) {
	s, err := b.NewSurface(viewport.W/r.X, viewport.H/r.Y)
	if err != nil {
		return nil, fmt.Errorf("sample surface %dx%d: %w", viewport.W/r.X, viewport.H/r.Y, err)
	}
	return &SamplePool{surf: s}, nil
}

// Acquire returns the sample surface.
func (p *SamplePool) Acquire() Surface { return p.surf }

func (p *SamplePool) release(b Backend) {
	if p.surf != nil {
		b.Release(p.surf)
		p.surf = nil
	}
}

// PingPong owns the two full-resolution accumulation surfaces and hands them
// out in strict alternation, so an upsample step never reads the surface it
// writes.
type PingPong struct {
	a, b    Surface
	counter uint64
}

func newPingPong(b Backend, viewport Size) (*PingPong, error) {
	one, err := b.NewSurface(viewport.W, viewport.H)
	if err != nil {
		return nil, fmt.Errorf("accumulation surface %dx%d: %w", viewport.W, viewport.H, err)
	}
	two, err := b.NewSurface(viewport.W, viewport.H)
	if err != nil {
		b.Release(one)
		return nil, fmt.Errorf("accumulation surface %dx%d: %w", viewport.W, viewport.H, err)
	}
	return &PingPong{a: one, b: two}, nil
}

// Acquire returns the accumulation surface that was not returned last.
func (p *PingPong) Acquire() Surface {
	p.counter++
	if p.counter%2 == 0 {
		return p.a
	}
	return p.b
}

func (p *PingPong) release(b Backend) {
	if p.a != nil {
		b.Release(p.a)
		p.a = nil
	}
	if p.b != nil {
		b.Release(p.b)
		p.b = nil
	}
}
