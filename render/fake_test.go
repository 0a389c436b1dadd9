package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeSurface struct {
	id   int
	w, h int
}

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

func (s *fakeSurface) String() string { return fmt.Sprintf("surface#%d(%dx%d)", s.id, s.w, s.h) }

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type upsampleCall struct {
	target Surface
	params UpsampleParams
}

type presentCall struct {
	surface Surface
	at      time.Time
}

var errAllocFailed = errors.New("fake: out of memory")

// fakeBackend records every call. Each RenderPass advances clock by
// passCost, standing in for GPU time.
type fakeBackend struct {
	clock    *fakeClock
	passCost time.Duration
	// allocLimit fails NewSurface once this many surfaces exist; zero means
	// no limit.
	allocLimit int

	nextID    int
	live      map[*fakeSurface]bool
	released  []*fakeSurface
	passes    []PassParams
	blits     []Surface
	upsamples []upsampleCall
	presents  []presentCall
	log       []string
}

func newFakeBackend(clock *fakeClock) *fakeBackend {
	return &fakeBackend{clock: clock, live: map[*fakeSurface]bool{}}
}

func (b *fakeBackend) NewSurface(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSize
	}
	if b.allocLimit > 0 && len(b.live) >= b.allocLimit {
		return nil, errAllocFailed
	}
	b.nextID++
	s := &fakeSurface{id: b.nextID, w: w, h: h}
	b.live[s] = true
	b.log = append(b.log, fmt.Sprintf("alloc %d", s.id))
	return s, nil
}

func (b *fakeBackend) Release(s Surface) {
	fs := s.(*fakeSurface)
	if !b.live[fs] {
		panic(fmt.Sprintf("release of dead %v", fs))
	}
	delete(b.live, fs)
	b.released = append(b.released, fs)
	b.log = append(b.log, fmt.Sprintf("release %d", fs.id))
}

func (b *fakeBackend) mustLive(s Surface) {
	if fs, ok := s.(*fakeSurface); !ok || !b.live[fs] {
		panic(fmt.Sprintf("use of dead surface %v", s))
	}
}

func (b *fakeBackend) RenderPass(target Surface, p PassParams) {
	b.mustLive(target)
	b.passes = append(b.passes, p)
	if b.clock != nil {
		b.clock.advance(b.passCost)
	}
}

func (b *fakeBackend) Blit(target, src Surface) {
	b.mustLive(target)
	b.mustLive(src)
	b.blits = append(b.blits, target)
}

func (b *fakeBackend) Upsample(target Surface, p UpsampleParams) {
	b.mustLive(target)
	b.mustLive(p.Sample)
	b.mustLive(p.Previous)
	if target == p.Previous {
		panic("upsample reads its target")
	}
	b.upsamples = append(b.upsamples, upsampleCall{target: target, params: p})
}

func (b *fakeBackend) Present(s Surface) {
	b.mustLive(s)
	var at time.Time
	if b.clock != nil {
		at = b.clock.Now()
	}
	b.presents = append(b.presents, presentCall{surface: s, at: at})
}

// fakeSource hands out copies of state, so equal states are never the same
// variable.
type fakeSource struct {
	state FrameState
	calls int
}

func (s *fakeSource) State() FrameState {
	s.calls++
	st := s.state
	return st
}

func testState(x float32) FrameState {
	return FrameState{
		CameraPosition:  mgl32.Vec3{x, 0, -3},
		CameraDirection: mgl32.Vec3{0, 0, 1},
	}
}
