package app

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcher/hal"
	"marcher/kernel"
	"marcher/render"
)

type flatShader struct{}

func (flatShader) Pixel(render.FrameState, int, int, int, int) color.RGBA {
	return color.RGBA{R: 10, G: 20, B: 30, A: 0xff}
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testDisplay struct {
	w, h int
	o    *hal.Overlay
}

func (d *testDisplay) Size() (int, int)      { return d.w, d.h }
func (d *testDisplay) Overlay() *hal.Overlay { return d.o }

type testInput struct{ ch chan hal.Event }

func (in *testInput) Events() <-chan hal.Event { return in.ch }

type testHAL struct {
	b    *hal.SoftBackend
	disp *testDisplay
	in   *testInput
}

func (h *testHAL) Backend() render.Backend {
	if h.b == nil {
		return nil
	}
	return h.b
}

func (h *testHAL) Display() hal.Display { return h.disp }
func (h *testHAL) Input() hal.Input     { return h.in }

func newTestHAL(w, h int) *testHAL {
	return &testHAL{
		b:    hal.NewSoftBackend(flatShader{}, 2),
		disp: &testDisplay{w: w, h: h, o: hal.NewOverlay(w, h)},
		in:   &testInput{ch: make(chan hal.Event, 16)},
	}
}

func (h *testHAL) key(ev hal.KeyEvent) {
	h.in.ch <- hal.Event{Kind: hal.EventKey, Key: ev}
}

type appRig struct {
	h     *testHAL
	clock *testClock
	a     *App
}

func newAppRig(t *testing.T, w, h int, cfg Config) *appRig {
	t.Helper()
	r := &appRig{h: newTestHAL(w, h), clock: &testClock{now: time.Unix(1000, 0)}}
	cfg.Clock = r.clock
	a, err := NewApp(r.h, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	r.a = a
	return r
}

func (r *appRig) step(t *testing.T) {
	t.Helper()
	r.clock.now = r.clock.now.Add(16 * time.Millisecond)
	require.NoError(t, r.a.Step())
}

func TestAppRendersFirstFrame(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{Tier: render.Tier3, HUD: true})
	r.step(t)

	s := r.a.Controller().Session()
	require.NotNil(t, s)
	assert.Equal(t, uint64(1), s.Stats().Completed)
	img, presents := r.h.b.Presented()
	require.NotNil(t, img)
	assert.Positive(t, presents)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, img.RGBAAt(5, 5))

	hud, _ := r.h.disp.o.Published()
	require.NotNil(t, hud)
	assert.Equal(t, hudBG, hud.RGBAAt(1, 1))
}

func TestAppTierKeysAndQuit(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{Tier: render.Tier3, HUD: true})
	r.step(t)

	r.h.key(hal.KeyEvent{Press: true, Rune: '1'})
	r.step(t)
	assert.Equal(t, render.Tier1, r.a.Controller().Tier())
	assert.Equal(t, render.Tier1, r.a.Controller().Session().Tier(), "small viewports keep the tier but use the 2x2 plan")

	r.h.key(hal.KeyEvent{Press: true, Rune: 'h'})
	r.step(t)
	assert.False(t, r.h.disp.o.Visible())
	img, _ := r.h.disp.o.Published()
	assert.Nil(t, img)

	r.h.key(hal.KeyEvent{Code: hal.KeyEscape, Press: true})
	r.clock.now = r.clock.now.Add(16 * time.Millisecond)
	assert.ErrorIs(t, r.a.Step(), hal.ErrQuit)
}

func TestAppHeldKeysMoveCamera(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{HUD: false})
	r.step(t)
	yaw := r.a.Camera().Yaw

	r.h.key(hal.KeyEvent{Code: hal.KeyRight, Press: true})
	r.step(t)
	r.step(t)
	moved := r.a.Camera().Yaw
	assert.Greater(t, moved, yaw)

	runs := r.a.Controller().Session().Stats().Runs
	assert.Greater(t, runs, uint64(1), "camera motion starts a new frame")

	r.h.key(hal.KeyEvent{Code: hal.KeyRight, Press: false})
	r.step(t)
	stopped := r.a.Camera().Yaw
	r.step(t)
	assert.Equal(t, stopped, r.a.Camera().Yaw)
}

func TestAppScrollMovesState(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{})
	r.h.in.ch <- hal.Event{Kind: hal.EventScroll, ScrollX: 1, ScrollY: -2}
	r.step(t)
	st := r.a.Camera().State()
	assert.Equal(t, float32(wheelStep), st.ScrollX)
	assert.Equal(t, float32(-2*wheelStep), st.ScrollY)
}

func TestAppResizeReplacesSession(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{Tier: render.Tier3})
	r.step(t)
	first := r.a.Controller().Session()

	r.h.in.ch <- hal.Event{Kind: hal.EventResize, Width: 41, Height: 31}
	r.step(t)
	s := r.a.Controller().Session()
	require.NotSame(t, first, s)
	assert.True(t, first.Stopped())
	assert.Equal(t, render.Size{W: 40, H: 30}, s.Viewport())
	assert.Equal(t, uint64(1), s.Stats().Completed)
}

func TestAppEmptyViewportWaitsForResize(t *testing.T) {
	r := newAppRig(t, 1, 1, Config{})
	assert.Nil(t, r.a.Controller().Session())
	r.step(t)

	r.h.in.ch <- hal.Event{Kind: hal.EventResize, Width: 64, Height: 48}
	r.step(t)
	require.NotNil(t, r.a.Controller().Session())
	assert.Equal(t, uint64(1), r.a.Controller().Session().Stats().Completed)
}

func TestAppAppliesReloads(t *testing.T) {
	var mb kernel.Mailbox[Settings]
	r := newAppRig(t, 64, 48, Config{Tier: render.Tier3, HUD: true, Reload: &mb})
	r.step(t)

	require.True(t, mb.TrySend(Settings{Tier: render.Tier2, HUD: false}))
	r.step(t)
	assert.Equal(t, render.Tier2, r.a.Controller().Tier())
	assert.False(t, r.h.disp.o.Visible())
	assert.Zero(t, mb.Len())
}

func TestAppPanicScreen(t *testing.T) {
	r := newAppRig(t, 64, 48, Config{ExitOnPanic: true})
	r.a.k.Defer(func() { panic("boom") })
	r.step(t)

	require.NotNil(t, r.a.crash)
	assert.Equal(t, "boom", r.a.crash.Value)
	assert.True(t, r.a.k.InPanicMode())

	img, _ := r.h.disp.o.Published()
	require.NotNil(t, img)
	assert.Equal(t, panicBG, img.RGBAAt(63, 47))

	r.clock.now = r.clock.now.Add(16 * time.Millisecond)
	err := r.a.Step()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewWithConfigReportsSetupError(t *testing.T) {
	step := NewWithConfig(&testHAL{disp: &testDisplay{}}, Config{})
	assert.Error(t, step())
}

func TestTakeRunes(t *testing.T) {
	p, rest := takeRunes("héllo", 2)
	assert.Equal(t, "hé", p)
	assert.Equal(t, "llo", rest)
	p, rest = takeRunes("ab", 5)
	assert.Equal(t, "ab", p)
	assert.Empty(t, rest)
}
