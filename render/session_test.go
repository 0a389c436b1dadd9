package render

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcher/kernel"
)

type sessionRig struct {
	k     *kernel.Kernel
	clock *fakeClock
	b     *fakeBackend
	src   *fakeSource
}

func newSessionRig() *sessionRig {
	clock := newFakeClock()
	return &sessionRig{
		k:     kernel.New(),
		clock: clock,
		b:     newFakeBackend(clock),
		src:   &fakeSource{state: testState(1)},
	}
}

func (r *sessionRig) config(tier Tier, w, h int) SessionConfig {
	return SessionConfig{
		Backend:   r.b,
		Scheduler: r.k,
		States:    r.src,
		Clock:     r.clock,
		Tier:      tier,
		Width:     w,
		Height:    h,
	}
}

func (r *sessionRig) start(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	s, err := NewSession(cfg)
	require.NoError(t, err)
	s.Start()
	return s
}

// frame simulates one display refresh: wake frame tasks, then run everything
// runnable.
func (r *sessionRig) frame() {
	r.k.Tick()
	r.k.Drain(0)
}

func TestSessionCompletesThenPolls(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier3, 1200, 900))

	assert.Len(t, r.b.passes, 1, "first pass runs inside Start")
	r.k.Drain(0)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Runs)
	assert.Equal(t, uint64(9), st.Steps)
	assert.Equal(t, uint64(1), st.Completed)
	assert.Equal(t, 9, st.LastSteps)
	require.Len(t, r.b.presents, 1)
	final := r.b.presents[0].surface
	assert.Equal(t, final, s.LastPresented())

	_, parked := r.k.Pending()
	assert.Equal(t, 1, parked)

	for i := 0; i < 5; i++ {
		r.frame()
	}
	assert.Len(t, r.b.passes, 9)
	assert.Len(t, r.b.presents, 6)
	for _, p := range r.b.presents {
		assert.Equal(t, final, p.surface)
	}
	assert.False(t, r.k.InPanicMode())
}

func TestSessionPollerIgnoresEqualState(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier2, 1000, 800))
	r.k.Drain(0)

	for i := 0; i < 10; i++ {
		r.src.state = testState(1)
		r.frame()
	}
	assert.Equal(t, uint64(1), s.Stats().Runs)
	assert.Len(t, r.b.passes, 4)
	assert.GreaterOrEqual(t, r.src.calls, 10)
}

func TestSessionPollerRestartsOnceOnChange(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier2, 1000, 800))
	r.k.Drain(0)
	r.frame()

	changed := testState(2)
	r.src.state = changed
	r.frame()
	assert.Equal(t, uint64(2), s.Stats().Runs)
	require.Len(t, r.b.passes, 8)
	assert.Equal(t, Offset{}, r.b.passes[4].Offset)
	for _, p := range r.b.passes[4:] {
		assert.Equal(t, changed, p.State)
	}

	for i := 0; i < 5; i++ {
		r.frame()
	}
	assert.Equal(t, uint64(2), s.Stats().Runs)
	assert.Equal(t, uint64(2), s.Stats().Completed)
	assert.Len(t, r.b.passes, 8)
}

func TestSessionPresentsWithinBudget(t *testing.T) {
	r := newSessionRig()
	r.b.passCost = 5 * time.Millisecond
	cfg := r.config(Tier3, 1200, 900)
	cfg.Threshold = 12 * time.Millisecond
	begin := r.clock.Now()

	s := r.start(t, cfg)
	r.k.Drain(0)

	require.NotEmpty(t, r.b.presents)
	first := r.b.presents[0].at.Sub(begin)
	assert.LessOrEqual(t, first, cfg.Threshold+r.b.passCost)
	assert.Greater(t, first, cfg.Threshold)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Completed)
	assert.Equal(t, uint64(9), st.Steps)
	assert.Equal(t, uint64(7), st.Overruns)
	assert.Zero(t, st.Restarts)
}

func TestSessionOverrunRestartsWithNewState(t *testing.T) {
	r := newSessionRig()
	r.b.passCost = 5 * time.Millisecond
	cfg := r.config(Tier3, 1200, 900)
	cfg.Threshold = 12 * time.Millisecond

	s := r.start(t, cfg)
	changed := testState(2)
	r.src.state = changed
	r.k.Drain(0)

	assert.Len(t, r.b.passes, 3, "runs until the budget is spent")
	assert.Len(t, r.b.presents, 1)
	assert.Equal(t, uint64(1), s.Stats().Restarts)
	runnable, parked := r.k.Pending()
	assert.Zero(t, runnable)
	assert.Equal(t, 1, parked, "restart waits for the next display frame")

	r.frame()
	require.Len(t, r.b.passes, 12)
	assert.Equal(t, Offset{}, r.b.passes[3].Offset)
	for _, p := range r.b.passes[3:] {
		assert.Equal(t, changed, p.State)
	}
	st := s.Stats()
	assert.Equal(t, uint64(2), st.Runs)
	assert.Equal(t, uint64(1), st.Completed)
	assert.Equal(t, uint64(1), st.Restarts)
}

func TestSessionStopCancelsScheduledWork(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier3, 1200, 900))
	s.Stop()

	assert.Empty(t, r.b.live)
	assert.Len(t, r.b.released, 3)
	assert.Nil(t, s.LastPresented())

	r.k.Drain(0)
	r.frame()
	assert.Len(t, r.b.passes, 1)
	assert.Empty(t, r.b.presents)
	assert.False(t, r.k.InPanicMode())

	s.Stop()
	assert.Len(t, r.b.released, 3)

	s.Start()
	assert.Len(t, r.b.passes, 1)
}

func TestSessionStopDuringPoll(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier2, 1000, 800))
	r.k.Drain(0)
	presents := len(r.b.presents)

	s.Stop()
	r.src.state = testState(9)
	r.frame()
	r.frame()
	assert.Len(t, r.b.presents, presents)
	assert.Len(t, r.b.passes, 4)
	assert.False(t, r.k.InPanicMode())
}

func TestNewSessionViewportAndSurfaces(t *testing.T) {
	r := newSessionRig()
	s, err := NewSession(r.config(Tier4, 1203, 907))
	require.NoError(t, err)

	assert.Equal(t, Size{W: 1200, H: 904}, s.Viewport())
	assert.Equal(t, Tier4, s.Tier())
	assert.Equal(t, 16, s.Plan().Steps())
	assert.Len(t, r.b.live, 3)
	assert.Empty(t, r.b.passes, "nothing renders before Start")
}

func TestNewSessionAllocFailureReleasesEverything(t *testing.T) {
	for limit := 1; limit <= 2; limit++ {
		r := newSessionRig()
		r.b.allocLimit = limit
		_, err := NewSession(r.config(Tier3, 1200, 900))
		assert.ErrorIs(t, err, errAllocFailed, "limit %d", limit)
		assert.Empty(t, r.b.live, "limit %d", limit)
	}
}

func TestNewSessionEmptyViewport(t *testing.T) {
	r := newSessionRig()
	_, err := NewSession(r.config(Tier3, 1, 1))
	assert.ErrorIs(t, err, ErrEmptyViewport)
	assert.Empty(t, r.b.live)
}

func TestNewSessionNeedsDependencies(t *testing.T) {
	r := newSessionRig()
	cfg := r.config(Tier1, 1000, 800)
	cfg.States = nil
	_, err := NewSession(cfg)
	assert.Error(t, err)
}

func TestNewSessionDefaults(t *testing.T) {
	r := newSessionRig()
	cfg := r.config(Tier1, 1000, 800)
	cfg.Clock = nil
	s, err := NewSession(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, s.threshold)
	assert.IsType(t, SystemClock{}, s.clock)
}

func TestSessionLogsThroughLoggerSetAfterStart(t *testing.T) {
	r := newSessionRig()
	s := r.start(t, r.config(Tier2, 1000, 800))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	r.k.Drain(0)
	s.Stop()
	assert.Contains(t, buf.String(), "frame complete")
	assert.Contains(t, buf.String(), "session stop")
	assert.Contains(t, buf.String(), "tier=tier2")
}
