package render

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// SessionConfig describes a Session.
type SessionConfig struct {
	Backend   Backend
	Scheduler Scheduler
	States    StateSource
	// Clock defaults to SystemClock.
	Clock Clock

	Tier Tier
	// Width and Height are the requested viewport size. The session fits
	// them to the plan's repeat grid.
	Width, Height int

	// Threshold is the time a frame may spend on passes before it shows
	// what it has. Zero means DefaultThreshold.
	Threshold time.Duration
}

// Stats counts what a session has done so far.
type Stats struct {
	Runs      uint64 // frames started
	Steps     uint64 // passes completed
	Completed uint64 // frames that ran every pass
	Overruns  uint64 // passes that ended past the threshold
	Restarts  uint64 // frames abandoned for newer state
	// LastSteps is the number of passes behind the surface presented last.
	LastSteps int
}

// Session owns the plan and surfaces for one tier and viewport and runs the
// frame loop on a Scheduler.
//
// The loop has three parts. A run pulls passes from a fresh Sequencer; after
// every pass it compares elapsed time with the threshold, micro-yields
// through Scheduler.Defer while in budget, and presents when over it. If the
// state changed by then, the run is dropped and a new one starts on the next
// display frame. A run that reaches its last pass presents it and hands over
// to the poller, which re-presents that surface every display frame until
// the state changes.
type Session struct {
	backend   Backend
	sched     Scheduler
	clock     Clock
	states    *stateTracker
	threshold time.Duration
	logAttrs  []any

	tier     Tier
	plan     Plan
	viewport Size

	sample *SamplePool
	accum  *PingPong

	stopped bool
	last    Surface
	stats   Stats
}

// NewSession fits the viewport, allocates the sample and accumulation
// surfaces and returns a session ready to Start.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Backend == nil || cfg.Scheduler == nil || cfg.States == nil {
		return nil, errors.New("render: session needs a backend, a scheduler and a state source")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}

	plan := PlanFor(cfg.Tier, cfg.Width, cfg.Height)
	if err := plan.Validate(); err != nil {
		panic(err)
	}
	w, h := FitViewport(cfg.Width, cfg.Height, plan.Repeat)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d for repeat %dx%d", ErrEmptyViewport, cfg.Width, cfg.Height, plan.Repeat.X, plan.Repeat.Y)
	}
	viewport := Size{W: w, H: h}

	sample, err := newSamplePool(cfg.Backend, viewport, plan.Repeat)
	if err != nil {
		return nil, err
	}
	accum, err := newPingPong(cfg.Backend, viewport)
	if err != nil {
		sample.release(cfg.Backend)
		return nil, err
	}

	return &Session{
		backend:   cfg.Backend,
		sched:     cfg.Scheduler,
		clock:     cfg.Clock,
		states:    newStateTracker(cfg.States),
		threshold: cfg.Threshold,
		logAttrs:  []any{"tier", cfg.Tier, "viewport", fmt.Sprintf("%dx%d", w, h)},
		tier:      cfg.Tier,
		plan:      plan,
		viewport:  viewport,
		sample:    sample,
		accum:     accum,
	}, nil
}

// Start renders the mandatory pass of the first frame right away and
// schedules the rest.
func (s *Session) Start() {
	if s.stopped {
		return
	}
	s.logger().Info("session start", "repeat", fmt.Sprintf("%dx%d", s.plan.Repeat.X, s.plan.Repeat.Y), "steps", s.plan.Steps())
	s.run(s.states.current())
}

// Stop retires the session: continuations already scheduled do nothing when
// they run, and the surfaces are released. Stop is idempotent.
func (s *Session) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.last = nil
	s.sample.release(s.backend)
	s.accum.release(s.backend)
	s.logger().Info("session stop", "runs", s.stats.Runs, "steps", s.stats.Steps, "restarts", s.stats.Restarts)
}

// logger resolves the package logger on every call so SetLogger reaches
// running sessions.
func (s *Session) logger() *slog.Logger {
	return Logger().With(s.logAttrs...)
}

// Stopped reports whether Stop was called.
func (s *Session) Stopped() bool { return s.stopped }

// Tier returns the session's tier.
func (s *Session) Tier() Tier { return s.tier }

// Plan returns a copy of the session's plan.
func (s *Session) Plan() Plan {
	return Plan{Repeat: s.plan.Repeat, Offsets: slices.Clone(s.plan.Offsets)}
}

// Viewport returns the fitted viewport.
func (s *Session) Viewport() Size { return s.viewport }

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats { return s.stats }

// LastPresented returns the surface presented last, or nil.
func (s *Session) LastPresented() Surface { return s.last }

func (s *Session) present(res StepResult) {
	s.backend.Present(res.Surface)
	s.last = res.Surface
	s.stats.LastSteps = res.Step + 1
}

func (s *Session) run(st trackedState) {
	if s.stopped {
		return
	}
	s.stats.Runs++
	seq := newSequencer(s.backend, s.plan, st.state, s.viewport, s.sample, s.accum)
	s.step(seq, st, s.clock.Now())
}

func (s *Session) step(seq *Sequencer, st trackedState, start time.Time) {
	if s.stopped {
		return
	}

	res := seq.Next()
	if res.Done {
		s.stats.Completed++
		s.present(res)
		s.poll(res, st)
		return
	}
	s.stats.Steps++

	if elapsed := s.clock.Now().Sub(start); elapsed > s.threshold {
		s.stats.Overruns++
		s.present(res)
		if cur := s.states.current(); cur.gen != st.gen {
			s.stats.Restarts++
			s.logger().Debug("frame restart", "steps", res.Step+1, "of", s.plan.Steps(), "elapsed", elapsed)
			s.sched.OnFrame(func() { s.run(cur) })
			return
		}
	}
	s.sched.Defer(func() { s.step(seq, st, start) })
}

// poll re-presents the finished frame once per display frame until the
// state differs from the one it was rendered with. Presentation is not
// assumed to survive a refresh, so the redraw happens even when nothing
// changed.
func (s *Session) poll(done StepResult, rendered trackedState) {
	s.logger().Debug("frame complete", "steps", done.Step+1)
	var tick func()
	tick = func() {
		if s.stopped {
			return
		}
		s.present(done)
		if cur := s.states.current(); cur.gen != rendered.gen {
			s.run(cur)
			return
		}
		s.sched.OnFrame(tick)
	}
	s.sched.OnFrame(tick)
}
