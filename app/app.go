package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marcher/camera"
	"marcher/hal"
	"marcher/kernel"
	"marcher/render"
)

// wheelStep scales one wheel notch to scroll units (1/100 rad, 1/100 power).
const wheelStep = 10

// Settings are the values a running app picks up from a config reload.
type Settings struct {
	Tier render.Tier
	HUD  bool
}

type Config struct {
	Tier      render.Tier
	Threshold time.Duration
	HUD       bool

	// Reload, when set, is drained once per refresh.
	Reload *kernel.Mailbox[Settings]
	// ExitOnPanic makes Step return an error after a kernel panic instead of
	// holding the panic screen.
	ExitOnPanic bool

	// Clock defaults to render.SystemClock.
	Clock render.Clock
	Log   *slog.Logger
}

// App drives the progressive renderer from the host loop. Every method must
// be called from the host loop goroutine.
type App struct {
	h     hal.HAL
	k     *kernel.Kernel
	ctl   *render.Controller
	orbit *camera.Orbit
	hud   *hud
	cfg   Config
	log   *slog.Logger

	held  camera.Held
	last  time.Time
	crash *kernel.PanicInfo
}

// New initializes the app with default config.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{Tier: render.DefaultTier, HUD: true})
}

// NewWithConfig returns the per-refresh step for the hal runners. Setup
// errors surface on the first step.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	a, err := NewApp(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	return a.Step
}

// NewApp creates the app and starts the first session.
func NewApp(h hal.HAL, cfg Config) (*App, error) {
	if h == nil || h.Backend() == nil || h.Display() == nil {
		return nil, errors.New("app: hal has no backend or display")
	}
	if cfg.Clock == nil {
		cfg.Clock = render.SystemClock{}
	}
	if !cfg.Tier.Valid() {
		cfg.Tier = render.DefaultTier
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = render.DefaultThreshold
	}
	log := cfg.Log
	if log == nil {
		log = render.Logger()
	}

	a := &App{
		h:     h,
		k:     kernel.New(),
		orbit: camera.NewOrbit(),
		cfg:   cfg,
		log:   log,
	}
	a.hud = newHUD(h.Display().Overlay(), cfg.HUD)
	a.k.SetPanicHandler(a.onPanic)

	w, ht := h.Display().Size()
	a.ctl = render.NewController(render.ControllerConfig{
		Backend:   h.Backend(),
		Scheduler: a.k,
		States:    a.orbit,
		Clock:     cfg.Clock,
		Threshold: cfg.Threshold,
	}, cfg.Tier, w, ht)
	if err := a.start(a.ctl.Start()); err != nil {
		return nil, err
	}
	log.Info("app started", "tier", cfg.Tier, "width", w, "height", ht, "threshold", cfg.Threshold)
	return a, nil
}

// Step runs one display refresh: input, reloads, camera, then the kernel's
// slice of the frame.
func (a *App) Step() error {
	now := a.cfg.Clock.Now()
	var dt time.Duration
	if !a.last.IsZero() {
		dt = now.Sub(a.last)
	}
	a.last = now

	if err := a.drainInput(); err != nil {
		return err
	}
	if a.crash != nil {
		if a.cfg.ExitOnPanic {
			return fmt.Errorf("kernel panic: %v", a.crash.Value)
		}
		return nil
	}
	if err := a.drainReloads(); err != nil {
		return err
	}

	a.orbit.Step(a.held, dt)
	a.k.Tick()
	a.k.RunUntil(now.Add(a.cfg.Threshold), a.cfg.Clock.Now)

	if a.crash != nil {
		return nil
	}
	a.hud.update(a.ctl.Session())
	return nil
}

// Close stops the running session and releases its surfaces.
func (a *App) Close() {
	a.ctl.Stop()
}

// Controller exposes the session controller.
func (a *App) Controller() *render.Controller { return a.ctl }

// Camera exposes the orbit camera.
func (a *App) Camera() *camera.Orbit { return a.orbit }

func (a *App) drainInput() error {
	in := a.h.Input()
	if in == nil {
		return nil
	}
	ch := in.Events()
	for {
		select {
		case ev := <-ch:
			if err := a.handle(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) handle(ev hal.Event) error {
	switch ev.Kind {
	case hal.EventKey:
		return a.key(ev.Key)
	case hal.EventScroll:
		a.orbit.Scroll(float32(ev.ScrollX)*wheelStep, float32(ev.ScrollY)*wheelStep)
	case hal.EventResize:
		if a.crash != nil {
			return nil
		}
		a.hud.invalidate()
		return a.start(a.ctl.Resize(ev.Width, ev.Height))
	}
	return nil
}

func (a *App) key(k hal.KeyEvent) error {
	switch k.Code {
	case hal.KeyEscape:
		if k.Press {
			return hal.ErrQuit
		}
	case hal.KeyLeft:
		a.held.Left = k.Press
	case hal.KeyRight:
		a.held.Right = k.Press
	case hal.KeyUp:
		a.held.Up = k.Press
	case hal.KeyDown:
		a.held.Down = k.Press
	case hal.KeyW:
		a.held.In = k.Press
	case hal.KeyS:
		a.held.Out = k.Press
	case hal.KeyUnknown:
		if !k.Press || a.crash != nil {
			return nil
		}
		if t, ok := render.TierFromRune(k.Rune); ok {
			return a.start(a.ctl.SetTier(t))
		}
		if k.Rune == 'h' || k.Rune == 'H' {
			a.hud.toggle()
		}
	}
	return nil
}

func (a *App) drainReloads() error {
	if a.cfg.Reload == nil {
		return nil
	}
	for {
		s, ok := a.cfg.Reload.TryRecv()
		if !ok {
			return nil
		}
		a.log.Info("config reloaded", "tier", s.Tier, "hud", s.HUD)
		a.hud.show(s.HUD)
		if s.Tier.Valid() {
			if err := a.start(a.ctl.SetTier(s.Tier)); err != nil {
				return err
			}
		}
	}
}

// start filters controller errors: an empty viewport (a minimized window)
// leaves the app idle until the next resize, anything else is fatal.
func (a *App) start(err error) error {
	if errors.Is(err, render.ErrEmptyViewport) {
		a.log.Warn("viewport too small, rendering paused", "err", err)
		return nil
	}
	return err
}
