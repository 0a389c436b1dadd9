package render

import "time"

// ControllerConfig holds what every session of a Controller shares.
type ControllerConfig struct {
	Backend   Backend
	Scheduler Scheduler
	States    StateSource
	Clock     Clock
	Threshold time.Duration
}

// Controller owns the current tier and viewport and keeps at most one
// Session alive. A tier change or a resize stops the running session before
// the replacement is created.
type Controller struct {
	cfg  ControllerConfig
	tier Tier
	size Size
	cur  *Session
}

// NewController returns a controller for the given initial tier and
// viewport. Nothing renders until Start.
func NewController(cfg ControllerConfig, tier Tier, width, height int) *Controller {
	return &Controller{cfg: cfg, tier: tier, size: Size{W: width, H: height}}
}

// Start starts a session if none is running.
func (c *Controller) Start() error {
	if c.cur != nil {
		return nil
	}
	return c.replace()
}

// SetTier switches to tier t, replacing the session if t differs from the
// current tier.
func (c *Controller) SetTier(t Tier) error {
	if t == c.tier && c.cur != nil {
		return nil
	}
	Logger().Info("tier change", "from", c.tier, "to", t)
	c.tier = t
	return c.replace()
}

// Resize switches to a new viewport, replacing the session if the size
// changed.
func (c *Controller) Resize(width, height int) error {
	size := Size{W: width, H: height}
	if size == c.size && c.cur != nil {
		return nil
	}
	Logger().Info("resize", "width", width, "height", height)
	c.size = size
	return c.replace()
}

// Stop stops the running session, if any.
func (c *Controller) Stop() {
	if c.cur != nil {
		c.cur.Stop()
		c.cur = nil
	}
}

// Session returns the running session, or nil.
func (c *Controller) Session() *Session { return c.cur }

// Tier returns the current tier.
func (c *Controller) Tier() Tier { return c.tier }

func (c *Controller) replace() error {
	c.Stop()
	s, err := NewSession(SessionConfig{
		Backend:   c.cfg.Backend,
		Scheduler: c.cfg.Scheduler,
		States:    c.cfg.States,
		Clock:     c.cfg.Clock,
		Tier:      c.tier,
		Width:     c.size.W,
		Height:    c.size.H,
		Threshold: c.cfg.Threshold,
	})
	if err != nil {
		return err
	}
	c.cur = s
	s.Start()
	return nil
}
