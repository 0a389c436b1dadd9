// Package config holds the runtime settings of the renderer.
//
// Settings come from three layers, later ones winning: Default, an optional
// TOML file, and command-line flags that were set explicitly.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"marcher/render"
	"marcher/scene"
)

// Headless controls the no-window runner.
type Headless struct {
	Enabled bool   `toml:"enabled"`
	Hz      int    `toml:"hz"`
	Ticks   uint64 `toml:"ticks"`
	// Output is a PNG path the last presented frame is written to when the
	// run ends. Empty means no snapshot.
	Output string `toml:"output"`
}

// Scene mirrors scene.Params.
type Scene struct {
	Power      float32 `toml:"power"`
	Iterations int     `toml:"iterations"`
	MaxSteps   int     `toml:"max_steps"`
}

type Config struct {
	Tier             int    `toml:"tier"`
	Width            int    `toml:"width"`
	Height           int    `toml:"height"`
	FPS              int    `toml:"fps"`
	PresentReserveMS int    `toml:"present_reserve_ms"`
	HUD              bool   `toml:"hud"`
	LogLevel         string `toml:"log_level"`
	// Backend is "gpu" or "soft". Headless runs always use "soft".
	Backend string `toml:"backend"`

	Headless Headless `toml:"headless"`
	Scene    Scene    `toml:"scene"`
}

const (
	BackendGPU  = "gpu"
	BackendSoft = "soft"
)

// Default returns the built-in settings.
func Default() Config {
	p := scene.DefaultParams()
	return Config{
		Tier:             int(render.DefaultTier),
		Width:            1280,
		Height:           720,
		FPS:              60,
		PresentReserveMS: 4,
		HUD:              true,
		LogLevel:         "info",
		Backend:          BackendGPU,
		Headless: Headless{
			Hz:    60,
			Ticks: 0,
		},
		Scene: Scene{
			Power:      p.Power,
			Iterations: p.Iterations,
			MaxSteps:   p.MaxSteps,
		},
	}
}

// Load reads a TOML file over Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports every setting that is out of range.
func (c Config) Validate() error {
	var errs []error
	if !render.Tier(c.Tier).Valid() {
		errs = append(errs, fmt.Errorf("tier %d: want 1..4", c.Tier))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d: want positive", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d: want positive", c.FPS))
	}
	if c.PresentReserveMS < 0 {
		errs = append(errs, fmt.Errorf("present_reserve_ms %d: want >= 0", c.PresentReserveMS))
	}
	if c.Threshold() <= 0 {
		errs = append(errs, fmt.Errorf("present_reserve_ms %d leaves no budget at %d fps", c.PresentReserveMS, c.FPS))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Backend != BackendGPU && c.Backend != BackendSoft {
		errs = append(errs, fmt.Errorf("backend %q: want %q or %q", c.Backend, BackendGPU, BackendSoft))
	}
	if c.Headless.Hz <= 0 {
		errs = append(errs, fmt.Errorf("headless.hz %d: want positive", c.Headless.Hz))
	}
	if err := c.SceneParams().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RenderTier returns Tier as a render.Tier.
func (c Config) RenderTier() render.Tier { return render.Tier(c.Tier) }

// Threshold returns the per-frame pass budget.
func (c Config) Threshold() time.Duration {
	return render.Threshold(c.FPS, time.Duration(c.PresentReserveMS)*time.Millisecond)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// SceneParams returns the scene section as scene.Params.
func (c Config) SceneParams() scene.Params {
	return scene.Params{
		Power:      c.Scene.Power,
		Iterations: c.Scene.Iterations,
		MaxSteps:   c.Scene.MaxSteps,
	}
}

// bind registers every flag on fs, writing into c.
func (c *Config) bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Tier, "tier", c.Tier, "Quality tier 1..4.")
	fs.IntVar(&c.Width, "width", c.Width, "Viewport width in pixels.")
	fs.IntVar(&c.Height, "height", c.Height, "Viewport height in pixels.")
	fs.IntVar(&c.FPS, "fps", c.FPS, "Display refresh rate the frame budget is derived from.")
	fs.IntVar(&c.PresentReserveMS, "present-reserve-ms", c.PresentReserveMS, "Milliseconds of each frame kept for presenting.")
	fs.BoolVar(&c.HUD, "hud", c.HUD, "Show the stats overlay.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error.")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Window backend: gpu or soft.")
	fs.BoolVar(&c.Headless.Enabled, "headless", c.Headless.Enabled, "Run without a window.")
	fs.IntVar(&c.Headless.Hz, "hz", c.Headless.Hz, "Tick rate in headless mode.")
	fs.Uint64Var(&c.Headless.Ticks, "ticks", c.Headless.Ticks, "Stop after N ticks in headless mode (0 = run forever).")
	fs.StringVar(&c.Headless.Output, "out", c.Headless.Output, "Write the last frame to this PNG when a headless run ends.")
}

// Parse builds the configuration from command-line arguments: defaults,
// then the file named by -config, then every flag given explicitly. It
// returns the config file path, empty if none.
func Parse(name string, args []string) (Config, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "TOML config file; watched for changes while running.")
	fromFlags := Default()
	fromFlags.bind(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if *path != "" {
		var err error
		if cfg, err = Load(*path); err != nil {
			return Config{}, *path, err
		}
	}

	over := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.bind(over)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || setErr != nil {
			return
		}
		setErr = over.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return Config{}, *path, setErr
	}
	return cfg, *path, cfg.Validate()
}
