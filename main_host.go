package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"marcher/app"
	"marcher/config"
	"marcher/hal"
	"marcher/internal/buildinfo"
	"marcher/kernel"
	"marcher/render"
	"marcher/scene"
)

func main() {
	cfg, path, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg, path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, path string) error {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	render.SetLogger(log)
	log.Info("marcher starting", "version", buildinfo.Describe(), "tier", cfg.Tier,
		"width", cfg.Width, "height", cfg.Height, "headless", cfg.Headless.Enabled)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	g, ctx := errgroup.WithContext(ctx)

	reload := new(kernel.Mailbox[app.Settings])
	if path != "" {
		w, err := config.NewWatcher(path, log)
		if err != nil {
			cancel()
			return fmt.Errorf("watch %s: %w", path, err)
		}
		g.Go(func() error {
			return w.Run(ctx, func(c config.Config) {
				if l, err := c.SlogLevel(); err == nil {
					level.Set(l)
				}
				if !reload.TrySend(app.Settings{Tier: c.RenderTier(), HUD: c.HUD}) {
					log.Warn("config reload dropped")
				}
			})
		})
	}

	var a *app.App
	newApp := func(h hal.HAL) func() error {
		var err error
		a, err = app.NewApp(h, app.Config{
			Tier:        cfg.RenderTier(),
			Threshold:   cfg.Threshold(),
			HUD:         cfg.HUD,
			Reload:      reload,
			ExitOnPanic: cfg.Headless.Enabled,
			Log:         log,
		})
		if err != nil {
			return func() error { return err }
		}
		return func() error {
			if ctx.Err() != nil {
				return hal.ErrQuit
			}
			return a.Step()
		}
	}

	sc := scene.New(cfg.SceneParams())
	var hostErr error
	if cfg.Headless.Enabled {
		hostErr = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{
			Hz:     cfg.Headless.Hz,
			Ticks:  cfg.Headless.Ticks,
			Width:  cfg.Width,
			Height: cfg.Height,
			Output: cfg.Headless.Output,
			Shader: sc,
		})
	} else {
		hostErr = hal.RunWindow(newApp, hal.WindowConfig{
			Title:  "marcher " + buildinfo.Short(),
			Width:  cfg.Width,
			Height: cfg.Height,
			Soft:   cfg.Backend == config.BackendSoft,
			Params: sc.Params(),
			Shader: sc,
		})
	}
	if a != nil {
		a.Close()
	}
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if errors.Is(hostErr, context.Canceled) {
		log.Info("interrupted")
		return nil
	}
	return hostErr
}
