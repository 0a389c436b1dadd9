package hal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz     int
	Ticks  uint64
	Width  int
	Height int
	// Output, when set, receives the last presented frame as a PNG when
	// the run ends.
	Output string

	Shader  Shader
	Workers int
}

// RunHeadless runs the application on the software backend without opening
// a window. A ticker stands in for the display refresh.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.Shader == nil {
		return errors.New("hal: headless run needs a shader")
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	b := NewSoftBackend(cfg.Shader, cfg.Workers)
	h := newHostHAL(b, cfg.Width, cfg.Height)
	step := newApp(h)

	err := runTicker(ctx, d, cfg.Ticks, step)
	if errors.Is(err, ErrQuit) {
		err = nil
	}
	if cfg.Output != "" {
		img, _ := b.Presented()
		if img == nil {
			return errors.Join(err, errors.New("hal: no frame presented"))
		}
		if werr := WritePNG(cfg.Output, img, h.disp.overlay); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

func runTicker(ctx context.Context, d time.Duration, ticks uint64, step func() error) error {
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if ticks > 0 && tick >= ticks {
				return nil
			}
		}
	}
}

// WritePNG writes frame with the overlay composited on top.
func WritePNG(path string, frame *image.RGBA, o *Overlay) error {
	out := image.NewRGBA(frame.Bounds())
	copy(out.Pix, frame.Pix)
	if o != nil {
		o.CompositeOnto(out)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
