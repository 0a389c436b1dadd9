//go:build cgo

package hal

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"marcher/scene"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
	// Soft selects the CPU backend instead of the Kage shaders.
	Soft    bool
	Params  scene.Params
	Shader  Shader
	Workers int
}

// RunWindow opens a resizable window and calls the application step once
// per display refresh. It blocks until the window closes or the step
// returns an error; ErrQuit closes the window cleanly.
func RunWindow(newApp func(HAL) func() error, cfg WindowConfig) error {
	g := &hostGame{}
	if cfg.Soft {
		if cfg.Shader == nil {
			return errors.New("hal: soft backend needs a shader")
		}
		g.soft = NewSoftBackend(cfg.Shader, cfg.Workers)
		g.h = newHostHAL(g.soft, cfg.Width, cfg.Height)
	} else {
		b, err := NewGPUBackend(cfg.Params)
		if err != nil {
			return fmt.Errorf("gpu backend: %w", err)
		}
		g.gpu = b
		g.h = newHostHAL(b, cfg.Width, cfg.Height)
	}
	g.kbd = newHostKeyboard(g.h.in)
	g.newApp = newApp

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	h      *hostHAL
	kbd    *hostKeyboard
	newApp func(HAL) func() error
	step   func() error

	gpu  *GPUBackend
	soft *SoftBackend

	softImg     *ebiten.Image
	softVersion uint64

	overlayImg     *ebiten.Image
	overlayVersion uint64
}

func (g *hostGame) Update() error {
	// The app starts on the first Update, once Layout has reported the
	// window size.
	if g.step == nil {
		g.step = g.newApp(g.h)
	}
	g.kbd.poll()
	if err := g.step(); err != nil {
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	if frame := g.frame(); frame != nil {
		screen.DrawImage(frame, nil)
	}
	if o := g.overlay(); o != nil {
		screen.DrawImage(o, nil)
	}
}

func (g *hostGame) frame() *ebiten.Image {
	if g.gpu != nil {
		return g.gpu.Presented()
	}
	img, version := g.soft.Presented()
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if g.softImg == nil || g.softImg.Bounds().Size() != b.Size() {
		if g.softImg != nil {
			g.softImg.Deallocate()
		}
		g.softImg = ebiten.NewImage(b.Dx(), b.Dy())
		g.softVersion = 0
	}
	if version != g.softVersion {
		g.softImg.WritePixels(img.Pix)
		g.softVersion = version
	}
	return g.softImg
}

func (g *hostGame) overlay() *ebiten.Image {
	img, version := g.h.disp.overlay.Published()
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if g.overlayImg == nil || g.overlayImg.Bounds().Size() != b.Size() {
		if g.overlayImg != nil {
			g.overlayImg.Deallocate()
		}
		g.overlayImg = ebiten.NewImage(b.Dx(), b.Dy())
		g.overlayVersion = 0
	}
	if version != g.overlayVersion {
		g.overlayImg.WritePixels(img.Pix)
		g.overlayVersion = version
	}
	return g.overlayImg
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.h.disp.resize(outsideWidth, outsideHeight) {
		g.h.in.emit(Event{Kind: EventResize, Width: outsideWidth, Height: outsideHeight})
	}
	return outsideWidth, outsideHeight
}
