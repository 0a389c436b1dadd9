package app

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"marcher/hal"
	"marcher/internal/buildinfo"
	"marcher/internal/font5x7"
	"marcher/render"
)

const hudMargin = 4

var (
	hudFG = color.RGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
	hudBG = color.RGBA{A: 0xa0}
)

// hud draws session statistics in the top-left corner of the overlay. It
// redraws only when the text changes.
type hud struct {
	o     *hal.Overlay
	lines []string
}

func newHUD(o *hal.Overlay, visible bool) *hud {
	o.SetVisible(visible)
	return &hud{o: o}
}

func (h *hud) toggle() { h.show(!h.o.Visible()) }

func (h *hud) show(v bool) {
	h.o.SetVisible(v)
	if v {
		h.invalidate()
	}
}

// invalidate forces the next update to redraw.
func (h *hud) invalidate() { h.lines = nil }

func (h *hud) update(s *render.Session) {
	if !h.o.Visible() {
		return
	}
	lines := hudLines(s)
	if slices.Equal(lines, h.lines) {
		return
	}
	h.lines = lines

	h.o.Clear()
	width := 0
	for _, l := range lines {
		width = max(width, len(l)*font5x7.Advance)
	}
	h.o.Fill(image.Rect(0, 0, width+2*hudMargin, len(lines)*font5x7.LineHeight+2*hudMargin), hudBG)
	y := int16(hudMargin + font5x7.Ascent)
	for _, l := range lines {
		drawTextLine(h.o, font5x7.Font, hudMargin, y, l, hudFG)
		y += font5x7.LineHeight
	}
	_ = h.o.Display()
}

func hudLines(s *render.Session) []string {
	lines := []string{"marcher " + buildinfo.Short()}
	if s == nil {
		return append(lines, "idle")
	}
	vp := s.Viewport()
	st := s.Stats()
	plan := s.Plan()
	return append(lines,
		fmt.Sprintf("tier %d  %dx%d  grid %dx%d", s.Tier(), vp.W, vp.H, plan.Repeat.X, plan.Repeat.Y),
		fmt.Sprintf("frame %d/%d steps", st.LastSteps, plan.Steps()),
		fmt.Sprintf("runs %d  done %d", st.Runs, st.Completed),
		fmt.Sprintf("restarts %d  overruns %d", st.Restarts, st.Overruns),
	)
}

// drawTextLine draws s with its baseline at y, one glyph advance per rune.
func drawTextLine(d drivers.Displayer, font tinyfont.Fonter, x, y int16, s string, fg color.RGBA) {
	for _, r := range s {
		tinyfont.DrawChar(d, font, x, y, r, fg)
		x += font5x7.Advance
	}
}
