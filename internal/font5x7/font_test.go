package font5x7

import (
	"image/color"
	"testing"

	"tinygo.org/x/tinyfont"
)

type recorder struct {
	set map[[2]int16]bool
}

func (r *recorder) Size() (x, y int16) { return 64, 16 }

func (r *recorder) SetPixel(x, y int16, c color.RGBA) {
	if r.set == nil {
		r.set = map[[2]int16]bool{}
	}
	r.set[[2]int16{x, y}] = true
}

func (r *recorder) Display() error { return nil }

func TestTableCoversASCII(t *testing.T) {
	if got, want := len(glyphData), (0x7e-0x20+1)*5; got != want {
		t.Fatalf("len(glyphData) = %d, want %d", got, want)
	}
}

func TestUnknownRuneDrawsQuestionMark(t *testing.T) {
	if got, want := glyphIndex('Ж'), glyphIndex('?'); got != want {
		t.Fatalf("glyphIndex('Ж') = %d, want %d", got, want)
	}
}

func TestDrawStaysInCell(t *testing.T) {
	var r recorder
	tinyfont.DrawChar(&r, Font, 10, 10, 'g', color.RGBA{A: 255})
	if len(r.set) == 0 {
		t.Fatalf("DrawChar('g') set no pixels")
	}
	for p := range r.set {
		if p[0] < 10 || p[0] >= 15 || p[1] < 10-Ascent || p[1] > 10 {
			t.Fatalf("pixel %v outside the glyph cell", p)
		}
	}
}

func TestSpaceIsBlank(t *testing.T) {
	var r recorder
	tinyfont.DrawChar(&r, Font, 0, 8, ' ', color.RGBA{A: 255})
	if len(r.set) != 0 {
		t.Fatalf("space set %d pixels", len(r.set))
	}
}
