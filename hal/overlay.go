package hal

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Overlay is an RGBA text layer composited over the presented frame. It
// implements the tinygo drivers.Displayer interface so tinyfont can draw
// on it.
//
// Drawing happens into a back buffer; Display publishes it, so the host
// never composites a half-drawn layer. An Overlay is used from the host
// loop goroutine only.
type Overlay struct {
	back    *image.RGBA
	front   *image.RGBA
	version uint64
	visible bool
}

// NewOverlay returns a transparent w×h overlay.
func NewOverlay(w, h int) *Overlay {
	return &Overlay{
		back:    image.NewRGBA(image.Rect(0, 0, w, h)),
		front:   image.NewRGBA(image.Rect(0, 0, w, h)),
		visible: true,
	}
}

func (o *Overlay) Size() (x, y int16) {
	b := o.back.Bounds()
	return int16(min(b.Dx(), 0x7fff)), int16(min(b.Dy(), 0x7fff))
}

func (o *Overlay) SetPixel(x, y int16, c color.RGBA) {
	if !(image.Point{int(x), int(y)}).In(o.back.Bounds()) {
		return
	}
	o.back.SetRGBA(int(x), int(y), c)
}

// Display publishes the back buffer.
func (o *Overlay) Display() error {
	o.front, o.back = o.back, o.front
	copy(o.back.Pix, o.front.Pix)
	o.version++
	return nil
}

// Clear makes the back buffer transparent.
func (o *Overlay) Clear() {
	clear(o.back.Pix)
}

// Fill paints a rectangle of the back buffer.
func (o *Overlay) Fill(r image.Rectangle, c color.RGBA) {
	draw.Draw(o.back, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Resize replaces both buffers with transparent w×h ones.
func (o *Overlay) Resize(w, h int) {
	if b := o.back.Bounds(); b.Dx() == w && b.Dy() == h {
		return
	}
	o.back = image.NewRGBA(image.Rect(0, 0, w, h))
	o.front = image.NewRGBA(image.Rect(0, 0, w, h))
	o.version++
}

// SetVisible shows or hides the published layer.
func (o *Overlay) SetVisible(v bool) {
	if o.visible != v {
		o.visible = v
		o.version++
	}
}

// Visible reports whether the layer is shown.
func (o *Overlay) Visible() bool {
	return o.visible
}

// Published returns the last published buffer and its version. The buffer
// must not be modified. It returns nil when the overlay is hidden.
func (o *Overlay) Published() (*image.RGBA, uint64) {
	if !o.visible {
		return nil, o.version
	}
	return o.front, o.version
}

// CompositeOnto draws the published layer over dst.
func (o *Overlay) CompositeOnto(dst draw.Image) {
	img, _ := o.Published()
	if img == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), img, image.Point{}, draw.Over)
}
