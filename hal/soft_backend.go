package hal

import (
	"errors"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"marcher/render"
)

// Shader evaluates one pixel of a full-resolution w×h frame.
type Shader interface {
	Pixel(st render.FrameState, x, y, w, h int) color.RGBA
}

// MaxSurfaceSize bounds either side of a surface. Larger requests fail
// like an out-of-memory allocation would.
const MaxSurfaceSize = 8192

var errSurfaceTooLarge = errors.New("hal: surface exceeds maximum size")

type softSurface struct {
	img *image.RGBA
}

func (s *softSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// SoftBackend renders on the CPU into image.RGBA surfaces. Passes are split
// into row bands evaluated in parallel; everything else runs on the caller.
type SoftBackend struct {
	shader  Shader
	workers int

	live     int
	front    *image.RGBA
	presents uint64
}

// NewSoftBackend returns a backend that evaluates passes with shader on
// up to workers goroutines. workers <= 0 means GOMAXPROCS.
func NewSoftBackend(shader Shader, workers int) *SoftBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &SoftBackend{shader: shader, workers: workers}
}

func (b *SoftBackend) NewSurface(w, h int) (render.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, render.ErrInvalidSize
	}
	if w > MaxSurfaceSize || h > MaxSurfaceSize {
		return nil, errSurfaceTooLarge
	}
	b.live++
	return &softSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

func (b *SoftBackend) Release(s render.Surface) {
	ss := s.(*softSurface)
	ss.img = nil
	b.live--
}

// Live returns the number of surfaces not yet released.
func (b *SoftBackend) Live() int { return b.live }

func (b *SoftBackend) RenderPass(target render.Surface, p render.PassParams) {
	img := target.(*softSurface).img
	sw, sh := img.Bounds().Dx(), img.Bounds().Dy()
	fw, fh := sw*p.Repeat.X, sh*p.Repeat.Y

	band := max(1, (sh+b.workers-1)/b.workers)
	var g errgroup.Group
	g.SetLimit(b.workers)
	for y0 := 0; y0 < sh; y0 += band {
		y0 := y0
		y1 := min(y0+band, sh)
		g.Go(func() error {
			for sy := y0; sy < y1; sy++ {
				for sx := 0; sx < sw; sx++ {
					c := b.shader.Pixel(p.State, sx*p.Repeat.X+p.Offset.X, sy*p.Repeat.Y+p.Offset.Y, fw, fh)
					img.SetRGBA(sx, sy, c)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (b *SoftBackend) Blit(target, src render.Surface) {
	dst := target.(*softSurface).img
	s := src.(*softSurface).img
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), s, s.Bounds(), draw.Src, nil)
}

func (b *SoftBackend) Upsample(target render.Surface, p render.UpsampleParams) {
	dst := target.(*softSurface).img
	prev := p.Previous.(*softSurface).img
	smp := p.Sample.(*softSurface).img
	if dst == prev {
		panic("hal: upsample target is its own input")
	}
	copy(dst.Pix, prev.Pix)

	sw, sh := smp.Bounds().Dx(), smp.Bounds().Dy()
	for sy := 0; sy < sh; sy++ {
		y := sy*p.Repeat.Y + p.Offset.Y
		for sx := 0; sx < sw; sx++ {
			dst.SetRGBA(sx*p.Repeat.X+p.Offset.X, y, smp.RGBAAt(sx, sy))
		}
	}
}

// Present copies s into the front image, which stays as it is until the
// next Present.
func (b *SoftBackend) Present(s render.Surface) {
	src := s.(*softSurface).img
	if b.front == nil || b.front.Bounds() != src.Bounds() {
		b.front = image.NewRGBA(src.Bounds())
	}
	copy(b.front.Pix, src.Pix)
	b.presents++
}

// Presented returns the front image and the number of presents so far. The
// image is nil before the first present and must not be modified.
func (b *SoftBackend) Presented() (*image.RGBA, uint64) {
	return b.front, b.presents
}
