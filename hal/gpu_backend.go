//go:build cgo

package hal

import (
	_ "embed"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"marcher/render"
	"marcher/scene"
)

//go:embed shaders/mandelbulb.kage
var mandelbulbKage []byte

//go:embed shaders/upsample.kage
var upsampleKage []byte

type gpuSurface struct {
	img *ebiten.Image
}

func (s *gpuSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// GPUBackend renders with Kage shaders into ebiten images. It must be used
// from the ebiten game loop.
type GPUBackend struct {
	params   scene.Params
	bulb     *ebiten.Shader
	upsample *ebiten.Shader

	live     int
	front    *ebiten.Image
	presents uint64
}

// NewGPUBackend compiles the shaders.
func NewGPUBackend(p scene.Params) (*GPUBackend, error) {
	bulb, err := ebiten.NewShader(mandelbulbKage)
	if err != nil {
		return nil, fmt.Errorf("mandelbulb shader: %w", err)
	}
	up, err := ebiten.NewShader(upsampleKage)
	if err != nil {
		bulb.Deallocate()
		return nil, fmt.Errorf("upsample shader: %w", err)
	}
	return &GPUBackend{params: p, bulb: bulb, upsample: up}, nil
}

func (b *GPUBackend) NewSurface(w, h int) (render.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, render.ErrInvalidSize
	}
	if w > MaxSurfaceSize || h > MaxSurfaceSize {
		return nil, errSurfaceTooLarge
	}
	b.live++
	return &gpuSurface{img: ebiten.NewImage(w, h)}, nil
}

func (b *GPUBackend) Release(s render.Surface) {
	gs := s.(*gpuSurface)
	gs.img.Deallocate()
	gs.img = nil
	b.live--
}

func (b *GPUBackend) RenderPass(target render.Surface, p render.PassParams) {
	img := target.(*gpuSurface).img
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	st := p.State
	img.DrawRectShader(w, h, b.bulb, &ebiten.DrawRectShaderOptions{
		Blend: ebiten.BlendCopy,
		Uniforms: map[string]any{
			"ScreenSize":      []float32{float32(p.ScreenSize.W), float32(p.ScreenSize.H)},
			"Offset":          []float32{float32(p.Offset.X), float32(p.Offset.Y)},
			"Repeat":          []float32{float32(p.Repeat.X), float32(p.Repeat.Y)},
			"CameraPosition":  st.CameraPosition[:],
			"CameraDirection": st.CameraDirection[:],
			"ScrollX":         st.ScrollX,
			"ScrollY":         st.ScrollY,
			"Power":           b.params.Power,
			"Iterations":      float32(b.params.Iterations),
			"MaxSteps":        float32(b.params.MaxSteps),
		},
	})
}

func (b *GPUBackend) Blit(target, src render.Surface) {
	dst := target.(*gpuSurface).img
	s := src.(*gpuSurface).img
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy}
	op.GeoM.Scale(
		float64(dst.Bounds().Dx())/float64(s.Bounds().Dx()),
		float64(dst.Bounds().Dy())/float64(s.Bounds().Dy()),
	)
	dst.DrawImage(s, op)
}

func (b *GPUBackend) Upsample(target render.Surface, p render.UpsampleParams) {
	dst := target.(*gpuSurface).img
	prev := p.Previous.(*gpuSurface).img
	smp := p.Sample.(*gpuSurface).img

	dst.DrawImage(prev, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})

	sw, sh := smp.Bounds().Dx(), smp.Bounds().Dy()
	op := &ebiten.DrawRectShaderOptions{
		Blend: ebiten.BlendCopy,
		Uniforms: map[string]any{
			"Repeat": []float32{float32(p.Repeat.X), float32(p.Repeat.Y)},
			"Offset": []float32{float32(p.Offset.X), float32(p.Offset.Y)},
		},
	}
	op.Images[0] = smp
	op.GeoM.Scale(float64(p.Repeat.X), float64(p.Repeat.Y))
	dst.DrawRectShader(sw, sh, b.upsample, op)
}

// Present draws s into the front image the window shows.
func (b *GPUBackend) Present(s render.Surface) {
	src := s.(*gpuSurface).img
	if b.front == nil || b.front.Bounds() != src.Bounds() {
		if b.front != nil {
			b.front.Deallocate()
		}
		b.front = ebiten.NewImage(src.Bounds().Dx(), src.Bounds().Dy())
	}
	b.front.DrawImage(src, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})
	b.presents++
}

// Presented returns the front image, or nil before the first present.
func (b *GPUBackend) Presented() *ebiten.Image {
	return b.front
}
