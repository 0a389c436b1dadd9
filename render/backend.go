package render

import (
	"errors"
	"time"
)

// ErrInvalidSize is returned by backends asked for a surface with a
// non-positive dimension.
var ErrInvalidSize = errors.New("render: invalid surface size")

// Surface is an opaque backend-owned 2D pixel buffer. Implementations must
// be comparable (pointer types in practice): surfaces are told apart with ==.
type Surface interface {
	Size() (w, h int)
}

// Size is a width/height pair in pixels.
type Size struct{ W, H int }

// PassParams are the inputs of one partial render pass.
type PassParams struct {
	// ScreenSize is the size of the target sample surface.
	ScreenSize Size
	Offset     Offset
	Repeat     Repeat
	State      FrameState
}

// UpsampleParams are the inputs of one accumulation step.
type UpsampleParams struct {
	Sample   Surface
	Previous Surface
	Repeat   Repeat
	Offset   Offset
	// ScreenSize is the full viewport size.
	ScreenSize Size
}

// Backend provides the graphics primitives a Session drives.
//
// Draw methods have no error return: allocation is the only operation that
// can fail, and it happens before any pass runs.
type Backend interface {
	NewSurface(w, h int) (Surface, error)
	Release(s Surface)

	// RenderPass evaluates the scene for one Repeat cell offset into target.
	RenderPass(target Surface, p PassParams)
	// Blit draws src scaled to cover target.
	Blit(target, src Surface)
	// Upsample writes p.Previous with p.Sample's pixels placed at p.Offset
	// of every Repeat cell into target. target is never p.Previous.
	Upsample(target Surface, p UpsampleParams)
	// Present draws s to the display.
	Present(s Surface)
}

// Scheduler is the host's cooperative timeline.
type Scheduler interface {
	// Defer runs fn at the next idle slot, possibly within the current
	// display refresh.
	Defer(fn func())
	// OnFrame runs fn after the next display refresh.
	OnFrame(fn func())
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DefaultThreshold is the budget for the passes of one display frame: a 60Hz
// frame minus 4ms reserved for presenting and other host work.
const DefaultThreshold = time.Second/60 - 4*time.Millisecond

// Threshold returns the per-frame budget for a display rate and a reserve
// kept for presentation.
func Threshold(fps int, reserve time.Duration) time.Duration {
	if fps <= 0 {
		return DefaultThreshold
	}
	t := time.Second/time.Duration(fps) - reserve
	if t <= 0 {
		return 0
	}
	return t
}
