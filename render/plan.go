package render

import (
	"errors"
	"fmt"
	"slices"
)

// Tier selects a quality/performance level.
type Tier uint8

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

// DefaultTier is the tier a new application starts with.
const DefaultTier = Tier3

func (t Tier) String() string {
	switch t {
	case Tier1, Tier2, Tier3, Tier4:
		return fmt.Sprintf("tier%d", uint8(t))
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the four tiers.
func (t Tier) Valid() bool { return t >= Tier1 && t <= Tier4 }

// TierFromRune maps the tier-select keys '1'..'4' to tiers.
func TierFromRune(r rune) (Tier, bool) {
	if r < '1' || r > '4' {
		return 0, false
	}
	return Tier(r - '0'), true
}

// SmallViewportWidth is the widest viewport that gets the small-screen plan
// regardless of tier.
const SmallViewportWidth = 800

// Repeat is the subdivision grid of a plan: every pass renders one pixel out
// of each X×Y cell.
type Repeat struct{ X, Y int }

// Cells returns X*Y.
func (r Repeat) Cells() int { return r.X * r.Y }

// Offset selects the pixel of each Repeat cell a pass computes.
type Offset struct{ X, Y int }

// Plan is the ordered set of passes that make up one full frame.
//
// The (0,0) pass is implicit and always runs first; Offsets lists the
// refinement passes that follow it, in order.
type Plan struct {
	Repeat  Repeat
	Offsets []Offset
}

// Steps returns the number of passes in a full frame, including the
// mandatory first one.
func (p Plan) Steps() int { return len(p.Offsets) + 1 }

var (
	errPlanRepeat    = errors.New("render: plan repeat must be positive")
	errPlanTooLong   = errors.New("render: plan has more steps than repeat cells")
	errPlanRange     = errors.New("render: plan offset outside repeat grid")
	errPlanDuplicate = errors.New("render: plan offset repeated")
)

// Validate checks the plan invariants.
func (p Plan) Validate() error {
	if p.Repeat.X <= 0 || p.Repeat.Y <= 0 {
		return errPlanRepeat
	}
	if p.Steps() > p.Repeat.Cells() {
		return fmt.Errorf("%w: %d steps, %d cells", errPlanTooLong, p.Steps(), p.Repeat.Cells())
	}
	seen := map[Offset]bool{{}: true}
	for _, o := range p.Offsets {
		if o.X < 0 || o.Y < 0 || o.X >= p.Repeat.X || o.Y >= p.Repeat.Y {
			return fmt.Errorf("%w: %v", errPlanRange, o)
		}
		if seen[o] {
			return fmt.Errorf("%w: %v", errPlanDuplicate, o)
		}
		seen[o] = true
	}
	return nil
}

// The traversal order of each table is part of the contract: early bail-outs
// must leave a dispersed set of computed pixels.
var (
	plan2x2 = Plan{
		Repeat:  Repeat{2, 2},
		Offsets: []Offset{{1, 1}, {0, 1}, {1, 0}},
	}
	plan1x1 = Plan{
		Repeat: Repeat{1, 1},
	}
	plan3x3 = Plan{
		Repeat: Repeat{3, 3},
		Offsets: []Offset{
			{2, 2}, {0, 2}, {2, 0}, {1, 1},
			{1, 0}, {0, 1}, {2, 1}, {1, 2},
		},
	}
	plan4x4 = Plan{
		Repeat: Repeat{4, 4},
		Offsets: []Offset{
			{2, 2}, {3, 0}, {0, 3}, {1, 1}, {3, 3},
			{2, 1}, {1, 2}, {1, 0}, {3, 1}, {2, 3},
			{0, 2}, {2, 0}, {3, 2}, {1, 3}, {0, 1},
		},
	}
)

// PlanFor returns the plan for a tier and viewport. It is pure; the returned
// Offsets slice is the caller's to keep.
//
// Small viewports use fewer, larger passes to keep the per-pass overhead
// down; only the width decides what counts as small. Unknown tiers fall back
// to Tier4.
func PlanFor(tier Tier, width, _ int) Plan {
	var p Plan
	switch {
	case width <= SmallViewportWidth:
		p = plan2x2
	case tier == Tier1:
		p = plan1x1
	case tier == Tier2:
		p = plan2x2
	case tier == Tier3:
		p = plan3x3
	default:
		p = plan4x4
	}
	return Plan{Repeat: p.Repeat, Offsets: slices.Clone(p.Offsets)}
}
