package geometry

import (
	"fmt"
	"math"
	"strings"
)

// BoundsPolicy selects how the widths of the two fitted images are combined
// into the shared frame.
type BoundsPolicy int

const (
	// BoundsMatched takes the larger of the two widths.
	BoundsMatched BoundsPolicy = iota
	// BoundsCrossDimension takes the larger of the before width and the after
	// height. Older releases of the viewer sized the frame this way and some
	// saved screenshots depend on it.
	BoundsCrossDimension
)

func (p BoundsPolicy) String() string {
	switch p {
	case BoundsMatched:
		return "matched"
	case BoundsCrossDimension:
		return "cross-dimension"
	default:
		return fmt.Sprintf("BoundsPolicy(%d)", int(p))
	}
}

// ParseBoundsPolicy converts a policy name back into a BoundsPolicy
func ParseBoundsPolicy(name string) (BoundsPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "matched":
		return BoundsMatched, nil
	case "cross-dimension", "cross":
		return BoundsCrossDimension, nil
	default:
		return BoundsMatched, fmt.Errorf("unknown bounds policy %q", name)
	}
}

// SharedBounds combines the fitted sizes of both images into one frame that
// both are drawn in. ok is false until both sizes are known.
func SharedBounds(before, after *Size, policy BoundsPolicy) (Size, bool) {
	if before == nil || after == nil {
		return Size{}, false
	}

	width := math.Max(before.Width, after.Width)
	if policy == BoundsCrossDimension {
		width = math.Max(before.Width, after.Height)
	}

	return Size{
		Width:  width,
		Height: math.Max(before.Height, after.Height),
	}, true
}

// SingleBounds returns the frame for whichever image is available. When both
// are available it defers to SharedBounds.
func SingleBounds(before, after *Size, policy BoundsPolicy) (Size, bool) {
	switch {
	case before != nil && after != nil:
		return SharedBounds(before, after, policy)
	case before != nil:
		return *before, true
	case after != nil:
		return *after, true
	default:
		return Size{}, false
	}
}
