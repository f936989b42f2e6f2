package geometry

import "math"

const (
	// DefaultPadding is reserved on both axes around the drawing area.
	DefaultPadding = 20
	// DefaultControlsHeight is reserved below the drawing area for the slider row.
	DefaultControlsHeight = 60
)

// Size is a width/height pair in pixels. It is used both for natural image
// dimensions and for the measured size of the hosting surface.
type Size struct {
	Width  float64
	Height float64
}

// NewSize creates a Size from integer pixel dimensions
func NewSize(width, height int) Size {
	return Size{Width: float64(width), Height: float64(height)}
}

// IsZero reports whether both dimensions are zero
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Finite reports whether neither dimension is NaN or infinite
func (s Size) Finite() bool {
	return !math.IsNaN(s.Width) && !math.IsInf(s.Width, 0) &&
		!math.IsNaN(s.Height) && !math.IsInf(s.Height, 0)
}

// Pixels rounds the size to whole pixels, never below zero
func (s Size) Pixels() (int, int) {
	return roundPixels(s.Width), roundPixels(s.Height)
}

func roundPixels(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if math.IsInf(v, 1) || v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

// Measurable reports whether a container has positive extent on both axes.
// A container that is not measurable has not been laid out yet.
func Measurable(container Size) bool {
	return container.Width > 0 && container.Height > 0
}

// Margins is the fixed space subtracted from a container before fitting
type Margins struct {
	Padding        float64
	ControlsHeight float64
}

// DefaultMargins returns the margins used by the comparison view
func DefaultMargins() Margins {
	return Margins{Padding: DefaultPadding, ControlsHeight: DefaultControlsHeight}
}

// Usable returns the drawing area left after reserving padding and controls.
// The result is negative when the container is smaller than the margins.
func (m Margins) Usable(container Size) Size {
	return Size{
		Width:  container.Width - m.Padding,
		Height: container.Height - m.Padding - m.ControlsHeight,
	}
}

// Fit scales image down to the container using the default margins
func Fit(image, container Size) Size {
	return DefaultMargins().Fit(image, container)
}

// Fit scales image down so it fits the usable part of container. The aspect
// ratio is preserved and the image is never scaled above its natural size.
//
// The result is always a pure function of the inputs. Containers smaller than
// the margins give degenerate but finite sizes; callers should check
// Measurable before rendering.
func (m Margins) Fit(image, container Size) Size {
	usable := m.Usable(container)

	heightRatio := 1.0
	if image.Height > usable.Height {
		heightRatio = image.Height / usable.Height
	}
	widthRatio := 1.0
	if image.Width > usable.Width {
		widthRatio = image.Width / usable.Width
	}

	ratio := widthRatio
	if widthRatio < heightRatio {
		ratio = heightRatio
	}
	// NaN fails every comparison, so it must be checked before the clamp.
	if math.IsNaN(ratio) || ratio < 1 {
		ratio = 1
	}

	return Size{
		Width:  image.Width / ratio,
		Height: image.Height / ratio,
	}
}
