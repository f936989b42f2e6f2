package components

import (
	"math"

	"before-after/internal/geometry"
	"before-after/internal/models"

	"fyne.io/fyne/v2"
)

// Frame describes what the comparison area should draw. A preview frame shows
// the one loaded image in the composite slot.
type Frame struct {
	Mode    models.DiffMode
	Box     geometry.Size
	Ready   bool
	Preview bool
}

// Rect is a position and size inside the comparison area
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Placement is where each part of the comparison area goes
type Placement struct {
	Before    Rect
	After     Rect
	Composite Rect
	Controls  Rect
	Message   Rect
}

// Place computes the placement of every object for a frame inside a
// container of the given size. It has no side effects.
func Place(frame Frame, margins geometry.Margins, container geometry.Size) Placement {
	half := margins.Padding / 2
	usable := margins.Usable(container)
	area := Rect{
		X:      half,
		Y:      half,
		Width:  math.Max(0, usable.Width),
		Height: math.Max(0, usable.Height),
	}

	p := Placement{
		Controls: Rect{
			X:      half,
			Y:      math.Max(0, container.Height-half-margins.ControlsHeight),
			Width:  area.Width,
			Height: math.Min(margins.ControlsHeight, math.Max(0, container.Height-half)),
		},
		Message: area,
	}

	if !frame.Ready || !frame.Box.Finite() {
		return p
	}

	if frame.Mode == models.SideBySide && !frame.Preview {
		// Two columns of the shared box, scaled down together if they do not fit.
		pair := margins.Fit(geometry.Size{Width: frame.Box.Width * 2, Height: frame.Box.Height}, container)
		column := pair.Width / 2
		origin := centered(area, pair)
		p.Before = Rect{X: origin.X, Y: origin.Y, Width: column, Height: pair.Height}
		p.After = Rect{X: origin.X + column, Y: origin.Y, Width: column, Height: pair.Height}
		return p
	}

	origin := centered(area, frame.Box)
	p.Composite = Rect{X: origin.X, Y: origin.Y, Width: frame.Box.Width, Height: frame.Box.Height}
	return p
}

func centered(area Rect, size geometry.Size) Rect {
	return Rect{
		X: area.X + math.Max(0, (area.Width-size.Width)/2),
		Y: area.Y + math.Max(0, (area.Height-size.Height)/2),
	}
}

// ComparisonLayout positions the comparison objects and reports every new
// container size through onMeasured. Objects must be ordered before, after,
// composite, controls, message.
type ComparisonLayout struct {
	margins    geometry.Margins
	frame      Frame
	lastSize   fyne.Size
	onMeasured func(geometry.Size)
}

func NewComparisonLayout(margins geometry.Margins) *ComparisonLayout {
	return &ComparisonLayout{margins: margins}
}

func (cl *ComparisonLayout) SetFrame(frame Frame) {
	cl.frame = frame
}

func (cl *ComparisonLayout) Frame() Frame {
	return cl.frame
}

func (cl *ComparisonLayout) SetMeasuredHandler(handler func(geometry.Size)) {
	cl.onMeasured = handler
}

func (cl *ComparisonLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if size != cl.lastSize {
		cl.lastSize = size
		if cl.onMeasured != nil {
			cl.onMeasured(geometry.Size{Width: float64(size.Width), Height: float64(size.Height)})
		}
	}

	p := Place(cl.frame, cl.margins, geometry.Size{Width: float64(size.Width), Height: float64(size.Height)})
	rects := []Rect{p.Before, p.After, p.Composite, p.Controls, p.Message}
	for i, obj := range objects {
		if i >= len(rects) {
			break
		}
		r := rects[i]
		obj.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
		obj.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
	}
}

func (cl *ComparisonLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	width := float32(cl.margins.Padding)
	height := float32(cl.margins.Padding + cl.margins.ControlsHeight)
	if len(objects) > 3 {
		controls := objects[3].MinSize()
		width += controls.Width
	}
	return fyne.NewSize(width, height)
}
