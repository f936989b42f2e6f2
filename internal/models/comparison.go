package models

import (
	"math"

	"before-after/internal/geometry"
)

// ComparisonState is the complete interactive state of one comparison view.
// It is a value type; Reduce returns a new state rather than mutating.
type ComparisonState struct {
	Mode      DiffMode
	Value     float64
	Before    *geometry.Size
	After     *geometry.Size
	Container geometry.Size
}

// NewComparisonState creates the state shown before any image has loaded
func NewComparisonState(mode DiffMode, value float64) ComparisonState {
	if !mode.Valid() {
		mode = SideBySide
	}
	return ComparisonState{Mode: mode, Value: clampUnit(value)}
}

// Event is a discrete change applied to a ComparisonState
type Event interface {
	isEvent()
}

// ValueChanged is sent when the user moves the slider
type ValueChanged struct {
	Value float64
}

// ImageLoaded is sent when an image has been decoded and measured
type ImageLoaded struct {
	Slot Slot
	Size geometry.Size
}

// ImageCleared is sent when an image is removed from a slot
type ImageCleared struct {
	Slot Slot
}

// ContainerMeasured is sent whenever the hosting surface is laid out
type ContainerMeasured struct {
	Size geometry.Size
}

// ModeSelected is sent when the user switches tabs
type ModeSelected struct {
	Mode DiffMode
}

// Swapped is sent when before and after trade places
type Swapped struct{}

func (ValueChanged) isEvent()      {}
func (ImageLoaded) isEvent()       {}
func (ImageCleared) isEvent()      {}
func (ContainerMeasured) isEvent() {}
func (ModeSelected) isEvent()      {}
func (Swapped) isEvent()           {}

// Reduce applies ev to state and returns the resulting state
func Reduce(state ComparisonState, ev Event) ComparisonState {
	switch e := ev.(type) {
	case ValueChanged:
		state.Value = clampUnit(e.Value)
	case ImageLoaded:
		size := e.Size
		switch e.Slot {
		case Before:
			state.Before = &size
		case After:
			state.After = &size
		}
	case ImageCleared:
		switch e.Slot {
		case Before:
			state.Before = nil
		case After:
			state.After = nil
		}
	case ContainerMeasured:
		state.Container = e.Size
	case ModeSelected:
		if e.Mode.Valid() {
			state.Mode = e.Mode
		}
	case Swapped:
		state.Before, state.After = state.After, state.Before
	}
	return state
}

// Loaded reports whether both images have been measured
func (s ComparisonState) Loaded() bool {
	return s.Before != nil && s.After != nil
}

// SliderVisible reports whether the current mode exposes the slider
func (s ComparisonState) SliderVisible() bool {
	return s.Mode.UsesSlider()
}

// Fitted returns the display size of each loaded image in the current container
func (s ComparisonState) Fitted(margins geometry.Margins) (before, after *geometry.Size) {
	if s.Before != nil {
		fitted := margins.Fit(*s.Before, s.Container)
		before = &fitted
	}
	if s.After != nil {
		fitted := margins.Fit(*s.After, s.Container)
		after = &fitted
	}
	return before, after
}

// Bounds returns the shared frame both images are drawn in. ok is false until
// both images are loaded and the container can be measured.
func (s ComparisonState) Bounds(margins geometry.Margins, policy geometry.BoundsPolicy) (geometry.Size, bool) {
	if !geometry.Measurable(s.Container) {
		return geometry.Size{}, false
	}
	before, after := s.Fitted(margins)
	return geometry.SharedBounds(before, after, policy)
}

// PreviewBounds is like Bounds but also answers when only one image is loaded
func (s ComparisonState) PreviewBounds(margins geometry.Margins, policy geometry.BoundsPolicy) (geometry.Size, bool) {
	if !geometry.Measurable(s.Container) {
		return geometry.Size{}, false
	}
	before, after := s.Fitted(margins)
	return geometry.SingleBounds(before, after, policy)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
