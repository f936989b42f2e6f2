package models

import (
	"fmt"
	"strings"
)

// DiffMode selects how the before and after images are composed
type DiffMode int

const (
	SideBySide DiffMode = iota
	Swipe
	Fade
	Difference
)

// AllModes lists every mode in tab order
var AllModes = []DiffMode{SideBySide, Swipe, Fade, Difference}

func (m DiffMode) String() string {
	switch m {
	case SideBySide:
		return "side-by-side"
	case Swipe:
		return "swipe"
	case Fade:
		return "fade"
	case Difference:
		return "difference"
	default:
		return fmt.Sprintf("DiffMode(%d)", int(m))
	}
}

// Title is the label shown on the mode tab
func (m DiffMode) Title() string {
	switch m {
	case SideBySide:
		return "2-up"
	case Swipe:
		return "Swipe"
	case Fade:
		return "Onion Skin"
	case Difference:
		return "Difference"
	default:
		return m.String()
	}
}

// Valid reports whether m is one of the defined modes
func (m DiffMode) Valid() bool {
	return m >= SideBySide && m <= Difference
}

// UsesSlider reports whether the mode is driven by the interaction value
func (m DiffMode) UsesSlider() bool {
	return m == Swipe || m == Fade
}

// ParseDiffMode converts a mode name into a DiffMode
func ParseDiffMode(name string) (DiffMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "side-by-side", "sidebyside", "2-up":
		return SideBySide, nil
	case "swipe":
		return Swipe, nil
	case "fade", "onion-skin", "onion":
		return Fade, nil
	case "difference", "diff":
		return Difference, nil
	default:
		return SideBySide, fmt.Errorf("unknown diff mode %q", name)
	}
}

// ModeAt returns the mode shown at a tab index
func ModeAt(index int) (DiffMode, bool) {
	if index < 0 || index >= len(AllModes) {
		return SideBySide, false
	}
	return AllModes[index], true
}

// Slot names which side of the comparison an image occupies
type Slot int

const (
	Before Slot = iota
	After
)

func (s Slot) String() string {
	switch s {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// Valid reports whether s is Before or After
func (s Slot) Valid() bool {
	return s == Before || s == After
}
