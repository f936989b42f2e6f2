package components

import (
	"fmt"
	"path/filepath"

	"before-after/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays application status and per-image information
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	beforeInfo  *widget.Label
	afterInfo   *widget.Label
	memoryInfo  *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Ready")
	sb.beforeInfo = widget.NewLabel(emptySlotText(models.Before))
	sb.afterInfo = widget.NewLabel(emptySlotText(models.After))
	sb.memoryInfo = widget.NewLabel("Memory: --")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.beforeInfo,
		widget.NewSeparator(),
		sb.afterInfo,
		widget.NewSeparator(),
		sb.memoryInfo,
	)
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetImageInfo shows the natural size of the image in slot; nil clears it
func (sb *StatusBar) SetImageInfo(slot models.Slot, data *models.ImageData) {
	label := sb.slotLabel(slot)
	if label == nil {
		return
	}
	if data == nil {
		label.SetText(emptySlotText(slot))
		return
	}
	label.SetText(fmt.Sprintf("%s: %s %dx%d %s",
		titleOf(slot), filepath.Base(data.Source), data.Width, data.Height, data.Format))
}

// ImageInfo returns the text currently shown for slot
func (sb *StatusBar) ImageInfo(slot models.Slot) string {
	if label := sb.slotLabel(slot); label != nil {
		return label.Text
	}
	return ""
}

func (sb *StatusBar) SetMemoryInfo(used, total int64) {
	usedMB := used / (1024 * 1024)
	totalMB := total / (1024 * 1024)
	sb.memoryInfo.SetText(fmt.Sprintf("Memory: %d/%d MB", usedMB, totalMB))
}

func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText("Ready")
	sb.beforeInfo.SetText(emptySlotText(models.Before))
	sb.afterInfo.SetText(emptySlotText(models.After))
	sb.memoryInfo.SetText("Memory: --")
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) slotLabel(slot models.Slot) *widget.Label {
	switch slot {
	case models.Before:
		return sb.beforeInfo
	case models.After:
		return sb.afterInfo
	default:
		return nil
	}
}

func titleOf(slot models.Slot) string {
	if slot == models.Before {
		return "Before"
	}
	return "After"
}

func emptySlotText(slot models.Slot) string {
	return titleOf(slot) + ": none"
}
