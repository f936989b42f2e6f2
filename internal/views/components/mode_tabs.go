package components

import (
	"before-after/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var modeHints = map[models.DiffMode]string{
	models.SideBySide: "Both images next to each other.",
	models.Swipe:      "Drag the slider to reveal the after image from the right.",
	models.Fade:       "Drag the slider to fade from before to after.",
	models.Difference: "Bright pixels changed between before and after.",
}

// ModeTabs is the tab bar used to pick a DiffMode. Tab order follows models.AllModes.
type ModeTabs struct {
	tabs        *container.AppTabs
	handler     func(models.DiffMode)
	suppressing bool
}

func NewModeTabs() *ModeTabs {
	mt := &ModeTabs{}

	items := make([]*container.TabItem, 0, len(models.AllModes))
	for _, mode := range models.AllModes {
		items = append(items, container.NewTabItem(mode.Title(), widget.NewLabel(modeHints[mode])))
	}
	mt.tabs = container.NewAppTabs(items...)
	mt.tabs.SetTabLocation(container.TabLocationTop)
	mt.tabs.OnSelected = mt.selected

	return mt
}

func (mt *ModeTabs) selected(item *container.TabItem) {
	if mt.suppressing || mt.handler == nil {
		return
	}
	for i, candidate := range mt.tabs.Items {
		if candidate != item {
			continue
		}
		if mode, ok := models.ModeAt(i); ok {
			mt.handler(mode)
		}
		return
	}
}

// SetModeChangeHandler sets the handler called when the user picks a tab
func (mt *ModeTabs) SetModeChangeHandler(handler func(models.DiffMode)) {
	mt.handler = handler
}

// SetMode selects the tab for mode without notifying the handler
func (mt *ModeTabs) SetMode(mode models.DiffMode) {
	if !mode.Valid() {
		return
	}
	mt.suppressing = true
	defer func() { mt.suppressing = false }()
	mt.tabs.SelectIndex(int(mode))
}

// Mode returns the mode of the selected tab
func (mt *ModeTabs) Mode() models.DiffMode {
	mode, _ := models.ModeAt(mt.tabs.SelectedIndex())
	return mode
}

// Tabs exposes the underlying widget
func (mt *ModeTabs) Tabs() *container.AppTabs {
	return mt.tabs
}

func (mt *ModeTabs) GetContainer() fyne.CanvasObject {
	return mt.tabs
}
