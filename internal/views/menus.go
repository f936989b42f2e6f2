package views

import (
	"fmt"

	"before-after/internal/models"

	"fyne.io/fyne/v2"
)

// SetupMenus installs the main menu. appName and version feed the About dialog.
func (mv *MainView) SetupMenus(appName, version string) {
	mv.window.SetMainMenu(mv.buildMainMenu(appName, version))
}

func (mv *MainView) buildMainMenu(appName, version string) *fyne.MainMenu {
	quit := fyne.NewMenuItem("Quit", func() {
		if app := fyne.CurrentApp(); app != nil {
			app.Quit()
		}
	})
	quit.IsQuit = true

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Before...", func() { mv.callSlot(mv.loadHandler, models.Before) }),
		fyne.NewMenuItem("Open After...", func() { mv.callSlot(mv.loadHandler, models.After) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Comparison...", func() { mv.call(mv.exportHandler) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Before", func() { mv.callSlot(mv.clearHandler, models.Before) }),
		fyne.NewMenuItem("Clear After", func() { mv.callSlot(mv.clearHandler, models.After) }),
		fyne.NewMenuItem("Close Comparison", func() { mv.call(mv.closeHandler) }),
		fyne.NewMenuItemSeparator(),
		quit,
	)

	viewItems := make([]*fyne.MenuItem, 0, len(models.AllModes)+2)
	for i, mode := range models.AllModes {
		item := fyne.NewMenuItem(fmt.Sprintf("%s (%d)", mode.Title(), i+1), func() { mv.selectMode(mode) })
		viewItems = append(viewItems, item)
	}
	viewItems = append(viewItems,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Swap Images", func() {
			if mv.toolbar.ComparisonOperationsEnabled() {
				mv.call(mv.swapHandler)
			}
		}),
	)
	viewMenu := fyne.NewMenu("View", viewItems...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Memory Stats", func() {
			if mv.statsHandler != nil {
				mv.ShowInfo("Memory Statistics", mv.statsHandler())
			}
		}),
		fyne.NewMenuItem("About", func() { mv.ShowAboutDialog(appName, version) }),
	)

	return fyne.NewMainMenu(fileMenu, viewMenu, helpMenu)
}

func (mv *MainView) call(handler func()) {
	if handler != nil {
		handler()
	}
}

func (mv *MainView) callSlot(handler func(models.Slot), slot models.Slot) {
	if handler != nil {
		handler(slot)
	}
}
