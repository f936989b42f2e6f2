package views

import (
	"fmt"
	"image"
	"math"

	"before-after/internal/geometry"
	"before-after/internal/models"
	"before-after/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// NudgeStep is how far the arrow keys move the slider
const NudgeStep = 0.05

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// MainView represents the main application view using MVC pattern
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	modeTabs      *components.ModeTabs
	display       *components.ComparisonDisplay
	statusBar     *components.StatusBar

	// Event handlers - connected to controller
	loadHandler        func(models.Slot)
	swapHandler        func()
	exportHandler      func()
	clearHandler       func(models.Slot)
	closeHandler       func()
	statsHandler       func() string
	modeChangeHandler  func(models.DiffMode)
	valueChangeHandler func(float64)

	// OnModeChanged is called after the user switches to a different mode
	OnModeChanged func(models.DiffMode)
}

// NewMainView creates the view and sets it as the window content
func NewMainView(window fyne.Window, margins geometry.Margins) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents(margins)
	view.buildLayout()
	view.setupEventHandlers()

	return view
}

func (mv *MainView) initializeComponents(margins geometry.Margins) {
	mv.toolbar = components.NewToolbar()
	mv.modeTabs = components.NewModeTabs()
	mv.display = components.NewComparisonDisplay(margins)
	mv.statusBar = components.NewStatusBar()
}

func (mv *MainView) buildLayout() {
	topArea := container.NewVBox(
		mv.toolbar.GetContainer(),
		mv.modeTabs.GetContainer(),
	)

	mv.mainContainer = container.NewBorder(
		topArea,
		mv.statusBar.GetContainer(),
		nil,
		nil,
		mv.display.GetContainer(),
	)

	mv.window.SetContent(mv.mainContainer)
}

func (mv *MainView) setupEventHandlers() {
	mv.toolbar.SetLoadHandler(func(slot models.Slot) {
		if mv.loadHandler != nil {
			mv.loadHandler(slot)
		}
	})

	mv.toolbar.SetSwapHandler(func() {
		if mv.swapHandler != nil {
			mv.swapHandler()
		}
	})

	mv.toolbar.SetExportHandler(func() {
		if mv.exportHandler != nil {
			mv.exportHandler()
		}
	})

	mv.modeTabs.SetModeChangeHandler(mv.modeSelected)

	mv.display.SetValueHandler(func(value float64) {
		if mv.valueChangeHandler != nil {
			mv.valueChangeHandler(value)
		}
	})

	mv.window.Canvas().SetOnTypedKey(mv.typedKey)
}

func (mv *MainView) modeSelected(mode models.DiffMode) {
	if mv.modeChangeHandler != nil {
		mv.modeChangeHandler(mode)
	}
	if mv.OnModeChanged != nil {
		mv.OnModeChanged(mode)
	}
}

func (mv *MainView) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.Key1, fyne.Key2, fyne.Key3, fyne.Key4:
		index := int(ev.Name[0] - '1')
		if mode, ok := models.ModeAt(index); ok {
			mv.selectMode(mode)
		}
	case fyne.KeyLeft:
		mv.nudge(-NudgeStep)
	case fyne.KeyRight:
		mv.nudge(NudgeStep)
	}
}

// selectMode switches the tabs to mode as if the user picked it there
func (mv *MainView) selectMode(mode models.DiffMode) {
	if mode == mv.modeTabs.Mode() {
		return
	}
	mv.modeTabs.SetMode(mode)
	mv.modeSelected(mode)
}

func (mv *MainView) nudge(delta float64) {
	if !mv.modeTabs.Mode().UsesSlider() {
		return
	}
	value := math.Min(1, math.Max(0, mv.display.Value()+delta))
	mv.display.SetValue(value)
	if mv.valueChangeHandler != nil {
		mv.valueChangeHandler(value)
	}
}

// Event handler setters - called by controller

// SetLoadHandler sets the handler for load requests; it receives the target slot
func (mv *MainView) SetLoadHandler(handler func(models.Slot)) {
	mv.loadHandler = handler
}

func (mv *MainView) SetSwapHandler(handler func()) {
	mv.swapHandler = handler
}

func (mv *MainView) SetExportHandler(handler func()) {
	mv.exportHandler = handler
}

// SetClearHandler sets the handler for dropping the image in one slot
func (mv *MainView) SetClearHandler(handler func(models.Slot)) {
	mv.clearHandler = handler
}

// SetCloseHandler sets the handler for closing the whole comparison
func (mv *MainView) SetCloseHandler(handler func()) {
	mv.closeHandler = handler
}

// SetStatsHandler sets the source of the text shown by the statistics dialog
func (mv *MainView) SetStatsHandler(handler func() string) {
	mv.statsHandler = handler
}

// SetModeChangeHandler sets the handler for tab and keyboard mode changes
func (mv *MainView) SetModeChangeHandler(handler func(models.DiffMode)) {
	mv.modeChangeHandler = handler
}

// SetValueChangeHandler sets the handler for slider movement
func (mv *MainView) SetValueChangeHandler(handler func(float64)) {
	mv.valueChangeHandler = handler
}

// SetMeasuredHandler sets the handler called when the comparison area is laid out
func (mv *MainView) SetMeasuredHandler(handler func(geometry.Size)) {
	mv.display.SetMeasuredHandler(handler)
}

// UI update methods - called by controller

// SetMode selects the tab for mode without reporting a change
func (mv *MainView) SetMode(mode models.DiffMode) {
	fyne.Do(func() {
		mv.modeTabs.SetMode(mode)
	})
}

// SetValue moves the slider without reporting a change
func (mv *MainView) SetValue(value float64) {
	fyne.Do(func() {
		mv.display.SetValue(value)
	})
}

// ShowComparison draws a frame. Side by side uses the natural images, the
// other modes use the rendered composite.
func (mv *MainView) ShowComparison(frame components.Frame, before, after, composite image.Image) {
	fyne.Do(func() {
		mv.display.SetImages(before, after)
		mv.display.SetComposite(composite)
		mv.display.SetFrame(frame)
	})
}

// ShowMessage hides the images and shows text in the comparison area
func (mv *MainView) ShowMessage(mode models.DiffMode, text string) {
	fyne.Do(func() {
		mv.display.SetMessage(text)
		mv.display.SetFrame(components.Frame{Mode: mode})
	})
}

func (mv *MainView) UpdateStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

// SetImageInfo updates the status bar entry for slot; nil clears it
func (mv *MainView) SetImageInfo(slot models.Slot, data *models.ImageData) {
	fyne.Do(func() {
		mv.statusBar.SetImageInfo(slot, data)
	})
}

func (mv *MainView) SetMemoryInfo(used, total int64) {
	fyne.Do(func() {
		mv.statusBar.SetMemoryInfo(used, total)
	})
}

// EnableComparisonOperations enables actions that need both images
func (mv *MainView) EnableComparisonOperations(enabled bool) {
	fyne.Do(func() {
		mv.toolbar.EnableComparisonOperations(enabled)
	})
}

func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", title, err), mv.window)
	})
}

func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// ShowFileDialog asks for an image file
func (mv *MainView) ShowFileDialog(callback func(fyne.URIReadCloser, error)) {
	fyne.Do(func() {
		d := dialog.NewFileOpen(callback, mv.window)
		d.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
		d.Show()
	})
}

// ShowSaveDialog asks where to write an export, suggesting fileName
func (mv *MainView) ShowSaveDialog(fileName string, callback func(fyne.URIWriteCloser, error)) {
	fyne.Do(func() {
		d := dialog.NewFileSave(callback, mv.window)
		d.SetFileName(fileName)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg"}))
		d.Show()
	})
}

// ResetView returns every component to its initial state
func (mv *MainView) ResetView() {
	fyne.Do(func() {
		mv.display.Reset()
		mv.statusBar.Reset()
		mv.toolbar.EnableComparisonOperations(false)
	})
}

// ShowAboutDialog displays application information
func (mv *MainView) ShowAboutDialog(appName, version string) {
	fyne.Do(func() {
		content := container.NewVBox(
			widget.NewLabel(appName),
			widget.NewLabel(fmt.Sprintf("Version: %s", version)),
			widget.NewLabel(""),
			widget.NewLabel("Keys 1-4 switch modes, Left and Right move the slider."),
		)

		dialog.ShowCustom("About", "Close", content, mv.window)
	})
}

func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

func (mv *MainView) Resize(width, height float32) {
	fyne.Do(func() {
		mv.window.Resize(fyne.NewSize(width, height))
	})
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) GetContainer() *fyne.Container {
	return mv.mainContainer
}

func (mv *MainView) GetDisplay() *components.ComparisonDisplay {
	return mv.display
}

func (mv *MainView) GetModeTabs() *components.ModeTabs {
	return mv.modeTabs
}

func (mv *MainView) GetToolbar() *components.Toolbar {
	return mv.toolbar
}

func (mv *MainView) GetStatusBar() *components.StatusBar {
	return mv.statusBar
}
