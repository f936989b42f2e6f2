package components

import (
	"before-after/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Toolbar holds the file and comparison actions
type Toolbar struct {
	container        *fyne.Container
	loadBeforeButton *widget.Button
	loadAfterButton  *widget.Button
	swapButton       *widget.Button
	exportButton     *widget.Button

	loadHandler   func(models.Slot)
	swapHandler   func()
	exportHandler func()
}

// NewToolbar creates a new toolbar component
func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	toolbar.setupEventHandlers()
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.loadBeforeButton = widget.NewButtonWithIcon("Load Before", theme.FolderOpenIcon(), nil)
	t.loadBeforeButton.Importance = widget.HighImportance

	t.loadAfterButton = widget.NewButtonWithIcon("Load After", theme.FolderOpenIcon(), nil)
	t.loadAfterButton.Importance = widget.HighImportance

	t.swapButton = widget.NewButtonWithIcon("Swap", theme.ViewRefreshIcon(), nil)
	t.swapButton.Disable()

	t.exportButton = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), nil)
	t.exportButton.Disable()
}

func (t *Toolbar) buildLayout() {
	t.container = container.NewHBox(
		t.loadBeforeButton,
		t.loadAfterButton,
		widget.NewSeparator(),
		t.swapButton,
		t.exportButton,
	)
}

func (t *Toolbar) setupEventHandlers() {
	t.loadBeforeButton.OnTapped = func() {
		if t.loadHandler != nil {
			t.loadHandler(models.Before)
		}
	}

	t.loadAfterButton.OnTapped = func() {
		if t.loadHandler != nil {
			t.loadHandler(models.After)
		}
	}

	t.swapButton.OnTapped = func() {
		if t.swapHandler != nil {
			t.swapHandler()
		}
	}

	t.exportButton.OnTapped = func() {
		if t.exportHandler != nil {
			t.exportHandler()
		}
	}
}

// SetLoadHandler sets the handler called with the slot to load into
func (t *Toolbar) SetLoadHandler(handler func(models.Slot)) {
	t.loadHandler = handler
}

func (t *Toolbar) SetSwapHandler(handler func()) {
	t.swapHandler = handler
}

func (t *Toolbar) SetExportHandler(handler func()) {
	t.exportHandler = handler
}

// EnableComparisonOperations toggles actions that need both images
func (t *Toolbar) EnableComparisonOperations(enabled bool) {
	if enabled {
		t.swapButton.Enable()
		t.exportButton.Enable()
	} else {
		t.swapButton.Disable()
		t.exportButton.Disable()
	}
}

// ComparisonOperationsEnabled reports whether swap and export are available
func (t *Toolbar) ComparisonOperationsEnabled() bool {
	return !t.swapButton.Disabled() && !t.exportButton.Disabled()
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
