package controllers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"before-after/internal/config"
	"before-after/internal/event"
	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/memory"
	"before-after/internal/services"
	"before-after/internal/views"
	"before-after/internal/views/components"

	"fyne.io/fyne/v2"
	"github.com/disintegration/imaging"
)

const loadTimeout = 30 * time.Second

// MainController turns view and image events into ComparisonState changes and
// redraws the comparison after each one.
type MainController struct {
	// Services
	imageService     *services.ImageService
	compositeService *services.CompositeService
	memoryManager    *memory.Manager
	broker           *event.Broker
	logger           logger.Logger

	imageRepo *models.ImageRepository
	margins   geometry.Margins
	policy    geometry.BoundsPolicy

	mainView *views.MainView

	mu     sync.Mutex
	state  models.ComparisonState
	ctx    context.Context
	cancel context.CancelFunc
	loads  map[models.Slot]*pendingLoad
}

type pendingLoad struct {
	cancel context.CancelFunc
}

func NewMainController(
	imageService *services.ImageService,
	compositeService *services.CompositeService,
	imageRepo *models.ImageRepository,
	memoryManager *memory.Manager,
	broker *event.Broker,
	log logger.Logger,
	cfg config.Config,
) *MainController {
	ctx, cancel := context.WithCancel(context.Background())
	return &MainController{
		imageService:     imageService,
		compositeService: compositeService,
		memoryManager:    memoryManager,
		broker:           broker,
		logger:           log,
		imageRepo:        imageRepo,
		margins:          cfg.Margins,
		policy:           cfg.BoundsPolicy,
		state:            models.NewComparisonState(cfg.Mode, cfg.Value),
		ctx:              ctx,
		cancel:           cancel,
		loads:            make(map[models.Slot]*pendingLoad),
	}
}

// SetMainView associates the main view with this controller and subscribes to
// image events
func (mc *MainController) SetMainView(view *views.MainView) error {
	mc.mainView = view
	mc.setupViewEventHandlers()

	if err := mc.broker.ConnectToGui(event.ImageLoaded, mc.onImageLoaded); err != nil {
		return err
	}
	if err := mc.broker.ConnectToGui(event.ImageFailed, mc.onImageFailed); err != nil {
		return err
	}

	state := mc.State()
	view.SetMode(state.Mode)
	view.SetValue(state.Value)
	mc.render(state)
	return nil
}

func (mc *MainController) setupViewEventHandlers() {
	mc.mainView.SetLoadHandler(mc.LoadImage)
	mc.mainView.SetSwapHandler(mc.Swap)
	mc.mainView.SetExportHandler(mc.Export)
	mc.mainView.SetClearHandler(mc.Clear)
	mc.mainView.SetCloseHandler(mc.CloseComparison)
	mc.mainView.SetStatsHandler(mc.StatsReport)
	mc.mainView.SetModeChangeHandler(mc.ChangeMode)
	mc.mainView.SetValueChangeHandler(mc.ChangeValue)
	mc.mainView.SetMeasuredHandler(mc.Measure)
}

// State returns a copy of the current comparison state
func (mc *MainController) State() models.ComparisonState {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.state
}

// dispatch reduces ev into the state and redraws
func (mc *MainController) dispatch(ev models.Event) models.ComparisonState {
	mc.mu.Lock()
	prev := mc.state
	mc.state = models.Reduce(mc.state, ev)
	next := mc.state
	mc.mu.Unlock()

	if next.Mode != prev.Mode {
		mc.broker.Publish(event.ModeChanged, next.Mode)
	}
	mc.render(next)
	return next
}

// ChangeMode handles a mode picked by the user
func (mc *MainController) ChangeMode(mode models.DiffMode) {
	mc.dispatch(models.ModeSelected{Mode: mode})
}

// ChangeValue handles slider movement
func (mc *MainController) ChangeValue(value float64) {
	mc.dispatch(models.ValueChanged{Value: value})
}

// Measure handles a new size of the comparison area
func (mc *MainController) Measure(size geometry.Size) {
	mc.dispatch(models.ContainerMeasured{Size: size})
}

// LoadImage asks the user for a file and loads it into slot in the background
func (mc *MainController) LoadImage(slot models.Slot) {
	if mc.mainView == nil {
		return
	}
	mc.mainView.ShowFileDialog(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mc.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}
		go mc.loadFromReader(slot, reader)
	})
}

func (mc *MainController) loadFromReader(slot models.Slot, reader fyne.URIReadCloser) {
	defer reader.Close()

	ctx, done := mc.beginLoad(slot)
	defer done()

	mc.updateStatus(fmt.Sprintf("Loading %s image...", slot))
	// Success and failure both arrive through the broker.
	_, _ = mc.imageService.LoadImage(ctx, slot, reader, reader.URI().Path())
}

// LoadPath loads the file at path into slot in the background. Loads of the
// two slots are independent and may finish in either order.
func (mc *MainController) LoadPath(slot models.Slot, path string) {
	go func() {
		ctx, done := mc.beginLoad(slot)
		defer done()

		mc.updateStatus(fmt.Sprintf("Loading %s image...", slot))
		_, _ = mc.imageService.LoadFile(ctx, slot, path)
	}()
}

// beginLoad cancels any load still running for slot and returns the context
// for the new one
func (mc *MainController) beginLoad(slot models.Slot) (context.Context, func()) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if pending, ok := mc.loads[slot]; ok {
		pending.cancel()
	}
	ctx, cancel := context.WithTimeout(mc.ctx, loadTimeout)
	load := &pendingLoad{cancel: cancel}
	mc.loads[slot] = load

	return ctx, func() {
		cancel()
		mc.mu.Lock()
		defer mc.mu.Unlock()
		// A newer load may already own the slot.
		if mc.loads[slot] == load {
			delete(mc.loads, slot)
		}
	}
}

// onImageLoaded runs on the GUI goroutine after a load stored data. A swap or
// clear may have moved or dropped data since, so the repository decides which
// slot it is reported for.
func (mc *MainController) onImageLoaded(slot models.Slot, data *models.ImageData) {
	if data == nil || !slot.Valid() {
		return
	}
	switch {
	case mc.imageRepo.Get(slot) == data:
	case mc.imageRepo.Get(otherSlot(slot)) == data:
		slot = otherSlot(slot)
	default:
		mc.logger.Debug("dropping stale load", map[string]interface{}{"slot": slot.String()})
		return
	}
	if mc.mainView != nil {
		mc.mainView.SetImageInfo(slot, data)
	}
	mc.dispatch(models.ImageLoaded{Slot: slot, Size: data.Size()})
	mc.updateMemoryInfo()
}

func (mc *MainController) onImageFailed(slot models.Slot, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	mc.handleError(fmt.Sprintf("Loading %s image failed", slot), err)
	mc.updateStatus("Ready")
}

// Swap exchanges the before and after images
func (mc *MainController) Swap() {
	mc.imageService.Swap()
	if mc.mainView != nil {
		mc.mainView.SetImageInfo(models.Before, mc.imageRepo.Get(models.Before))
		mc.mainView.SetImageInfo(models.After, mc.imageRepo.Get(models.After))
	}
	mc.dispatch(models.Swapped{})
}

// Clear removes the image in slot
func (mc *MainController) Clear(slot models.Slot) {
	mc.imageRepo.Clear(slot)
	if mc.mainView != nil {
		mc.mainView.SetImageInfo(slot, nil)
	}
	mc.dispatch(models.ImageCleared{Slot: slot})
	mc.updateMemoryInfo()
}

// CloseComparison drops both images, cancels pending loads and returns the
// view to its initial state
func (mc *MainController) CloseComparison() {
	mc.mu.Lock()
	for slot, pending := range mc.loads {
		pending.cancel()
		delete(mc.loads, slot)
	}
	mc.mu.Unlock()

	mc.imageRepo.ClearAll()
	if mc.mainView != nil {
		mc.mainView.ResetView()
	}
	mc.dispatch(models.ImageCleared{Slot: models.Before})
	mc.dispatch(models.ImageCleared{Slot: models.After})
	mc.updateMemoryInfo()
	mc.logger.Info("comparison closed", nil)
}

func otherSlot(slot models.Slot) models.Slot {
	if slot == models.Before {
		return models.After
	}
	return models.Before
}

// Export asks for a destination and writes the current mode at the natural
// size of the images
func (mc *MainController) Export() {
	state := mc.State()
	if _, ok := geometry.SharedBounds(state.Before, state.After, mc.policy); !ok {
		mc.handleError("Export failed", services.ErrNotReady)
		return
	}
	if mc.mainView == nil {
		return
	}

	mc.mainView.ShowSaveDialog(ExportFileName(state.Mode), func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mc.handleError("File save error", err)
			return
		}
		if writer == nil {
			return
		}
		go func() {
			defer writer.Close()

			format, ferr := imaging.FormatFromExtension(writer.URI().Extension())
			if ferr != nil {
				format = imaging.PNG
			}
			img, err := mc.RenderExport(mc.ctx, state)
			if err == nil {
				err = mc.imageService.SaveImage(writer, img, format)
			}
			if err != nil {
				mc.handleError("Export failed", err)
				return
			}
			mc.logger.Info("comparison exported", map[string]interface{}{
				"mode": state.Mode.String(),
				"path": writer.URI().Path(),
			})
			mc.updateStatus("Exported " + writer.URI().Name())
		}()
	})
}

// RenderExport renders state at the natural size of its images
func (mc *MainController) RenderExport(ctx context.Context, state models.ComparisonState) (image.Image, error) {
	box, ok := geometry.SharedBounds(state.Before, state.After, mc.policy)
	if !ok {
		return nil, services.ErrNotReady
	}
	return mc.compositeService.Render(ctx, state.Mode, state.Value, box)
}

// ExportFileName suggests a file name for exporting mode
func ExportFileName(mode models.DiffMode) string {
	return "comparison-" + mode.String() + ".png"
}

// render redraws the comparison for state
func (mc *MainController) render(state models.ComparisonState) {
	if mc.mainView == nil {
		return
	}
	mc.mainView.EnableComparisonOperations(state.Loaded())
	mc.mainView.UpdateStatus(StatusText(state))

	box, ok := state.Bounds(mc.margins, mc.policy)
	if !ok {
		if !state.Loaded() {
			mc.renderPreview(state)
		}
		return
	}
	frame := components.Frame{Mode: state.Mode, Box: box, Ready: true}

	if state.Mode == models.SideBySide {
		before, after, ok := mc.imageRepo.Both()
		if !ok {
			return
		}
		mc.mainView.ShowComparison(frame, before.Image, after.Image, nil)
		return
	}

	composite, err := mc.compositeService.Render(mc.ctx, state.Mode, state.Value, box)
	if err != nil {
		if !errors.Is(err, services.ErrNotReady) && !errors.Is(err, context.Canceled) {
			mc.logger.Error("render failed", err, map[string]interface{}{"mode": state.Mode.String()})
			mc.mainView.ShowMessage(state.Mode, "Rendering failed: "+err.Error())
		}
		return
	}
	mc.mainView.ShowComparison(frame, nil, nil, composite)
}

// renderPreview shows the one loaded image on its own until the other arrives
func (mc *MainController) renderPreview(state models.ComparisonState) {
	var data *models.ImageData
	switch {
	case state.Before != nil:
		data = mc.imageRepo.Get(models.Before)
	case state.After != nil:
		data = mc.imageRepo.Get(models.After)
	}

	box, ok := state.PreviewBounds(mc.margins, mc.policy)
	if !ok || data == nil {
		mc.mainView.ShowMessage(state.Mode, waitingText(state))
		return
	}
	mc.mainView.UpdateStatus(waitingText(state))
	frame := components.Frame{Mode: state.Mode, Box: box, Ready: true, Preview: true}
	mc.mainView.ShowComparison(frame, nil, nil, data.Image)
}

// StatsReport summarizes memory and render statistics for the user
func (mc *MainController) StatsReport() string {
	images := mc.imageRepo.GetImageStats()
	renders := mc.compositeService.GetRenderStats()
	report := fmt.Sprintf("Images loaded: %d\nImage memory: %s\nRenders: %d (avg %s)",
		images.LoadedCount,
		formatBytes(images.TotalMemoryUsage),
		renders.TotalRendered,
		renders.AverageTime().Round(time.Millisecond),
	)
	if mc.memoryManager == nil {
		return report
	}
	mats := mc.memoryManager.GetStats()
	return report + fmt.Sprintf("\nActive Mats: %d\nMat memory: %s\nPool hits/misses: %d/%d",
		mats.ActiveMats, formatBytes(mats.InUse()), mats.PoolHits, mats.PoolMisses)
}

func formatBytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}

// StatusText describes state for the status bar
func StatusText(state models.ComparisonState) string {
	if !state.SliderVisible() {
		return state.Mode.Title()
	}
	return fmt.Sprintf("%s %d%%", state.Mode.Title(), int(math.Round(state.Value*100)))
}

func waitingText(state models.ComparisonState) string {
	switch {
	case state.Before == nil && state.After == nil:
		return "Load a before and an after image to compare"
	case state.Before == nil:
		return "Waiting for the before image"
	default:
		return "Waiting for the after image"
	}
}

func (mc *MainController) updateStatus(status string) {
	if mc.mainView != nil {
		mc.mainView.UpdateStatus(status)
	}
}

func (mc *MainController) updateMemoryInfo() {
	if mc.mainView == nil || mc.memoryManager == nil {
		return
	}
	stats := mc.memoryManager.GetStats()
	mc.mainView.SetMemoryInfo(stats.InUse(), stats.MaxAllowed)
}

// handleError logs err and shows it to the user
func (mc *MainController) handleError(title string, err error) {
	mc.logger.Error(title, err, nil)
	if mc.mainView != nil {
		mc.mainView.ShowError(title, err)
	}
}

// Shutdown cancels outstanding loads and renders
func (mc *MainController) Shutdown() {
	mc.cancel()

	mc.mu.Lock()
	for slot, pending := range mc.loads {
		pending.cancel()
		delete(mc.loads, slot)
	}
	mc.mu.Unlock()

	mc.logger.Info("controller stopped", nil)
}
