package controllers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"before-after/internal/config"
	"before-after/internal/event"
	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/memory"
	"before-after/internal/services"
	"before-after/internal/views"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	controller *MainController
	view       *views.MainView
	images     *services.ImageService
	repo       *models.ImageRepository
	broker     *event.Broker
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	app := test.NewTempApp(t)
	w := app.NewWindow("test")

	log := logger.NewNop()
	mem := memory.NewManager(log)
	repo := models.NewImageRepository()
	broker := event.NewBroker(16, log)

	// Loads are reported to the controller by hand so tests stay on one goroutine.
	images := services.NewImageService(mem, repo, nil, log)
	composite := services.NewCompositeService(mem, repo, log)

	mc := NewMainController(images, composite, repo, mem, broker, log, cfg)
	view := views.NewMainView(w, cfg.Margins)
	require.NoError(t, mc.SetMainView(view))
	// The test window lays the view out at its own size; tests measure by hand.
	view.SetMeasuredHandler(nil)
	mc.Measure(geometry.Size{})

	t.Cleanup(func() {
		mc.Shutdown()
		broker.Shutdown()
		repo.Shutdown()
		w.Close()
	})

	return &harness{controller: mc, view: view, images: images, repo: repo, broker: broker}
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (h *harness) load(t *testing.T, slot models.Slot, w, ht int, c color.RGBA) {
	t.Helper()
	data, err := h.images.LoadImage(context.Background(), slot, bytes.NewReader(solidPNG(t, w, ht, c)), slot.String()+".png")
	require.NoError(t, err)
	h.controller.onImageLoaded(slot, data)
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestMainController_InitialState(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Mode = models.Fade
	cfg.Value = 0.25
	h := newHarness(t, cfg)

	state := h.controller.State()
	a.Equal(models.Fade, state.Mode)
	a.Equal(0.25, state.Value)
	a.Equal(models.Fade, h.view.GetModeTabs().Mode())
	a.InDelta(0.25, h.view.GetDisplay().Value(), 1e-9)
	a.Equal("Onion Skin 25%", h.view.GetStatusBar().GetStatus())
	a.False(h.view.GetDisplay().Frame().Ready)
}

func TestMainController_RendersOnceBothLoadedAndMeasured(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Mode = models.Swipe
	h := newHarness(t, cfg)

	h.load(t, models.After, 100, 50, blue)
	a.False(h.view.GetDisplay().Frame().Ready)
	a.Equal("Waiting for the before image", h.view.GetDisplay().Message())

	h.load(t, models.Before, 100, 50, red)
	a.True(h.controller.State().Loaded())
	a.False(h.view.GetDisplay().Frame().Ready, "container not measured yet")
	a.True(h.view.GetToolbar().ComparisonOperationsEnabled())

	h.controller.Measure(geometry.Size{Width: 620, Height: 300})
	frame := h.view.GetDisplay().Frame()
	a.True(frame.Ready)
	a.Equal(models.Swipe, frame.Mode)
	a.Equal(geometry.Size{Width: 100, Height: 50}, frame.Box)
	a.True(h.view.GetDisplay().SliderVisible())
}

func TestMainController_ValueAndMode(t *testing.T) {
	a := assert.New(t)
	h := newHarness(t, config.Default())

	modes := make(chan models.DiffMode, 4)
	require.NoError(t, h.broker.Subscribe(event.ModeChanged, func(mode models.DiffMode) {
		modes <- mode
	}))

	h.controller.ChangeValue(7)
	a.Equal(1.0, h.controller.State().Value)

	h.controller.ChangeMode(models.SideBySide)
	h.controller.ChangeMode(models.Difference)
	a.Equal(models.Difference, h.controller.State().Mode)
	a.Equal("Difference", h.view.GetStatusBar().GetStatus())

	select {
	case mode := <-modes:
		a.Equal(models.Difference, mode)
	case <-time.After(2 * time.Second):
		t.Fatal("mode change was not published")
	}
	a.Empty(modes, "unchanged mode must not be published")
}

func TestMainController_SwapAndClear(t *testing.T) {
	a := assert.New(t)
	h := newHarness(t, config.Default())

	h.load(t, models.Before, 100, 50, red)
	h.load(t, models.After, 40, 40, blue)

	h.controller.Swap()
	state := h.controller.State()
	a.Equal(geometry.Size{Width: 40, Height: 40}, *state.Before)
	a.Equal(geometry.Size{Width: 100, Height: 50}, *state.After)
	a.Equal(40, h.repo.Get(models.Before).Width)
	a.Contains(h.view.GetStatusBar().ImageInfo(models.Before), "after.png 40x40")

	h.controller.Clear(models.After)
	a.Nil(h.controller.State().After)
	a.Nil(h.repo.Get(models.After))
	a.Equal("After: none", h.view.GetStatusBar().ImageInfo(models.After))
	a.False(h.view.GetToolbar().ComparisonOperationsEnabled())
}

func TestMainController_PreviewsSingleImage(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Mode = models.Swipe
	h := newHarness(t, cfg)

	h.controller.Measure(geometry.Size{Width: 620, Height: 300})
	h.load(t, models.After, 100, 50, blue)

	frame := h.view.GetDisplay().Frame()
	a.True(frame.Ready)
	a.True(frame.Preview)
	a.Equal(geometry.Size{Width: 100, Height: 50}, frame.Box)
	a.False(h.view.GetDisplay().SliderVisible())
	a.Empty(h.view.GetDisplay().Message())
	a.Equal("Waiting for the before image", h.view.GetStatusBar().GetStatus())
	a.False(h.view.GetToolbar().ComparisonOperationsEnabled())

	h.load(t, models.Before, 100, 50, red)
	frame = h.view.GetDisplay().Frame()
	a.True(frame.Ready)
	a.False(frame.Preview)
	a.True(h.view.GetDisplay().SliderVisible())
	a.Equal("Swipe 50%", h.view.GetStatusBar().GetStatus())
}

func TestMainController_LoadReportedAfterSwap(t *testing.T) {
	a := assert.New(t)
	h := newHarness(t, config.Default())

	h.load(t, models.Before, 40, 40, blue)
	data, err := h.images.LoadImage(context.Background(), models.After,
		bytes.NewReader(solidPNG(t, 100, 50, red)), "after.png")
	require.NoError(t, err)

	// The swap lands before the GUI hears about the load.
	h.controller.Swap()
	h.controller.onImageLoaded(models.After, data)

	state := h.controller.State()
	require.NotNil(t, state.Before)
	require.NotNil(t, state.After)
	a.Equal(geometry.Size{Width: 100, Height: 50}, *state.Before)
	a.Equal(geometry.Size{Width: 40, Height: 40}, *state.After)
	a.Same(data, h.repo.Get(models.Before))
	a.Contains(h.view.GetStatusBar().ImageInfo(models.Before), "after.png 100x50")
}

func TestMainController_DropsReplacedLoad(t *testing.T) {
	a := assert.New(t)
	h := newHarness(t, config.Default())

	stale, err := h.images.LoadImage(context.Background(), models.Before,
		bytes.NewReader(solidPNG(t, 100, 50, red)), "old.png")
	require.NoError(t, err)
	h.load(t, models.Before, 40, 40, blue)

	h.controller.onImageLoaded(models.Before, stale)
	require.NotNil(t, h.controller.State().Before)
	a.Equal(geometry.Size{Width: 40, Height: 40}, *h.controller.State().Before)

	h.controller.Clear(models.Before)
	h.controller.onImageLoaded(models.Before, stale)
	a.Nil(h.controller.State().Before)
}

func TestMainController_CloseComparison(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Mode = models.Fade
	h := newHarness(t, cfg)

	h.controller.Measure(geometry.Size{Width: 620, Height: 300})
	h.load(t, models.Before, 100, 50, red)
	h.load(t, models.After, 100, 50, blue)
	a.True(h.view.GetDisplay().Frame().Ready)

	h.controller.CloseComparison()

	state := h.controller.State()
	a.Nil(state.Before)
	a.Nil(state.After)
	a.Equal(models.Fade, state.Mode)
	a.Equal(0, h.repo.GetImageStats().LoadedCount)
	a.False(h.view.GetDisplay().Frame().Ready)
	a.Equal("Load a before and an after image to compare", h.view.GetDisplay().Message())
	a.Equal("Before: none", h.view.GetStatusBar().ImageInfo(models.Before))
	a.False(h.view.GetToolbar().ComparisonOperationsEnabled())
}

func TestMainController_StatsReport(t *testing.T) {
	a := assert.New(t)
	h := newHarness(t, config.Default())

	h.load(t, models.Before, 100, 50, red)
	report := h.controller.StatsReport()
	a.Contains(report, "Images loaded: 1")
	a.Contains(report, "Active Mats:")
}

func TestMainController_RenderExport(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Mode = models.Difference
	h := newHarness(t, cfg)

	_, err := h.controller.RenderExport(context.Background(), h.controller.State())
	a.ErrorIs(err, services.ErrNotReady)

	h.load(t, models.Before, 100, 50, red)
	h.load(t, models.After, 40, 40, blue)

	img, err := h.controller.RenderExport(context.Background(), h.controller.State())
	require.NoError(t, err)
	a.Equal(100, img.Bounds().Dx())
	a.Equal(50, img.Bounds().Dy())

	h.controller.Shutdown()
	_, err = h.controller.RenderExport(h.controller.ctx, h.controller.State())
	a.ErrorIs(err, context.Canceled)
}

func TestMainController_BrokerDeliversLoads(t *testing.T) {
	h := newHarness(t, config.Default())
	log := logger.NewNop()
	published := services.NewImageService(memory.NewManager(log), h.repo, h.broker, log)

	_, err := published.LoadImage(context.Background(), models.Before, bytes.NewReader(solidPNG(t, 8, 8, red)), "before.png")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return h.controller.State().Before != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStatusText(t *testing.T) {
	a := assert.New(t)

	a.Equal("2-up", StatusText(models.NewComparisonState(models.SideBySide, 0.5)))
	a.Equal("Swipe 50%", StatusText(models.NewComparisonState(models.Swipe, 0.5)))
	a.Equal("Onion Skin 3%", StatusText(models.NewComparisonState(models.Fade, 0.033)))
	a.Equal("comparison-fade.png", ExportFileName(models.Fade))
}
