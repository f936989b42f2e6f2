package components

import (
	"testing"

	"before-after/internal/geometry"
	"before-after/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestPlace_NotReady(t *testing.T) {
	a := assert.New(t)
	p := Place(Frame{Mode: models.Swipe}, geometry.DefaultMargins(), geometry.Size{Width: 1020, Height: 580})

	a.Equal(Rect{}, p.Before)
	a.Equal(Rect{}, p.Composite)
	a.Equal(Rect{X: 10, Y: 10, Width: 1000, Height: 500}, p.Message)
	a.Equal(Rect{X: 10, Y: 510, Width: 1000, Height: 60}, p.Controls)
}

func TestPlace_SideBySide(t *testing.T) {
	container := geometry.Size{Width: 1020, Height: 580}

	t.Run("fits", func(t *testing.T) {
		a := assert.New(t)
		frame := Frame{Mode: models.SideBySide, Box: geometry.Size{Width: 400, Height: 300}, Ready: true}
		p := Place(frame, geometry.DefaultMargins(), container)

		a.Equal(Rect{X: 110, Y: 110, Width: 400, Height: 300}, p.Before)
		a.Equal(Rect{X: 510, Y: 110, Width: 400, Height: 300}, p.After)
		a.Equal(Rect{}, p.Composite)
	})

	t.Run("scaled together", func(t *testing.T) {
		a := assert.New(t)
		frame := Frame{Mode: models.SideBySide, Box: geometry.Size{Width: 600, Height: 400}, Ready: true}
		p := Place(frame, geometry.DefaultMargins(), container)

		a.InDelta(10, p.Before.X, 1e-9)
		a.InDelta(500, p.Before.Width, 1e-9)
		a.InDelta(1000.0/3, p.Before.Height, 1e-9)
		a.InDelta(510, p.After.X, 1e-9)
		a.Equal(p.Before.Y, p.After.Y)
	})
}

func TestPlace_CompositeCentered(t *testing.T) {
	a := assert.New(t)
	frame := Frame{Mode: models.Fade, Box: geometry.Size{Width: 500, Height: 250}, Ready: true}
	p := Place(frame, geometry.DefaultMargins(), geometry.Size{Width: 1020, Height: 580})

	a.Equal(Rect{X: 260, Y: 135, Width: 500, Height: 250}, p.Composite)
	a.Equal(Rect{}, p.Before)
}

func TestPlace_PreviewUsesCompositeSlot(t *testing.T) {
	a := assert.New(t)
	frame := Frame{Mode: models.SideBySide, Box: geometry.Size{Width: 500, Height: 250}, Ready: true, Preview: true}
	p := Place(frame, geometry.DefaultMargins(), geometry.Size{Width: 1020, Height: 580})

	a.Equal(Rect{X: 260, Y: 135, Width: 500, Height: 250}, p.Composite)
	a.Equal(Rect{}, p.Before)
	a.Equal(Rect{}, p.After)
}

func TestPlace_TinyContainer(t *testing.T) {
	a := assert.New(t)
	p := Place(Frame{}, geometry.DefaultMargins(), geometry.Size{Width: 5, Height: 5})

	a.Equal(0.0, p.Message.Width)
	a.Equal(0.0, p.Message.Height)
	a.GreaterOrEqual(p.Controls.Y, 0.0)
}

func TestComparisonLayout_ReportsNewSizes(t *testing.T) {
	a := assert.New(t)
	layout := NewComparisonLayout(geometry.DefaultMargins())

	var measured []geometry.Size
	layout.SetMeasuredHandler(func(size geometry.Size) {
		measured = append(measured, size)
	})

	objects := make([]fyne.CanvasObject, 5)
	for i := range objects {
		objects[i] = canvas.NewRectangle(nil)
	}

	layout.SetFrame(Frame{Mode: models.Swipe, Box: geometry.Size{Width: 500, Height: 250}, Ready: true})
	layout.Layout(objects, fyne.NewSize(1020, 580))
	layout.Layout(objects, fyne.NewSize(1020, 580))
	layout.Layout(objects, fyne.NewSize(800, 600))

	a.Equal([]geometry.Size{{Width: 1020, Height: 580}, {Width: 800, Height: 600}}, measured)
	a.Equal(fyne.NewSize(500, 250), objects[2].Size())
}

func TestComparisonDisplay_Slider(t *testing.T) {
	test.NewTempApp(t)
	a := assert.New(t)
	cd := NewComparisonDisplay(geometry.DefaultMargins())

	var values []float64
	cd.SetValueHandler(func(v float64) {
		values = append(values, v)
	})

	cd.SetValue(0.7)
	a.InDelta(0.7, cd.Value(), 1e-9)
	a.Empty(values)

	cd.slider.OnChanged(0.3)
	a.Equal([]float64{0.3}, values)
}

func TestComparisonDisplay_Frame(t *testing.T) {
	test.NewTempApp(t)
	a := assert.New(t)
	cd := NewComparisonDisplay(geometry.DefaultMargins())

	a.Equal(placeholderText, cd.Message())
	a.False(cd.SliderVisible())

	cd.SetFrame(Frame{Mode: models.Fade})
	a.True(cd.SliderVisible())
	a.NotEmpty(cd.Message())

	cd.SetFrame(Frame{Mode: models.SideBySide, Box: geometry.Size{Width: 10, Height: 10}, Ready: true})
	a.False(cd.SliderVisible())
	a.Empty(cd.Message())
	a.True(cd.beforeImage.Visible())
	a.False(cd.compositeImage.Visible())

	cd.SetFrame(Frame{Mode: models.Difference, Box: geometry.Size{Width: 10, Height: 10}, Ready: true})
	a.False(cd.beforeImage.Visible())
	a.True(cd.compositeImage.Visible())

	cd.SetFrame(Frame{Mode: models.Swipe, Box: geometry.Size{Width: 10, Height: 10}, Ready: true, Preview: true})
	a.False(cd.SliderVisible(), "a single image has nothing to swipe")
	a.True(cd.compositeImage.Visible())
	a.Empty(cd.Message())

	cd.Reset()
	a.Equal(placeholderText, cd.Message())
	a.Equal(models.Swipe, cd.Frame().Mode)
	a.False(cd.Frame().Preview)
}

func TestModeTabs(t *testing.T) {
	test.NewTempApp(t)
	a := assert.New(t)
	mt := NewModeTabs()

	var picked []models.DiffMode
	mt.SetModeChangeHandler(func(mode models.DiffMode) {
		picked = append(picked, mode)
	})

	a.Len(mt.Tabs().Items, len(models.AllModes))
	a.Equal("Onion Skin", mt.Tabs().Items[2].Text)

	mt.SetMode(models.Fade)
	a.Equal(models.Fade, mt.Mode())
	a.Empty(picked)

	mt.Tabs().OnSelected(mt.Tabs().Items[3])
	a.Equal([]models.DiffMode{models.Difference}, picked)
}

func TestToolbar(t *testing.T) {
	test.NewTempApp(t)
	a := assert.New(t)
	tb := NewToolbar()

	var slots []models.Slot
	swaps := 0
	tb.SetLoadHandler(func(slot models.Slot) { slots = append(slots, slot) })
	tb.SetSwapHandler(func() { swaps++ })

	test.Tap(tb.loadAfterButton)
	test.Tap(tb.loadBeforeButton)
	a.Equal([]models.Slot{models.After, models.Before}, slots)

	a.False(tb.ComparisonOperationsEnabled())
	test.Tap(tb.swapButton)
	a.Equal(0, swaps)

	tb.EnableComparisonOperations(true)
	a.True(tb.ComparisonOperationsEnabled())
	test.Tap(tb.swapButton)
	a.Equal(1, swaps)
}

func TestStatusBar(t *testing.T) {
	test.NewTempApp(t)
	a := assert.New(t)
	sb := NewStatusBar()

	sb.SetImageInfo(models.Before, &models.ImageData{Source: "/tmp/shots/a.png", Width: 4, Height: 3, Format: "png"})
	a.Equal("Before: a.png 4x3 png", sb.ImageInfo(models.Before))
	a.Equal("After: none", sb.ImageInfo(models.After))

	sb.SetMemoryInfo(5*1024*1024, 10*1024*1024)
	sb.SetStatus("Rendering")
	a.Equal("Rendering", sb.GetStatus())

	sb.Reset()
	a.Equal("Ready", sb.GetStatus())
	a.Equal("Before: none", sb.ImageInfo(models.Before))
	a.Empty(sb.ImageInfo(models.Slot(7)))
}
