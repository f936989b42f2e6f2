package components

import (
	"image"

	"before-after/internal/geometry"
	"before-after/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	sliderStep      = 0.01
	placeholderText = "Load a before and an after image to compare"
)

// ComparisonDisplay draws the before and after images for the current mode
// and owns the slider that drives swipe and fade.
type ComparisonDisplay struct {
	container *fyne.Container
	layout    *ComparisonLayout

	beforeImage    *canvas.Image
	afterImage     *canvas.Image
	compositeImage *canvas.Image
	slider         *widget.Slider
	controls       *fyne.Container
	placeholder    *widget.Label

	valueHandler     func(float64)
	suppressingValue bool
}

// NewComparisonDisplay creates the comparison area using margins for its
// padding and slider row
func NewComparisonDisplay(margins geometry.Margins) *ComparisonDisplay {
	cd := &ComparisonDisplay{layout: NewComparisonLayout(margins)}
	cd.createComponents()
	cd.buildLayout()
	cd.refresh()
	return cd
}

func (cd *ComparisonDisplay) createComponents() {
	cd.beforeImage = newContainImage()
	cd.afterImage = newContainImage()
	cd.compositeImage = newContainImage()

	cd.slider = widget.NewSlider(0, 1)
	cd.slider.Step = sliderStep
	cd.slider.OnChanged = cd.valueChanged

	cd.controls = container.NewBorder(nil, nil,
		widget.NewLabel("Before"), widget.NewLabel("After"), cd.slider)

	cd.placeholder = widget.NewLabel(placeholderText)
	cd.placeholder.Alignment = fyne.TextAlignCenter
}

func newContainImage() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	return img
}

func (cd *ComparisonDisplay) buildLayout() {
	cd.container = container.New(cd.layout,
		cd.beforeImage,
		cd.afterImage,
		cd.compositeImage,
		cd.controls,
		cd.placeholder,
	)
}

func (cd *ComparisonDisplay) valueChanged(value float64) {
	if cd.suppressingValue || cd.valueHandler == nil {
		return
	}
	cd.valueHandler(value)
}

// SetValueHandler sets the handler called when the user drags the slider
func (cd *ComparisonDisplay) SetValueHandler(handler func(float64)) {
	cd.valueHandler = handler
}

// SetMeasuredHandler sets the handler called with every new container size
func (cd *ComparisonDisplay) SetMeasuredHandler(handler func(geometry.Size)) {
	cd.layout.SetMeasuredHandler(handler)
}

// SetValue moves the slider without notifying the value handler
func (cd *ComparisonDisplay) SetValue(value float64) {
	cd.suppressingValue = true
	defer func() { cd.suppressingValue = false }()
	cd.slider.SetValue(value)
}

// Value returns the slider position
func (cd *ComparisonDisplay) Value() float64 {
	return cd.slider.Value
}

// SetImages sets the natural before and after images used by side by side mode
func (cd *ComparisonDisplay) SetImages(before, after image.Image) {
	cd.beforeImage.Image = before
	cd.afterImage.Image = after
	cd.beforeImage.Refresh()
	cd.afterImage.Refresh()
}

// SetComposite sets the rendered image used by swipe, fade and difference, or
// the single image of a preview
func (cd *ComparisonDisplay) SetComposite(img image.Image) {
	cd.compositeImage.Image = img
	cd.compositeImage.Refresh()
}

// SetFrame updates mode and shared bounds and lays the area out again
func (cd *ComparisonDisplay) SetFrame(frame Frame) {
	cd.layout.SetFrame(frame)
	cd.refresh()
}

// Frame returns the frame currently drawn
func (cd *ComparisonDisplay) Frame() Frame {
	return cd.layout.Frame()
}

// SliderVisible reports whether the slider row is shown
func (cd *ComparisonDisplay) SliderVisible() bool {
	return cd.controls.Visible()
}

// Message returns the placeholder text, empty while images are shown
func (cd *ComparisonDisplay) Message() string {
	if !cd.placeholder.Visible() {
		return ""
	}
	return cd.placeholder.Text
}

// SetMessage replaces the placeholder text
func (cd *ComparisonDisplay) SetMessage(text string) {
	cd.placeholder.SetText(text)
}

// Reset clears all images and shows the placeholder again
func (cd *ComparisonDisplay) Reset() {
	cd.SetImages(nil, nil)
	cd.SetComposite(nil)
	cd.placeholder.SetText(placeholderText)
	frame := cd.layout.Frame()
	frame.Ready = false
	frame.Preview = false
	cd.SetFrame(frame)
}

func (cd *ComparisonDisplay) refresh() {
	frame := cd.layout.Frame()
	sideBySide := frame.Ready && !frame.Preview && frame.Mode == models.SideBySide
	composite := frame.Ready && (frame.Preview || frame.Mode != models.SideBySide)

	setVisible(cd.beforeImage, sideBySide)
	setVisible(cd.afterImage, sideBySide)
	setVisible(cd.compositeImage, composite)
	setVisible(cd.controls, frame.Mode.UsesSlider() && !frame.Preview)
	setVisible(cd.placeholder, !frame.Ready)

	cd.container.Refresh()
}

func setVisible(obj fyne.CanvasObject, visible bool) {
	if visible {
		obj.Show()
	} else {
		obj.Hide()
	}
}

func (cd *ComparisonDisplay) GetContainer() fyne.CanvasObject {
	return cd.container
}
