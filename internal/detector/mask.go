package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Mask pixel values.
const (
	Background = 0
	Foreground = 255
)

// Mask is a single-channel image, the same size as the frame, that marks
// where features may be selected.
type Mask struct {
	mat        gocv.Mat
	width      int
	height     int
	foreground image.Rectangle
}

// NewMask creates an all-background mask for a width x height frame.
func NewMask(width, height int) *Mask {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	mat.SetTo(gocv.NewScalar(Background, 0, 0, 0))
	return &Mask{
		mat:    mat,
		width:  width,
		height: height,
	}
}

// Update clears the mask and fills the face region, shrunk by padding on
// every side, with Foreground. A face smaller than twice the padding
// leaves the mask empty.
func (m *Mask) Update(face Region, padding int) {
	m.Reset()

	rect, ok := face.Inset(padding)
	if !ok {
		return
	}
	rect = rect.Intersect(image.Rect(0, 0, m.width, m.height))
	if rect.Empty() {
		return
	}

	// OpenCV fills up to and including the second corner.
	fill := image.Rectangle{Min: rect.Min, Max: rect.Max.Sub(image.Pt(1, 1))}
	gocv.Rectangle(&m.mat, fill, color.RGBA{R: Foreground, G: Foreground, B: Foreground}, -1)
	m.foreground = rect
}

// Reset marks every pixel as background.
func (m *Mask) Reset() {
	m.mat.SetTo(gocv.NewScalar(Background, 0, 0, 0))
	m.foreground = image.Rectangle{}
}

// Foreground returns the foreground rectangle, empty if there is none.
func (m *Mask) Foreground() image.Rectangle {
	return m.foreground
}

// HasForeground reports whether any pixel is marked as foreground.
func (m *Mask) HasForeground() bool {
	return !m.foreground.Empty()
}

// Contains reports whether (x, y) lies inside the foreground.
func (m *Mask) Contains(x, y float64) bool {
	if m.foreground.Empty() {
		return false
	}
	return x >= float64(m.foreground.Min.X) && x < float64(m.foreground.Max.X) &&
		y >= float64(m.foreground.Min.Y) && y < float64(m.foreground.Max.Y)
}

// Size returns the mask dimensions.
func (m *Mask) Size() (int, int) {
	return m.width, m.height
}

// Mat exposes the underlying image for drawing or masked OpenCV calls.
func (m *Mask) Mat() *gocv.Mat {
	return &m.mat
}

// Close releases the mask image.
func (m *Mask) Close() error {
	return m.mat.Close()
}

// MaskPadding returns the padding in pixels for a frame size.
func MaskPadding(width, height int, proportion float64) int {
	return int(proportion * float64(ShorterSide(width, height)))
}
