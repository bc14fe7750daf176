package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionDetector detects motion between consecutive grayscale frames
// using frame differencing with Gaussian blur for noise reduction. It only
// steers the capture rate; frames are never dropped because of it.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	blurred     gocv.Mat
	diff        gocv.Mat
	gray        gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// NewMotionDetector creates a new MotionDetector with the given threshold.
// The threshold is the percentage of pixels that must change to detect motion.
// For example, a threshold of 1.0 means 1% of pixels must change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
		blurred:   gocv.NewMat(),
		diff:      gocv.NewMat(),
		gray:      gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and reports whether motion
// was seen and the percentage of pixels that changed. The first frame
// after construction or Reset only sets the baseline. Color frames are
// converted; the normalized gray frame can be passed directly.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	src := *frame
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &m.gray, gocv.ColorBGRToGray)
		src = m.gray
	}

	gocv.GaussianBlur(src, &m.blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != m.blurred.Rows() || m.prevGray.Cols() != m.blurred.Cols() {
		m.blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	gocv.AbsDiff(m.blurred, m.prevGray, &m.diff)
	gocv.Threshold(m.diff, &m.diff, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(m.diff)
	totalPixels := m.diff.Rows() * m.diff.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	m.blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Reset drops the baseline; the next frame starts a new one.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.initialized = false
}

// Close releases the buffers. A closed detector may be used again; it
// starts over from a new baseline.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mat := range []*gocv.Mat{&m.prevGray, &m.blurred, &m.diff, &m.gray} {
		mat.Close()
		*mat = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// Threshold returns the current threshold in percent.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.threshold
}
