package tracking

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/detector"
)

// ErrEmptyImage is returned when an engine is given an image without pixels.
var ErrEmptyImage = errors.New("empty image")

// SelectParams controls corner selection.
type SelectParams struct {
	MaxCount int
	// MinQuality is relative to the strongest corner response.
	MinQuality  float64
	MinDistance float64
}

// FlowEngine selects and tracks features. Implementations write into dst
// and never retain src or dst.
type FlowEngine interface {
	// Select fills dst with up to p.MaxCount corners inside the mask's
	// foreground. An empty mask yields an empty set.
	Select(img *gocv.Mat, mask *detector.Mask, p SelectParams, dst *FeatureSet) error

	// Track moves the valid points of src from prev to curr. dst has the
	// same length as src; points that were already lost stay lost.
	Track(prev, curr *gocv.Mat, src, dst *FeatureSet) error
}

// LKEngine implements FlowEngine with Shi-Tomasi corners and pyramidal
// Lucas-Kanade optical flow.
type LKEngine struct {
	corners gocv.Mat
	nextPts gocv.Mat
	status  gocv.Mat
	errs    gocv.Mat
	index   []int
}

// NewLKEngine creates an LKEngine. Close releases its buffers.
func NewLKEngine() *LKEngine {
	return &LKEngine{
		corners: gocv.NewMat(),
		nextPts: gocv.NewMat(),
		status:  gocv.NewMat(),
		errs:    gocv.NewMat(),
	}
}

// Select runs corner detection on the mask's foreground rectangle.
func (e *LKEngine) Select(img *gocv.Mat, mask *detector.Mask, p SelectParams, dst *FeatureSet) error {
	dst.Reset()

	if img == nil || img.Empty() {
		return ErrEmptyImage
	}
	if mask == nil || !mask.HasForeground() || p.MaxCount <= 0 {
		return nil
	}

	fg := mask.Foreground()
	roi := img.Region(fg)
	defer roi.Close()

	if err := gocv.GoodFeaturesToTrack(roi, &e.corners, p.MaxCount, p.MinQuality, p.MinDistance); err != nil {
		return fmt.Errorf("corner detection: %w", err)
	}

	for i := 0; i < e.corners.Rows() && dst.Len() < p.MaxCount; i++ {
		x := float64(e.corners.GetFloatAt(i, 0)) + float64(fg.Min.X)
		y := float64(e.corners.GetFloatAt(i, 1)) + float64(fg.Min.Y)
		if !mask.Contains(x, y) {
			continue
		}
		dst.Append(Point{X: x, Y: y}, true, 0)
	}
	return nil
}

// Track runs Lucas-Kanade flow for every point of src still marked found.
func (e *LKEngine) Track(prev, curr *gocv.Mat, src, dst *FeatureSet) error {
	dst.CopyFrom(src)

	if prev == nil || prev.Empty() || curr == nil || curr.Empty() {
		return ErrEmptyImage
	}

	e.index = e.index[:0]
	for i := range src.Points {
		if src.Status[i] {
			e.index = append(e.index, i)
		}
	}
	if len(e.index) == 0 {
		return nil
	}

	prevPts := gocv.NewMatWithSize(len(e.index), 1, gocv.MatTypeCV32FC2)
	defer prevPts.Close()
	for row, i := range e.index {
		prevPts.SetFloatAt(row, 0, float32(src.Points[i].X))
		prevPts.SetFloatAt(row, 1, float32(src.Points[i].Y))
	}

	// nextPts is an output but is passed by value; it shares the native Mat.
	if err := gocv.CalcOpticalFlowPyrLK(*prev, *curr, prevPts, e.nextPts, &e.status, &e.errs); err != nil {
		return fmt.Errorf("optical flow: %w", err)
	}

	for row, i := range e.index {
		if row >= e.nextPts.Rows() || row >= e.status.Rows() {
			dst.Status[i] = false
			continue
		}
		dst.Points[i] = Point{
			X: float64(e.nextPts.GetFloatAt(row, 0)),
			Y: float64(e.nextPts.GetFloatAt(row, 1)),
		}
		dst.Status[i] = e.status.GetUCharAt(row, 0) == 1
		if row < e.errs.Rows() {
			dst.Errors[i] = e.errs.GetFloatAt(row, 0)
		}
	}
	return nil
}

// Close releases the engine's buffers.
func (e *LKEngine) Close() error {
	e.corners.Close()
	e.nextPts.Close()
	e.status.Close()
	return e.errs.Close()
}
