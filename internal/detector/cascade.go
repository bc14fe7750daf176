package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// cascadeScaleImage mirrors OpenCV's CASCADE_SCALE_IMAGE flag.
const cascadeScaleImage = 2

// CascadeDetector implements Detector with an OpenCV Haar cascade.
type CascadeDetector struct {
	path       string
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
	closed     bool
}

// NewCascadeDetector loads the cascade model at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: failed to load %s", ErrModelUnavailable, path)
	}

	return &CascadeDetector{
		path:       path,
		classifier: classifier,
	}, nil
}

// Path returns the model file the detector was loaded from.
func (d *CascadeDetector) Path() string {
	return d.path
}

// Detect runs the cascade over img within the size limits in p.
func (d *CascadeDetector) Detect(img *gocv.Mat, p Params) ([]Region, error) {
	if img == nil || img.Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("%w: detector closed", ErrModelUnavailable)
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		*img,
		p.ScaleFactor,
		p.MinNeighbors,
		cascadeScaleImage,
		image.Pt(p.MinSize, p.MinSize),
		image.Pt(p.MaxSize, p.MaxSize),
	)

	regions := make([]Region, 0, len(rects))
	for _, r := range rects {
		region, err := RegionFromRect(r)
		if err != nil {
			continue
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
