package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoFaceDetector is returned when a RegionDetector is built without a
// face detector.
var ErrNoFaceDetector = errors.New("face detector is required")

// Detection is the result of one RegionDetector pass.
type Detection struct {
	// Face is nil when no face was found.
	Face  *Region  `json:"face,omitempty"`
	Eyes  []Region `json:"eyes,omitempty"`
	Mouth []Region `json:"mouth,omitempty"`
}

// HasFace reports whether a face was found.
func (d Detection) HasFace() bool {
	return d.Face != nil
}

// RegionDetector runs the face detector and, inside an accepted face, the
// optional eye and mouth detectors. It owns the feature mask.
type RegionDetector struct {
	face    Detector
	eyes    Detector
	mouth   Detector
	bounds  Bounds
	mask    *Mask
	padding int
}

// NewRegionDetector builds a RegionDetector for width x height frames.
// eyes and mouth may be nil.
func NewRegionDetector(face, eyes, mouth Detector, width, height int, cfg Config) (*RegionDetector, error) {
	if face == nil {
		return nil, ErrNoFaceDetector
	}

	bounds, err := NewBounds(width, height, cfg)
	if err != nil {
		return nil, err
	}

	return &RegionDetector{
		face:    face,
		eyes:    eyes,
		mouth:   mouth,
		bounds:  bounds,
		mask:    NewMask(width, height),
		padding: MaskPadding(width, height, cfg.MaskPadding),
	}, nil
}

// Detect finds the first face in img. When one is found the mask is
// regenerated from it and eye and mouth candidates are filtered against it.
// When none is found the mask is left untouched.
func (r *RegionDetector) Detect(img *gocv.Mat) (Detection, error) {
	faces, err := r.face.Detect(img, r.bounds.Face)
	if err != nil {
		return Detection{}, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return Detection{}, nil
	}

	face := faces[0]
	det := Detection{Face: &face}

	if r.eyes != nil {
		candidates, err := r.eyes.Detect(img, r.bounds.Eyes)
		if err != nil {
			return det, fmt.Errorf("detect eyes: %w", err)
		}
		det.Eyes = FilterEyes(face, candidates)
	}

	if r.mouth != nil {
		candidates, err := r.mouth.Detect(img, r.bounds.Mouth)
		if err != nil {
			return det, fmt.Errorf("detect mouth: %w", err)
		}
		det.Mouth = FilterMouths(face, candidates)
	}

	r.mask.Update(face, r.padding)
	return det, nil
}

// Bounds returns the size limits used for each detector.
func (r *RegionDetector) Bounds() Bounds {
	return r.bounds
}

// Padding returns the mask padding in pixels.
func (r *RegionDetector) Padding() int {
	return r.padding
}

// Mask returns the feature mask regenerated by the last face detection.
func (r *RegionDetector) Mask() *Mask {
	return r.mask
}

// Reset clears the mask.
func (r *RegionDetector) Reset() {
	r.mask.Reset()
}

// Close releases the mask. The detectors belong to the caller.
func (r *RegionDetector) Close() error {
	return r.mask.Close()
}

// AcceptEye reports whether an eye candidate starts in the upper band of
// the face.
func AcceptEye(face, eye Region) bool {
	return float64(eye.Min.Y) < float64(face.Min.Y)+EyeBandProportional*float64(face.Width)
}

// AcceptMouth reports whether a mouth candidate's center lies in the
// lower-middle of the face. All bounds are inclusive.
func AcceptMouth(face, mouth Region) bool {
	cx, cy := mouth.Center()
	w := float64(face.Width)
	minX, minY := float64(face.Min.X), float64(face.Min.Y)
	br := face.Max()
	maxX, maxY := float64(br.X), float64(br.Y)

	return cy >= minY+w/2 && cy <= maxY &&
		cx >= minX+w/3 && cx <= maxX-w/3
}

// FilterEyes keeps the candidates accepted by AcceptEye, in order.
func FilterEyes(face Region, candidates []Region) []Region {
	return filter(face, candidates, AcceptEye)
}

// FilterMouths keeps the candidates accepted by AcceptMouth, in order.
func FilterMouths(face Region, candidates []Region) []Region {
	return filter(face, candidates, AcceptMouth)
}

func filter(face Region, candidates []Region, accept func(face, r Region) bool) []Region {
	var kept []Region
	for _, c := range candidates {
		if accept(face, c) {
			kept = append(kept, c)
		}
	}
	return kept
}
