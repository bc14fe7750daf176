package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrModelUnavailable is returned when a classifier model cannot be loaded.
	ErrModelUnavailable = errors.New("detection model unavailable")

	// ErrInvalidFrameSize is returned when detection bounds are requested
	// for a frame with a non-positive dimension.
	ErrInvalidFrameSize = errors.New("invalid frame size")

	// ErrEmptyImage is returned when Detect is called without pixels.
	ErrEmptyImage = errors.New("empty image")
)

// Proportions of the frame and face used to bound each detector.
const (
	MinSizeProportional = 0.25
	MaxSizeProportional = 1.0

	EyeSizeProportional      = 0.5
	MouthMinSizeProportional = 0.25
	MouthMaxSizeProportional = 0.8

	// EyeBandProportional limits eye candidates to the top of the face,
	// as a fraction of face width.
	EyeBandProportional = 0.3

	// MaskPaddingProportional is the fraction of the frame's shorter side
	// trimmed from each edge of the face before feature selection.
	// Padding scales with the frame, not the face: at 640x480 it is 72 px,
	// so faces narrower than about 145 px leave no foreground and the
	// tracker stays degraded until the user moves closer.
	MaskPaddingProportional = 0.15
)

// Detector finds object candidates in a grayscale image.
type Detector interface {
	// Detect returns candidate regions, best candidate first.
	// Returns an empty slice if nothing is found.
	Detect(img *gocv.Mat, p Params) ([]Region, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Params controls a single multi-scale detection pass.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	// MinSize and MaxSize are square side lengths in pixels.
	MinSize int
	MaxSize int
}

// Config holds the detection settings shared by all detectors.
type Config struct {
	ScaleFactor  float64
	MinNeighbors int
	// MaskPadding is a fraction of the frame's shorter side.
	MaskPadding float64
}

// DefaultConfig returns a Config with the standard cascade settings.
func DefaultConfig() Config {
	return Config{
		ScaleFactor:  1.2,
		MinNeighbors: 3,
		MaskPadding:  MaskPaddingProportional,
	}
}

// Bounds are the per-detector size limits for one frame size.
type Bounds struct {
	Face  Params
	Eyes  Params
	Mouth Params
}

// NewBounds derives face, eye and mouth size limits from the frame size.
func NewBounds(width, height int, cfg Config) (Bounds, error) {
	if width <= 0 || height <= 0 {
		return Bounds{}, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, width, height)
	}

	shorter := float64(ShorterSide(width, height))
	faceMin := int(MinSizeProportional * shorter)
	faceMax := int(MaxSizeProportional * shorter)

	base := Params{ScaleFactor: cfg.ScaleFactor, MinNeighbors: cfg.MinNeighbors}

	b := Bounds{Face: base, Eyes: base, Mouth: base}
	b.Face.MinSize, b.Face.MaxSize = faceMin, faceMax
	b.Eyes.MinSize = int(EyeSizeProportional * float64(faceMin))
	b.Eyes.MaxSize = int(EyeSizeProportional * float64(faceMax))
	b.Mouth.MinSize = int(MouthMinSizeProportional * float64(faceMin))
	b.Mouth.MaxSize = int(MouthMaxSizeProportional * float64(faceMax))
	return b, nil
}
