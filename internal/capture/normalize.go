package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Orientation rotates raw camera frames into the space the session works in.
type Orientation string

const (
	OrientNone       Orientation = "none"
	OrientCW90       Orientation = "cw90"
	OrientCCW90      Orientation = "ccw90"
	Orient180        Orientation = "180"
	OrientTransverse Orientation = "transverse"
)

var (
	ErrUnknownOrientation = errors.New("unknown orientation")
	ErrUnsupportedFrame   = errors.New("unsupported frame format")
)

// ParseOrientation accepts the names used in configuration. An empty
// string means OrientNone.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(s); o {
	case "":
		return OrientNone, nil
	case OrientNone, OrientCW90, OrientCCW90, Orient180, OrientTransverse:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
	}
}

// SwapsAxes reports whether width and height trade places.
func (o Orientation) SwapsAxes() bool {
	return o == OrientCW90 || o == OrientCCW90 || o == OrientTransverse
}

// OrientedSize returns the size of a w x h frame after orientation.
func (o Orientation) OrientedSize(w, h int) (int, int) {
	if o.SwapsAxes() {
		return h, w
	}
	return w, h
}

// Normalizer turns raw frames into an oriented color copy for drawing and
// an oriented, equalized grayscale image for the session.
type Normalizer struct {
	mu          sync.Mutex
	orientation Orientation
	oriented    gocv.Mat
}

// NewNormalizer returns a Normalizer for o.
func NewNormalizer(o Orientation) *Normalizer {
	return &Normalizer{
		orientation: o,
		oriented:    gocv.NewMat(),
	}
}

// Orientation returns the configured orientation.
func (n *Normalizer) Orientation() Orientation {
	return n.orientation
}

// Normalize writes the oriented BGR frame into color and its equalized
// grayscale version into gray. color may be nil when no preview is wanted.
func (n *Normalizer) Normalize(src gocv.Mat, color, gray *gocv.Mat) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if src.Empty() {
		return fmt.Errorf("%w: empty", ErrUnsupportedFrame)
	}
	if err := n.orient(src, &n.oriented); err != nil {
		return err
	}

	switch n.oriented.Channels() {
	case 1:
		n.oriented.CopyTo(gray)
		if color != nil {
			gocv.CvtColor(n.oriented, color, gocv.ColorGrayToBGR)
		}
	case 3:
		gocv.CvtColor(n.oriented, gray, gocv.ColorBGRToGray)
		if color != nil {
			n.oriented.CopyTo(color)
		}
	case 4:
		gocv.CvtColor(n.oriented, gray, gocv.ColorBGRAToGray)
		if color != nil {
			gocv.CvtColor(n.oriented, color, gocv.ColorBGRAToBGR)
		}
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFrame, n.oriented.Channels())
	}

	gocv.EqualizeHist(*gray, gray)
	return nil
}

func (n *Normalizer) orient(src gocv.Mat, dst *gocv.Mat) error {
	switch n.orientation {
	case OrientNone, "":
		src.CopyTo(dst)
	case OrientCW90:
		gocv.Rotate(src, dst, gocv.Rotate90Clockwise)
	case OrientCCW90:
		gocv.Rotate(src, dst, gocv.Rotate90CounterClockwise)
	case Orient180:
		gocv.Rotate(src, dst, gocv.Rotate180Clockwise)
	case OrientTransverse:
		gocv.Transpose(src, dst)
		gocv.Flip(*dst, dst, -1)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOrientation, n.orientation)
	}
	return nil
}

// Close releases the internal buffer.
func (n *Normalizer) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.oriented.Close()
}
