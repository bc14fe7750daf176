package session

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/gesture"
)

// Drawing colors.
var (
	FaceColor     = color.RGBA{R: 255, A: 255}
	EyeColor      = color.RGBA{G: 255, A: 255}
	MouthColor    = color.RGBA{B: 255, A: 255}
	FeatureColor  = color.RGBA{G: 255, A: 255}
	CentroidColor = color.RGBA{R: 255, G: 255, A: 255}
	LabelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws the detections, features and last outcome of res onto
// dst, a color image in the same oriented space as the processed frame.
// With mirror set the drawing is flipped horizontally for a selfie view;
// the label is drawn after the flip so it stays readable.
func Annotate(dst *gocv.Mat, res Result, mirror bool) {
	if dst == nil || dst.Empty() {
		return
	}

	det := res.Detection
	if det.Face != nil {
		gocv.Rectangle(dst, det.Face.Rect(), FaceColor, 2)
	}
	for _, eye := range det.Eyes {
		gocv.Rectangle(dst, eye.Rect(), EyeColor, 2)
	}
	for _, mouth := range det.Mouth {
		gocv.Rectangle(dst, mouth.Rect(), MouthColor, 2)
	}

	for _, p := range res.Features {
		gocv.Circle(dst, image.Pt(int(p.X), int(p.Y)), 4, FeatureColor, 1)
	}
	if res.HasCentroid {
		gocv.Circle(dst, image.Pt(int(res.Centroid.X), int(res.Centroid.Y)), 6, CentroidColor, -1)
	}

	if mirror {
		gocv.Flip(*dst, dst, 1)
	}

	if res.Outcome != gesture.OutcomeNone {
		gocv.PutText(dst, res.Outcome.String(), image.Pt(16, 40), gocv.FontHersheySimplex, 1.2, LabelColor, 2)
	}
}
