// Package testdata generates synthetic frame sequences: a textured patch
// moving over a flat background, standing in for a face that nods or
// shakes.
package testdata

import (
	"fmt"
	"image"
	"math/rand"

	"gocv.io/x/gocv"
)

// Background is the gray level around the patch.
const Background = 90

const blockSize = 8

// Texture returns a size x size grayscale patch of random blocks. The same
// seed gives the same patch.
func Texture(size int, seed int64) gocv.Mat {
	patch := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC1)
	rng := rand.New(rand.NewSource(seed))

	for y := 0; y < size; y += blockSize {
		for x := 0; x < size; x += blockSize {
			rect := image.Rect(x, y, min(x+blockSize, size), min(y+blockSize, size))
			block := patch.Region(rect)
			v := float64(rng.Intn(256))
			block.SetTo(gocv.NewScalar(v, v, v, 0))
			block.Close()
		}
	}
	return patch
}

// Frame returns a w x h BGR frame with patch drawn at its top-left
// corner at.
func Frame(w, h int, patch gocv.Mat, at image.Point) (gocv.Mat, error) {
	rect := image.Rect(at.X, at.Y, at.X+patch.Cols(), at.Y+patch.Rows())
	if !rect.In(image.Rect(0, 0, w, h)) {
		return gocv.Mat{}, fmt.Errorf("patch at %v leaves the %dx%d frame", at, w, h)
	}

	gray := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	defer gray.Close()
	gray.SetTo(gocv.NewScalar(Background, Background, Background, 0))

	region := gray.Region(rect)
	patch.CopyTo(&region)
	region.Close()

	frame := gocv.NewMat()
	gocv.CvtColor(gray, &frame, gocv.ColorGrayToBGR)
	return frame, nil
}

// Offsets accumulates per-frame steps into positions relative to the
// first frame. step(i) is the move from frame i to frame i+1, from 1.
func Offsets(n int, step func(i int) image.Point) []image.Point {
	out := make([]image.Point, n)
	for i := 1; i < n; i++ {
		out[i] = out[i-1].Add(step(i))
	}
	return out
}

// Oscillation steps by amp pixels along one axis and turns around after
// each frame listed in turns.
func Oscillation(amp int, horizontal bool, turns ...int) func(i int) image.Point {
	return func(i int) image.Point {
		d := amp
		for _, t := range turns {
			if i+1 > t {
				d = -d
			}
		}
		if horizontal {
			return image.Pt(d, 0)
		}
		return image.Pt(0, d)
	}
}

// Shake is 30 frames of horizontal oscillation with three reversals and a
// constant vertical position.
func Shake() []image.Point {
	return Offsets(30, Oscillation(5, true, 9, 17, 26))
}

// Nod is Shake on the vertical axis.
func Nod() []image.Point {
	return Offsets(30, Oscillation(5, false, 9, 17, 26))
}

// Sequence renders one frame per offset with the patch placed at
// origin+offset.
func Sequence(w, h int, patch gocv.Mat, origin image.Point, offsets []image.Point) ([]*gocv.Mat, error) {
	frames := make([]*gocv.Mat, 0, len(offsets))
	for _, off := range offsets {
		frame, err := Frame(w, h, patch, origin.Add(off))
		if err != nil {
			CloseAll(frames)
			return nil, err
		}
		frames = append(frames, &frame)
	}
	return frames, nil
}

// CloseAll releases frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
