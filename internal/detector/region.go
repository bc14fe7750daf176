// Package detector finds faces, eyes and mouths in grayscale frames and
// builds the feature mask used by the tracker.
package detector

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRegion is returned when a region has a non-positive size.
var ErrInvalidRegion = errors.New("invalid region")

// Region is an axis-aligned rectangle in image coordinates.
// Min is the top-left corner; Width and Height are always positive.
type Region struct {
	Min    image.Point `json:"min"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// NewRegion creates a Region from a top-left corner and size.
func NewRegion(x, y, width, height int) (Region, error) {
	if width <= 0 || height <= 0 {
		return Region{}, fmt.Errorf("%w: %dx%d", ErrInvalidRegion, width, height)
	}
	return Region{Min: image.Pt(x, y), Width: width, Height: height}, nil
}

// RegionFromRect converts an image.Rectangle into a Region.
func RegionFromRect(r image.Rectangle) (Region, error) {
	return NewRegion(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Max returns the bottom-right corner (Min + size).
func (r Region) Max() image.Point {
	return image.Pt(r.Min.X+r.Width, r.Min.Y+r.Height)
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rectangle{Min: r.Min, Max: r.Max()}
}

// Center returns the region's center in floating point.
func (r Region) Center() (float64, float64) {
	return float64(r.Min.X) + float64(r.Width)/2, float64(r.Min.Y) + float64(r.Height)/2
}

// ShorterSide returns the smaller of width and height.
func (r Region) ShorterSide() int {
	return ShorterSide(r.Width, r.Height)
}

// Inset shrinks the region by pad on every side. The boolean is false when
// nothing remains.
func (r Region) Inset(pad int) (image.Rectangle, bool) {
	rect := image.Rect(r.Min.X+pad, r.Min.Y+pad, r.Min.X+r.Width-pad, r.Min.Y+r.Height-pad)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return image.Rectangle{}, false
	}
	return rect, true
}

// ShorterSide returns min(width, height).
func ShorterSide(width, height int) int {
	if width < height {
		return width
	}
	return height
}
