package session

import (
	"github.com/ayusman/headnod/internal/detector"
	"github.com/ayusman/headnod/internal/gesture"
	"github.com/ayusman/headnod/internal/tracking"
)

// Config holds everything a session needs to know about frames and
// thresholds.
type Config struct {
	// Width and Height are the oriented frame size.
	Width  int
	Height int

	Detection detector.Config
	Tracking  tracking.Config

	// Shake and nod thresholds as fractions of the shorter frame side.
	MinShakeDistProportional float64
	MinNodDistProportional   float64
	MinBackAndForthCount     int

	// NoFaceResetFrames resets both gesture axes after this many
	// consecutive frames without a face. Zero disables the reset.
	NoFaceResetFrames int
}

// DefaultConfig returns the standard settings for a width x height frame.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:                    width,
		Height:                   height,
		Detection:                detector.DefaultConfig(),
		Tracking:                 tracking.DefaultConfig(),
		MinShakeDistProportional: gesture.MinShakeDistProportional,
		MinNodDistProportional:   gesture.MinNodDistProportional,
		MinBackAndForthCount:     gesture.MinBackAndForthCount,
	}
}

func (c Config) thresholds() gesture.Thresholds {
	shorter := float64(detector.ShorterSide(c.Width, c.Height))
	return gesture.Thresholds{
		Shake:    c.MinShakeDistProportional * shorter,
		Nod:      c.MinNodDistProportional * shorter,
		MinCount: c.MinBackAndForthCount,
	}
}
