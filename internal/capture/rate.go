package capture

import (
	"sync"
	"time"
)

// Capture rates
const (
	IdleFPS     = 5
	ActiveFPS   = 15
	IdleTimeout = 2 * time.Second
)

// Mode is the capture rate currently requested.
type Mode int

const (
	ModeIdle Mode = iota
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// RateController switches between the idle and active frame rates: motion
// switches to active immediately, and IdleTimeout without motion drops back
// to idle.
type RateController struct {
	mu         sync.Mutex
	idleFPS    int
	activeFPS  int
	timeout    time.Duration
	mode       Mode
	lastMotion time.Time
}

// NewRateController returns a controller in idle mode using the package
// defaults.
func NewRateController() *RateController {
	return &RateController{
		idleFPS:   IdleFPS,
		activeFPS: ActiveFPS,
		timeout:   IdleTimeout,
	}
}

// Observe records whether the frame taken at now showed motion. It returns
// the mode after the observation and whether it changed.
func (r *RateController) Observe(motion bool, now time.Time) (Mode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if motion {
		r.lastMotion = now
		if r.mode != ModeActive {
			r.mode = ModeActive
			return r.mode, true
		}
		return r.mode, false
	}

	if r.mode == ModeActive && now.Sub(r.lastMotion) > r.timeout {
		r.mode = ModeIdle
		return r.mode, true
	}
	return r.mode, false
}

// Mode returns the current mode.
func (r *RateController) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// FPS returns the frame rate for the current mode.
func (r *RateController) FPS() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == ModeActive {
		return r.activeFPS
	}
	return r.idleFPS
}

// Interval returns the time between frames for the current mode.
func (r *RateController) Interval() time.Duration {
	return time.Second / time.Duration(r.FPS())
}

// Reset returns to idle mode.
func (r *RateController) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = ModeIdle
	r.lastMotion = time.Time{}
}
