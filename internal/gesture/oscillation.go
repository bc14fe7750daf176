// Package gesture turns the tracked head position into nod and shake
// gestures.
package gesture

// State is the phase of a BackAndForth classifier.
type State int

const (
	// StateIdle means no baseline has been recorded.
	StateIdle State = iota
	// StateTracking means a baseline exists but no reversal was seen.
	StateTracking
	// StateCounting means at least one reversal was counted.
	StateCounting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateCounting:
		return "counting"
	default:
		return "unknown"
	}
}

// BackAndForth counts direction reversals of a scalar position along one
// axis. Moves smaller than the minimum distance from the last extremum are
// ignored.
type BackAndForth struct {
	minDistance float64
	state       State
	extremum    float64
	direction   int
	count       int
}

// NewBackAndForth creates an idle classifier.
func NewBackAndForth(minDistance float64) *BackAndForth {
	return &BackAndForth{minDistance: minDistance}
}

// MinDistance returns the displacement needed to register movement.
func (b *BackAndForth) MinDistance() float64 {
	return b.minDistance
}

// Start records position as the baseline and clears the count.
func (b *BackAndForth) Start(position float64) {
	b.state = StateTracking
	b.extremum = position
	b.direction = 0
	b.count = 0
}

// Update feeds the next position. Called while idle it records the
// baseline instead.
func (b *BackAndForth) Update(position float64) {
	if b.state == StateIdle {
		b.Start(position)
		return
	}

	d := position - b.extremum
	if d > -b.minDistance && d < b.minDistance {
		return
	}

	dir := 1
	if d < 0 {
		dir = -1
	}
	if b.direction != 0 && dir != b.direction {
		b.count++
		b.state = StateCounting
	}
	b.direction = dir
	b.extremum = position
}

// BackAndForthCount returns the number of reversals since Start.
func (b *BackAndForth) BackAndForthCount() int {
	return b.count
}

// State returns the current phase.
func (b *BackAndForth) State() State {
	return b.state
}

// Reset returns to idle and clears the baseline and count.
func (b *BackAndForth) Reset() {
	*b = BackAndForth{minDistance: b.minDistance}
}
