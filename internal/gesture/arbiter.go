package gesture

import (
	"errors"
	"fmt"
)

// MinBackAndForthCount is the number of reversals that makes a gesture.
const MinBackAndForthCount = 2

// Proportions of the frame's shorter side needed to register movement.
const (
	MinShakeDistProportional = 0.04
	MinNodDistProportional   = 0.005
)

// ErrInvalidThreshold is returned for a non-positive distance threshold.
var ErrInvalidThreshold = errors.New("invalid gesture threshold")

// Outcome is the result of evaluating both axes for one frame.
type Outcome int

const (
	// OutcomeNone means a gesture is still accumulating.
	OutcomeNone Outcome = iota
	// OutcomeYes means a nod was recognized.
	OutcomeYes
	// OutcomeNo means a shake was recognized.
	OutcomeNo
	// OutcomeAmbiguous means both axes tripped at once.
	OutcomeAmbiguous
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Sink receives recognized answers.
type Sink interface {
	TakeYesBranch() error
	TakeNoBranch() error
}

// Thresholds are the per-axis minimum distances in pixels.
type Thresholds struct {
	Shake    float64
	Nod      float64
	MinCount int
}

// NewThresholds derives thresholds from the frame's shorter side.
func NewThresholds(shorterSide int) (Thresholds, error) {
	if shorterSide <= 0 {
		return Thresholds{}, fmt.Errorf("%w: shorter side %d", ErrInvalidThreshold, shorterSide)
	}
	s := float64(shorterSide)
	return Thresholds{
		Shake:    MinShakeDistProportional * s,
		Nod:      MinNodDistProportional * s,
		MinCount: MinBackAndForthCount,
	}, nil
}

// Arbiter combines a shake classifier on x and a nod classifier on y and
// reports at most one answer per gesture.
type Arbiter struct {
	shake    *BackAndForth
	nod      *BackAndForth
	minCount int
	sink     Sink
}

// NewArbiter creates an Arbiter. sink may be nil.
func NewArbiter(th Thresholds, sink Sink) (*Arbiter, error) {
	if th.Shake <= 0 || th.Nod <= 0 {
		return nil, fmt.Errorf("%w: shake=%v nod=%v", ErrInvalidThreshold, th.Shake, th.Nod)
	}
	minCount := th.MinCount
	if minCount <= 0 {
		minCount = MinBackAndForthCount
	}
	return &Arbiter{
		shake:    NewBackAndForth(th.Shake),
		nod:      NewBackAndForth(th.Nod),
		minCount: minCount,
		sink:     sink,
	}, nil
}

// SetSink replaces the answer sink.
func (a *Arbiter) SetSink(sink Sink) {
	a.sink = sink
}

// Start seeds both classifiers with the centroid.
func (a *Arbiter) Start(x, y float64) {
	a.shake.Start(x)
	a.nod.Start(y)
}

// Observe updates both classifiers and evaluates them. A recognized or
// ambiguous gesture resets both axes. Sink errors are returned after the
// reset.
func (a *Arbiter) Observe(x, y float64) (Outcome, error) {
	a.shake.Update(x)
	a.nod.Update(y)

	shaking := a.shake.BackAndForthCount() >= a.minCount
	nodding := a.nod.BackAndForthCount() >= a.minCount

	switch {
	case shaking && nodding:
		a.Reset()
		return OutcomeAmbiguous, nil
	case shaking:
		a.Reset()
		return OutcomeNo, a.emit(OutcomeNo)
	case nodding:
		a.Reset()
		return OutcomeYes, a.emit(OutcomeYes)
	default:
		return OutcomeNone, nil
	}
}

func (a *Arbiter) emit(o Outcome) error {
	if a.sink == nil {
		return nil
	}
	var err error
	if o == OutcomeYes {
		err = a.sink.TakeYesBranch()
	} else {
		err = a.sink.TakeNoBranch()
	}
	if err != nil {
		return fmt.Errorf("take %s branch: %w", o, err)
	}
	return nil
}

// Counts returns the current shake and nod reversal counts.
func (a *Arbiter) Counts() (shake, nod int) {
	return a.shake.BackAndForthCount(), a.nod.BackAndForthCount()
}

// Shake returns the horizontal classifier.
func (a *Arbiter) Shake() *BackAndForth {
	return a.shake
}

// Nod returns the vertical classifier.
func (a *Arbiter) Nod() *BackAndForth {
	return a.nod
}

// Reset returns both classifiers to idle.
func (a *Arbiter) Reset() {
	a.shake.Reset()
	a.nod.Reset()
}
