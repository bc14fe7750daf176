package tracking

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/headnod/internal/detector"
)

// ErrNotInitialized is returned by Step before the first Regenerate.
var ErrNotInitialized = errors.New("feature set not initialized")

// Config holds feature selection and validity limits.
type Config struct {
	MinFeatures        int
	MaxFeatures        int
	MinFeatureQuality  float64
	MinFeatureDistance float64
	// MaxFeatureError is the largest flow error a point may have and
	// still count as valid.
	MaxFeatureError float32
}

// DefaultConfig returns the standard tracking limits.
func DefaultConfig() Config {
	return Config{
		MinFeatures:        10,
		MaxFeatures:        80,
		MinFeatureQuality:  0.05,
		MinFeatureDistance: 4.0,
		MaxFeatureError:    200,
	}
}

// Tracker owns the current and previous feature sets and decides when they
// must be regenerated.
type Tracker struct {
	engine      FlowEngine
	config      Config
	sets        DoubleBuffer[*FeatureSet]
	valid       int
	initialized bool
	xs, ys      []float64
}

// NewTracker creates a Tracker backed by engine.
func NewTracker(engine FlowEngine, cfg Config) *Tracker {
	return &Tracker{
		engine: engine,
		config: cfg,
		sets:   NewDoubleBuffer(NewFeatureSet(cfg.MaxFeatures), NewFeatureSet(cfg.MaxFeatures)),
		xs:     make([]float64, 0, cfg.MaxFeatures),
		ys:     make([]float64, 0, cfg.MaxFeatures),
	}
}

// Config returns the tracker's limits.
func (t *Tracker) Config() Config {
	return t.config
}

// NeedsRegeneration reports whether the valid count is outside
// [MinFeatures, MaxFeatures] or no set was ever selected.
func (t *Tracker) NeedsRegeneration() bool {
	return !t.initialized || t.valid < t.config.MinFeatures || t.valid > t.config.MaxFeatures
}

// Regenerate selects a fresh set from img within the mask's foreground and
// returns the number of valid points.
func (t *Tracker) Regenerate(img *gocv.Mat, mask *detector.Mask) (int, error) {
	dst := t.sets.Current()
	params := SelectParams{
		MaxCount:    t.config.MaxFeatures,
		MinQuality:  t.config.MinFeatureQuality,
		MinDistance: t.config.MinFeatureDistance,
	}
	if err := t.engine.Select(img, mask, params, dst); err != nil {
		t.initialized = false
		t.valid = 0
		return 0, fmt.Errorf("select features: %w", err)
	}

	t.initialized = true
	t.valid = dst.ValidCount(t.config.MaxFeatureError)
	return t.valid, nil
}

// Step tracks the current set from prev to curr, makes the result current
// and returns the number of valid points.
func (t *Tracker) Step(prev, curr *gocv.Mat) (int, error) {
	if !t.initialized {
		return 0, ErrNotInitialized
	}

	src, dst := t.sets.Current(), t.sets.Previous()
	if err := t.engine.Track(prev, curr, src, dst); err != nil {
		return t.valid, fmt.Errorf("track features: %w", err)
	}

	// Points over the error ceiling are dropped for good.
	for i := range dst.Status {
		if dst.Status[i] && dst.Errors[i] > t.config.MaxFeatureError {
			dst.Status[i] = false
		}
	}

	t.sets.Swap()
	t.valid = t.sets.Current().ValidCount(t.config.MaxFeatureError)
	return t.valid, nil
}

// Valid returns the valid point count of the current set.
func (t *Tracker) Valid() int {
	return t.valid
}

// Degraded reports whether too few points remain for a reliable centroid.
func (t *Tracker) Degraded() bool {
	return t.initialized && t.valid < t.config.MinFeatures
}

// Features returns the current set. It is overwritten by the next Step.
func (t *Tracker) Features() *FeatureSet {
	return t.sets.Current()
}

// Centroid returns the mean position of the valid points.
func (t *Tracker) Centroid() (Point, bool) {
	set := t.sets.Current()
	t.xs, t.ys = t.xs[:0], t.ys[:0]
	for i, p := range set.Points {
		if set.Valid(i, t.config.MaxFeatureError) {
			t.xs = append(t.xs, p.X)
			t.ys = append(t.ys, p.Y)
		}
	}
	if len(t.xs) == 0 {
		return Point{}, false
	}
	return Point{X: stat.Mean(t.xs, nil), Y: stat.Mean(t.ys, nil)}, true
}

// Reset discards both sets.
func (t *Tracker) Reset() {
	t.sets.Current().Reset()
	t.sets.Previous().Reset()
	t.valid = 0
	t.initialized = false
}
