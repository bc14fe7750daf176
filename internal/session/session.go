// Package session runs the per-frame head gesture pipeline: detect the
// face, track features inside it, classify the centroid's motion and
// report yes or no to a sink.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/detector"
	"github.com/ayusman/headnod/internal/gesture"
	"github.com/ayusman/headnod/internal/log"
	"github.com/ayusman/headnod/internal/tracking"
)

// Dependencies are the collaborators a session is built from.
type Dependencies struct {
	// Face is required. Eyes and Mouth are optional.
	Face  detector.Detector
	Eyes  detector.Detector
	Mouth detector.Detector

	// Flow defaults to a Lucas-Kanade engine owned by the session.
	Flow tracking.FlowEngine

	// Sink receives yes/no answers. It may be nil.
	Sink gesture.Sink

	Logger *logrus.Entry
	Now    func() time.Time
}

// Session holds all cross-frame state for one interaction. It is not safe
// for concurrent use.
type Session struct {
	id      string
	config  Config
	regions *detector.RegionDetector
	tracker *tracking.Tracker
	arbiter *gesture.Arbiter
	images  tracking.DoubleBuffer[*gocv.Mat]
	bufA    gocv.Mat
	bufB    gocv.Mat

	ownedFlow *tracking.LKEngine

	frame           int
	wasTrackingFace bool
	noFaceFrames    int
	closed          bool

	log *logrus.Entry
	now func() time.Time
}

// New builds a session for frames of cfg.Width x cfg.Height. Failures are
// returned as *SetupError.
func New(cfg Config, deps Dependencies) (*Session, error) {
	if deps.Face == nil {
		return nil, &SetupError{Op: "face detector", Err: detector.ErrModelUnavailable}
	}

	regions, err := detector.NewRegionDetector(deps.Face, deps.Eyes, deps.Mouth, cfg.Width, cfg.Height, cfg.Detection)
	if err != nil {
		return nil, &SetupError{Op: "region detector", Err: err}
	}

	arbiter, err := gesture.NewArbiter(cfg.thresholds(), deps.Sink)
	if err != nil {
		regions.Close()
		return nil, &SetupError{Op: "gesture thresholds", Err: err}
	}

	s := &Session{
		id:      uuid.NewString(),
		config:  cfg,
		regions: regions,
		arbiter: arbiter,
		log:     deps.Logger,
		now:     deps.Now,
	}
	if s.log == nil {
		s.log = log.WithComponent("session")
	}
	if s.now == nil {
		s.now = time.Now
	}

	flow := deps.Flow
	if flow == nil {
		s.ownedFlow = tracking.NewLKEngine()
		flow = s.ownedFlow
	}
	s.tracker = tracking.NewTracker(flow, cfg.Tracking)

	s.bufA = gocv.NewMatWithSize(cfg.Height, cfg.Width, gocv.MatTypeCV8UC1)
	s.bufB = gocv.NewMatWithSize(cfg.Height, cfg.Width, gocv.MatTypeCV8UC1)
	s.images = tracking.NewDoubleBuffer(&s.bufA, &s.bufB)

	s.log.WithFields(logrus.Fields{
		"session": s.id,
		"width":   cfg.Width,
		"height":  cfg.Height,
	}).Debug("session created")
	return s, nil
}

// ID returns the identifier of the current interaction.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session settings.
func (s *Session) Config() Config {
	return s.config
}

// SetSink replaces the answer sink.
func (s *Session) SetSink(sink gesture.Sink) {
	s.arbiter.SetSink(sink)
}

// Process runs one frame through detection, tracking, classification and
// arbitration. frame must be a single-channel 8-bit image of the
// configured size, already oriented and equalized.
func (s *Session) Process(frame *gocv.Mat) (Result, error) {
	if s.closed {
		return Result{}, ErrClosed
	}
	if err := s.checkFrame(frame); err != nil {
		return Result{}, err
	}

	start := s.now()
	s.frame++
	res := Result{Frame: s.frame}

	curr := s.images.Current()
	frame.CopyTo(curr)
	defer s.images.Swap()

	det, err := s.regions.Detect(curr)
	if err != nil {
		return res, fmt.Errorf("frame %d: %w", s.frame, err)
	}
	res.Detection = det

	if !det.HasFace() {
		s.handleNoFace(&res)
		res.Elapsed = s.now().Sub(start)
		return res, nil
	}

	s.noFaceFrames = 0
	acquired := !s.wasTrackingFace
	s.wasTrackingFace = true
	if acquired {
		s.emit(&res, Event{Kind: EventFaceAcquired})
	}

	if acquired || s.tracker.NeedsRegeneration() {
		err = s.regenerate(curr, &res)
	} else {
		err = s.step(s.images.Previous(), curr, &res)
	}
	if err != nil {
		return res, fmt.Errorf("frame %d: %w", s.frame, err)
	}

	res.Features = s.tracker.Features().AppendValid(nil, s.config.Tracking.MaxFeatureError)
	res.Elapsed = s.now().Sub(start)
	return res, nil
}

func (s *Session) checkFrame(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return fmt.Errorf("%w: empty", ErrInvalidFrame)
	}
	if frame.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("%w: type %v, want 8-bit single channel", ErrInvalidFrame, frame.Type())
	}
	if frame.Cols() != s.config.Width || frame.Rows() != s.config.Height {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrInvalidFrame,
			frame.Cols(), frame.Rows(), s.config.Width, s.config.Height)
	}
	return nil
}

// handleNoFace leaves mask, tracker and gesture baseline as they were.
func (s *Session) handleNoFace(res *Result) {
	if s.wasTrackingFace {
		s.emit(res, Event{Kind: EventFaceLost})
	}
	s.wasTrackingFace = false
	s.noFaceFrames++

	if s.config.NoFaceResetFrames > 0 && s.noFaceFrames == s.config.NoFaceResetFrames {
		s.arbiter.Reset()
		s.emit(res, Event{Kind: EventGestureReset})
		s.log.WithFields(logrus.Fields{
			"session": s.id,
			"frames":  s.noFaceFrames,
		}).Debug("gesture reset after face absence")
	}
}

func (s *Session) regenerate(curr *gocv.Mat, res *Result) error {
	n, err := s.tracker.Regenerate(curr, s.regions.Mask())
	if err != nil {
		return err
	}
	s.emit(res, Event{Kind: EventFeaturesRegenerated, Features: n})

	if s.tracker.Degraded() {
		s.emit(res, Event{Kind: EventTrackingDegraded, Features: n})
		s.log.WithFields(logrus.Fields{
			"session":  s.id,
			"features": n,
		}).Debug("too few features after regeneration")
		return nil
	}

	c, ok := s.tracker.Centroid()
	if !ok {
		return nil
	}
	res.Centroid, res.HasCentroid = c, true
	s.arbiter.Start(c.X, c.Y)

	s.log.WithFields(logrus.Fields{
		"session":  s.id,
		"features": n,
	}).Debug("features regenerated")
	return nil
}

func (s *Session) step(prev, curr *gocv.Mat, res *Result) error {
	n, err := s.tracker.Step(prev, curr)
	if err != nil {
		if errors.Is(err, tracking.ErrNotInitialized) {
			return s.regenerate(curr, res)
		}
		return err
	}

	if s.tracker.Degraded() {
		s.emit(res, Event{Kind: EventTrackingDegraded, Features: n})
		return nil
	}

	c, ok := s.tracker.Centroid()
	if !ok {
		return nil
	}
	res.Centroid, res.HasCentroid = c, true

	outcome, err := s.arbiter.Observe(c.X, c.Y)
	res.Outcome = outcome
	if err != nil {
		s.log.WithError(err).WithField("session", s.id).Warn("answer sink failed")
	}
	if outcome != gesture.OutcomeNone {
		s.emit(res, Event{Kind: EventGesture, Outcome: outcome})
		s.log.WithFields(logrus.Fields{
			"session": s.id,
			"frame":   s.frame,
			"outcome": outcome.String(),
		}).Info("gesture recognized")
	}
	return nil
}

func (s *Session) emit(res *Result, ev Event) {
	ev.SessionID = s.id
	ev.Frame = s.frame
	ev.At = s.now()
	res.Events = append(res.Events, ev)
}

// Reset starts a new interaction: a new ID, an empty mask, no features
// and idle classifiers.
func (s *Session) Reset() {
	s.id = uuid.NewString()
	s.regions.Reset()
	s.tracker.Reset()
	s.arbiter.Reset()
	s.frame = 0
	s.wasTrackingFace = false
	s.noFaceFrames = 0
}

// Counts returns the current shake and nod reversal counts.
func (s *Session) Counts() (shake, nod int) {
	return s.arbiter.Counts()
}

// Close releases image buffers, the mask and any owned flow engine. The
// detectors belong to the caller.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.bufA.Close()
	s.bufB.Close()
	if s.ownedFlow != nil {
		s.ownedFlow.Close()
	}
	return s.regions.Close()
}
