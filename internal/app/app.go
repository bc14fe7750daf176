// Package app drives headnod: it reads camera frames, runs them through
// the head gesture session and fans the results out to the store, answer
// hooks and live viewers.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/capture"
	"github.com/ayusman/headnod/internal/detector"
	"github.com/ayusman/headnod/internal/log"
	"github.com/ayusman/headnod/internal/plugin"
	"github.com/ayusman/headnod/internal/questions"
	"github.com/ayusman/headnod/internal/server"
	"github.com/ayusman/headnod/internal/session"
	"github.com/ayusman/headnod/internal/store"
	"github.com/ayusman/headnod/internal/tracking"
)

var (
	// ErrNotRunning is returned when the pipeline has not been started.
	ErrNotRunning = errors.New("pipeline is not running")
	// ErrPaused is returned by Restart while detection is paused.
	ErrPaused = errors.New("detection is paused")
)

// Config holds the collaborators of the application. Camera, Face and Tree
// are required; everything else is optional.
type Config struct {
	Camera      capture.Camera
	Orientation capture.Orientation
	// Mirror flips the preview horizontally. Processing is unaffected.
	Mirror      bool

	Face  detector.Detector
	Eyes  detector.Detector
	Mouth detector.Detector
	// Flow replaces the Lucas-Kanade engine, for tests.
	Flow  tracking.FlowEngine

	Tree     *questions.Node
	Player   questions.Player
	AudioDir string

	Store   *store.Store
	Plugins *plugin.Dispatcher

	MotionThreshold   float64
	NoFaceResetFrames int

	// Frames receives JPEG previews, Events receives session events and
	// answers. Events is created when nil.
	Frames *server.Hub[[]byte]
	Events *server.Hub[server.Message]

	Now func() time.Time
}

// App is the main application that turns nods and shakes into answers.
type App struct {
	config Config
	nav    *questions.Navigator
	norm   *capture.Normalizer
	motion *capture.MotionDetector
	rate   *capture.RateController
	log    *logrus.Entry
	now    func() time.Time

	mu      sync.Mutex
	sess    *session.Session
	raw     gocv.Mat
	color   gocv.Mat
	gray    gocv.Mat
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Current interaction, touched only with mu held.
	interaction string
	finished    bool
	lastAnswer  *questions.Answer
}

// New creates a stopped App with detection enabled.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Face == nil {
		return nil, fmt.Errorf("app: face detector: %w", detector.ErrModelUnavailable)
	}
	if config.Tree == nil {
		return nil, fmt.Errorf("app: %w", questions.ErrEmptyTree)
	}
	if config.Orientation == "" {
		config.Orientation = capture.OrientNone
	}
	if config.MotionThreshold <= 0 {
		config.MotionThreshold = 1.0 // Default threshold: 1% pixel change
	}
	if config.Events == nil {
		config.Events = server.NewHub[server.Message]()
	}

	a := &App{
		config:  config,
		norm:    capture.NewNormalizer(config.Orientation),
		motion:  capture.NewMotionDetector(config.MotionThreshold),
		rate:    capture.NewRateController(),
		log:     log.WithComponent("app"),
		now:     config.Now,
		enabled: true,
	}
	if a.now == nil {
		a.now = time.Now
	}

	nav, err := questions.NewNavigator(config.Tree, config.Player,
		questions.WithAudioDir(config.AudioDir),
		questions.WithClock(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	nav.OnAnswer(a.onAnswer)
	a.nav = nav
	return a, nil
}

// Start opens the camera, begins the first interaction and launches the
// frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	if err := a.open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)
	return nil
}

// open prepares the camera, session and buffers. a.mu must be held.
func (a *App) open() error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	w, h := a.config.Orientation.OrientedSize(a.config.Camera.Size())
	cfg := session.DefaultConfig(w, h)
	cfg.NoFaceResetFrames = a.config.NoFaceResetFrames

	sess, err := session.New(cfg, session.Dependencies{
		Face:  a.config.Face,
		Eyes:  a.config.Eyes,
		Mouth: a.config.Mouth,
		Flow:  a.config.Flow,
		Sink:  a.nav,
		Now:   a.now,
	})
	if err != nil {
		a.config.Camera.Close()
		return err
	}
	a.sess = sess
	a.raw = gocv.NewMat()
	a.color = gocv.NewMat()
	a.gray = gocv.NewMat()

	a.rate.Reset()
	a.config.Camera.SetFPS(a.rate.FPS())

	if a.enabled {
		a.begin()
	}

	a.log.WithFields(logrus.Fields{"width": w, "height": h, "orientation": a.config.Orientation}).
		Info("detection pipeline started")
	return nil
}

// Stop halts the frame loop, cancels the open interaction and releases
// the camera and buffers. Detectors belong to the caller.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.close()
}

// close undoes open. a.mu must be held.
func (a *App) close() {
	if a.sess == nil {
		return
	}

	a.cancel()
	a.nav.Stop()

	if err := a.config.Camera.Close(); err != nil {
		a.log.WithError(err).Warn("error closing camera")
	}
	a.sess.Close()
	a.sess = nil
	a.raw.Close()
	a.color.Close()
	a.gray.Close()
	a.motion.Reset()

	a.log.Info("detection pipeline stopped")
}

// SetEnabled pauses or resumes detection. Pausing cancels the interaction
// in progress; resuming starts a fresh one.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled == enabled {
		return
	}
	a.enabled = enabled

	if a.sess == nil {
		return
	}
	if !enabled {
		a.cancel()
		a.nav.Stop()
		a.sess.Reset()
		a.motion.Reset()
		a.rate.Reset()
		a.config.Camera.SetFPS(a.rate.FPS())
		a.log.Info("detection paused")
		return
	}
	a.begin()
	a.log.Info("detection resumed")
}

// Enabled reports whether detection is running.
func (a *App) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Restart cancels the current interaction and starts over at the root
// question. It returns the new session ID.
func (a *App) Restart() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sess == nil {
		return "", ErrNotRunning
	}
	if !a.enabled {
		return "", ErrPaused
	}

	a.cancel()
	a.sess.Reset()
	a.begin()
	return a.interaction, nil
}

// Tree returns the question tree.
func (a *App) Tree() *questions.Node {
	return a.nav.Root()
}

// SessionID returns the current interaction, or "" when none is open.
func (a *App) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interaction
}

// LastAnswer returns the most recent answer of any interaction.
func (a *App) LastAnswer() (questions.Answer, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastAnswer == nil {
		return questions.Answer{}, false
	}
	return *a.lastAnswer, true
}

// Navigator returns the question navigator.
func (a *App) Navigator() *questions.Navigator {
	return a.nav
}

// Events returns the hub that carries session events and answers.
func (a *App) Events() *server.Hub[server.Message] {
	return a.config.Events
}
