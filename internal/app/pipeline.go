package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/plugin"
	"github.com/ayusman/headnod/internal/questions"
	"github.com/ayusman/headnod/internal/server"
	"github.com/ayusman/headnod/internal/session"
	"github.com/ayusman/headnod/internal/store"
)

// Message types published on the events hub besides session.EventKind.
const (
	MessageSessionStarted = "session_started"
	MessageSessionEnded   = "session_ended"
	MessageAnswer         = "answer"
)

// SessionMessage is the payload of session_started and session_ended.
type SessionMessage struct {
	SessionID string              `json:"session_id"`
	Status    store.SessionStatus `json:"status"`
	Root      string              `json:"root,omitempty"`
}

// AnswerMessage is the payload of answer messages.
type AnswerMessage struct {
	SessionID string `json:"session_id"`
	questions.Answer
}

// run is the frame loop. Every tick processes one frame; motion only
// changes how often ticks come.
//
// Loop logic:
// 1. Start at the idle rate
// 2. Read, orient and equalize a frame
// 3. Motion switches the camera to the active rate, 2s of stillness back to idle
// 4. Run the session; nods and shakes reach the navigator through its sink
// 5. Publish events and, for viewers, the annotated preview
func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	interval := a.rate.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.mu.Lock()
			if a.enabled {
				if err := a.step(); err != nil {
					a.log.WithError(err).Debug("frame skipped")
				}
			}
			a.mu.Unlock()

			if next := a.rate.Interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// step processes one frame. a.mu must be held.
func (a *App) step() error {
	if err := a.config.Camera.Read(&a.raw); err != nil {
		return err
	}

	var color *gocv.Mat
	if a.previewWanted() {
		color = &a.color
	}
	if err := a.norm.Normalize(a.raw, color, &a.gray); err != nil {
		return err
	}

	motion, _ := a.motion.Detect(&a.gray)
	if mode, changed := a.rate.Observe(motion, a.now()); changed {
		a.config.Camera.SetFPS(a.rate.FPS())
		a.log.WithField("mode", mode).Debug("capture rate changed")
	}

	res, err := a.sess.Process(&a.gray)
	if err != nil {
		return err
	}

	for _, ev := range res.Events {
		a.publish(string(ev.Kind), ev.At, ev)
	}

	if color != nil {
		session.Annotate(color, res, a.config.Mirror)
		buf, err := gocv.IMEncode(".jpg", *color)
		if err != nil {
			return err
		}
		jpeg := append([]byte(nil), buf.GetBytes()...)
		buf.Close()
		a.config.Frames.Publish(jpeg)
	}
	return nil
}

func (a *App) previewWanted() bool {
	return a.config.Frames != nil && a.config.Frames.Subscribers() > 0
}

func (a *App) publish(kind string, at time.Time, data any) {
	a.config.Events.Publish(server.Message{Type: kind, At: at, Data: data})
}

// begin opens a new interaction for the current session ID. a.mu must be
// held.
func (a *App) begin() {
	a.interaction = a.sess.ID()
	a.finished = false

	if a.config.Store != nil {
		err := a.config.Store.Sessions().Create(&store.Session{ID: a.interaction, StartedAt: a.now()})
		if err != nil {
			a.log.WithError(err).WithField("session", a.interaction).Error("failed to record session")
		}
	}

	a.publish(MessageSessionStarted, a.now(), SessionMessage{
		SessionID: a.interaction,
		Status:    store.SessionActive,
		Root:      a.nav.Root().ID,
	})
	a.log.WithField("session", a.interaction).Info("interaction started")

	a.nav.Start()
}

// cancel ends an unfinished interaction as cancelled. a.mu must be held.
func (a *App) cancel() {
	if a.interaction == "" {
		return
	}
	if !a.finished {
		a.end(store.SessionCancelled)
	}
	a.interaction = ""
}

func (a *App) end(status store.SessionStatus) {
	at := a.now()
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().End(a.interaction, status, at); err != nil {
			a.log.WithError(err).WithField("session", a.interaction).Error("failed to end session")
		}
	}
	a.publish(MessageSessionEnded, at, SessionMessage{SessionID: a.interaction, Status: status})
	a.log.WithFields(logrus.Fields{"session": a.interaction, "status": status}).Info("interaction ended")
}

// onAnswer is the navigator's answer handler. It runs inside Process on
// the loop goroutine, so a.mu is already held.
func (a *App) onAnswer(ans questions.Answer) {
	id := a.interaction
	a.lastAnswer = &ans

	if a.config.Store != nil {
		if err := a.config.Store.Answers().Create(store.FromNavigator(id, ans)); err != nil {
			a.log.WithError(err).WithField("session", id).Error("failed to record answer")
		}
	}
	a.publish(MessageAnswer, ans.At, AnswerMessage{SessionID: id, Answer: ans})
	a.dispatch(plugin.EventAnswer, id, ans)

	if ans.Terminal {
		a.finished = true
		a.end(store.SessionFinished)
		a.dispatch(plugin.EventFinished, id, ans)
	}
}

func (a *App) dispatch(event, sessionID string, ans questions.Answer) {
	if a.config.Plugins == nil {
		return
	}
	a.config.Plugins.Go(context.Background(), plugin.Request{
		Event:     event,
		SessionID: sessionID,
		NodeID:    ans.NodeID,
		Prompt:    ans.Prompt,
		Answer:    string(ans.Choice),
		NextID:    ans.NextID,
		Terminal:  ans.Terminal,
		At:        ans.At,
	})
}
