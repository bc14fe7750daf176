package session

import (
	"time"

	"github.com/ayusman/headnod/internal/detector"
	"github.com/ayusman/headnod/internal/gesture"
	"github.com/ayusman/headnod/internal/tracking"
)

// EventKind names something that happened while processing a frame.
type EventKind string

const (
	EventFaceAcquired        EventKind = "face_acquired"
	EventFaceLost            EventKind = "face_lost"
	EventFeaturesRegenerated EventKind = "features_regenerated"
	EventTrackingDegraded    EventKind = "tracking_degraded"
	EventGesture             EventKind = "gesture"
	EventGestureReset        EventKind = "gesture_reset"
)

// Event is published to observers of the session.
type Event struct {
	Kind      EventKind       `json:"kind"`
	SessionID string          `json:"session_id"`
	Frame     int             `json:"frame"`
	Outcome   gesture.Outcome `json:"outcome,omitempty"`
	Features  int             `json:"features,omitempty"`
	At        time.Time       `json:"at"`
}

// Result describes one processed frame.
type Result struct {
	Frame     int                `json:"frame"`
	Detection detector.Detection `json:"detection"`
	// Features are the valid tracked points after this frame.
	Features    []tracking.Point `json:"features,omitempty"`
	Centroid    tracking.Point   `json:"centroid"`
	HasCentroid bool             `json:"has_centroid"`
	Outcome     gesture.Outcome  `json:"outcome"`
	Events      []Event          `json:"events,omitempty"`
	Elapsed     time.Duration    `json:"elapsed"`
}
