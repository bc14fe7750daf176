// Package plugin runs answer hooks: external executables that are told
// about every answer and about the end of each interaction.
package plugin

import (
	"encoding/json"
	"slices"
	"time"
)

// Events a plugin can subscribe to.
const (
	EventAnswer   = "answer"
	EventFinished = "finished"
)

// Manifest describes a plugin's metadata and the events it wants.
// An empty Events list subscribes to everything.
type Manifest struct {
	Name        string          `json:"name" validate:"required"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable" validate:"required"`
	Events      []string        `json:"events,omitempty" validate:"dive,oneof=answer finished"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the manifest wants event.
func (m Manifest) Subscribes(event string) bool {
	return len(m.Events) == 0 || slices.Contains(m.Events, event)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	NodeID    string          `json:"node_id,omitempty"`
	Prompt    string          `json:"prompt,omitempty"`
	Answer    string          `json:"answer,omitempty"`
	NextID    string          `json:"next_id,omitempty"`
	Terminal  bool            `json:"terminal,omitempty"`
	At        time.Time       `json:"at"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
