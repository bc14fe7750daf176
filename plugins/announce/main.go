// Package main provides an answer hook that speaks the questionnaire's
// progress with the system text-to-speech command.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	NodeID    string          `json:"node_id"`
	Prompt    string          `json:"prompt"`
	Answer    string          `json:"answer"`
	Terminal  bool            `json:"terminal"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the manifest's config block.
type Config struct {
	Voice        string `json:"voice"`
	SpeakAnswers bool   `json:"speak_answers"`
}

// speakers are tried in order.
var speakers = []string{"say", "espeak-ng", "espeak", "spd-say"}

var errNoSpeaker = errors.New("no text-to-speech command found")

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	text, ok := message(req, cfg)
	if !ok {
		writeSuccessResponse(nil)
		return
	}

	if err := speak(text, cfg.Voice); err != nil {
		writeErrorResponse(err.Error())
		return
	}
	writeSuccessResponse(map[string]string{"spoken": text})
}

// message returns what to say for req, if anything.
func message(req Request, cfg Config) (string, bool) {
	switch req.Event {
	case "answer":
		if !cfg.SpeakAnswers || req.Terminal {
			return "", false
		}
		return fmt.Sprintf("You said %s.", req.Answer), true
	case "finished":
		return fmt.Sprintf("Thank you. Your last answer was %s.", req.Answer), true
	default:
		return "", false
	}
}

func speak(text, voice string) error {
	for _, name := range speakers {
		bin, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		output, err := exec.Command(bin, speakArgs(name, text, voice)...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
		}
		return nil
	}
	return errNoSpeaker
}

func speakArgs(name, text, voice string) []string {
	if voice == "" {
		return []string{text}
	}
	switch name {
	case "say":
		return []string{"-v", voice, text}
	case "spd-say":
		return []string{"-y", voice, text}
	default:
		return []string{"-v", voice, text}
	}
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data any) {
	resp := Response{
		Success: true,
	}
	if data != nil {
		resp.Data, _ = json.Marshal(data)
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
