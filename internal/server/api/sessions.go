// Package api provides HTTP API handlers for headnod.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/headnod/internal/store"
)

// DefaultListLimit caps GET /api/sessions without a limit parameter.
const DefaultListLimit = 50

// SessionHandler serves stored sessions and their answers.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions and /api/sessions/{id}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	h.get(w, r, path)
}

type sessionResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Answers   int    `json:"answers"`
}

type answerResponse struct {
	NodeID     string `json:"node_id"`
	Prompt     string `json:"prompt"`
	Choice     string `json:"choice"`
	NextID     string `json:"next_id,omitempty"`
	Terminal   bool   `json:"terminal"`
	AnsweredAt string `json:"answered_at"`
}

type sessionDetailResponse struct {
	sessionResponse
	AnswerList []answerResponse `json:"answer_list"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Status:    string(s.Status),
		StartedAt: s.StartedAt.Format(timeFormat),
		Answers:   s.Answers,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

func toAnswerResponse(a *store.Answer) answerResponse {
	return answerResponse{
		NodeID:     a.NodeID,
		Prompt:     a.Prompt,
		Choice:     string(a.Choice),
		NextID:     a.NextID,
		Terminal:   a.Terminal,
		AnsweredAt: a.AnsweredAt.Format(timeFormat),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions?limit=N, most recent first.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and includes the answers.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	answers, err := h.store.Answers().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list answers")
		return
	}

	response := sessionDetailResponse{
		sessionResponse: toSessionResponse(sess),
		AnswerList:      make([]answerResponse, 0, len(answers)),
	}
	for _, a := range answers {
		response.AnswerList = append(response.AnswerList, toAnswerResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}
