package api

import (
	"net/http"
)

// Restarter starts a new interaction and returns its session id.
type Restarter interface {
	Restart() (string, error)
}

// RestartHandler serves POST /api/session/restart.
type RestartHandler struct {
	restarter Restarter
}

// NewRestartHandler creates a new RestartHandler.
func NewRestartHandler(r Restarter) *RestartHandler {
	return &RestartHandler{restarter: r}
}

type restartResponse struct {
	SessionID string `json:"session_id"`
}

func (h *RestartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := h.restarter.Restart()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, restartResponse{SessionID: id})
}
