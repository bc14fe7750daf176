package api

import (
	"net/http"

	"github.com/ayusman/headnod/internal/questions"
)

// TreeSource returns the question tree currently in use.
type TreeSource interface {
	Tree() *questions.Node
}

// QuestionHandler serves GET /api/questions.
type QuestionHandler struct {
	source TreeSource
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(source TreeSource) *QuestionHandler {
	return &QuestionHandler{source: source}
}

type questionsResponse struct {
	Count int             `json:"count"`
	Root  *questions.Node `json:"root"`
}

func (h *QuestionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	root := h.source.Tree()
	if root == nil {
		writeError(w, http.StatusNotFound, "No question tree loaded")
		return
	}

	writeJSON(w, http.StatusOK, questionsResponse{
		Count: questions.Count(root),
		Root:  root,
	})
}
