// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// QuestionsHandler handles question listing requests.
type QuestionsHandler struct {
	deps Dependencies
}

// NewQuestionsHandler creates a new questions handler.
func NewQuestionsHandler(deps Dependencies) *QuestionsHandler {
	return &QuestionsHandler{deps: deps}
}

// HandleGetQuestions handles GET /api/questions requests.
func (h *QuestionsHandler) HandleGetQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	questions := h.deps.Questions(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"total":     len(questions),
	})
}
