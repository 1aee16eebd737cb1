// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /api/leaderboard?question_id=N requests.
// Without question_id the first active question is selected.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	questionID := 0
	if raw := r.URL.Query().Get("question_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		questionID = n
	}
	view := h.deps.Leaderboard(r.Context(), questionID)
	writeJSON(w, http.StatusOK, view)
}
