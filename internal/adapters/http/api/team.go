// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrbench/refbox/internal/registry"
)

// TeamHandler handles team registration requests.
type TeamHandler struct {
	deps Dependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps Dependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

type registerRequest struct {
	TeamName string `json:"team_name"`
}

// HandleRegister handles POST /api/team/register requests.
func (h *TeamHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_register"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := h.deps.RegisterTeam(r.Context(), req.TeamName)
	if err != nil {
		if errors.Is(err, registry.ErrEmptyName) {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
