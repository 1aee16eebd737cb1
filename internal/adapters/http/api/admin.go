// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrbench/refbox/internal/domain/model"
	"github.com/vrbench/refbox/internal/domain/session"
)

// AdminHandler handles session control requests.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// startQuestionRequest optionally overrides scoring parameters for one
// session. Zero values fall back to the configured defaults.
type startQuestionRequest struct {
	QuestionID int     `json:"question_id"`
	PMax       float64 `json:"p_max,omitempty"`
	PBase      float64 `json:"p_base,omitempty"`
	PPenalty   float64 `json:"p_penalty,omitempty"`
	TimeLimit  float64 `json:"time_limit,omitempty"`
	BufferTime float64 `json:"buffer_time,omitempty"`
}

type questionIDRequest struct {
	QuestionID int `json:"question_id"`
}

// HandleStartQuestion handles POST /admin/start-question requests.
func (h *AdminHandler) HandleStartQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req startQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.QuestionID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("missing question_id")))
		return
	}

	overrides := model.ScoringParams{
		PMax:       req.PMax,
		PBase:      req.PBase,
		PPenalty:   req.PPenalty,
		TimeLimit:  req.TimeLimit,
		BufferTime: req.BufferTime,
	}
	info, err := h.deps.StartQuestion(r.Context(), req.QuestionID, overrides)
	if err != nil {
		if errors.Is(err, session.ErrUnknownQuestion) {
			writeError(w, http.StatusNotFound, "unknown_question", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"question_id": info.QuestionID,
		"start_time":  info.StartTime,
		"time_limit":  info.TimeLimit,
		"buffer_time": info.BufferTime,
	})
}

// HandleStopQuestion handles POST /admin/stop-question requests.
func (h *AdminHandler) HandleStopQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_stop"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req questionIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	info, err := h.deps.StopQuestion(r.Context(), req.QuestionID)
	if err != nil {
		if errors.Is(err, session.ErrUnknownQuestion) {
			writeError(w, http.StatusNotFound, "unknown_question", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"question_id":       info.QuestionID,
		"total_submissions": info.TotalSubmissions,
		"completed_teams":   info.CompletedTeams,
	})
}

// HandleSessions handles GET /admin/sessions requests.
func (h *AdminHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	statuses := h.deps.SessionStatuses(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": statuses,
		"total":    len(statuses),
	})
}

// HandleReset handles POST /admin/reset requests.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	cleared := h.deps.ResetAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"cleared_sessions": cleared,
	})
}
